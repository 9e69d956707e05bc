package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCodeAndCause(t *testing.T) {
	root := stderrors.New("boom")
	base := AnalysisFailed("cox fit", root)
	wrapped := Wrap(base, "running analysis")

	assert.Equal(t, CodeAnalysisFailed, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
	assert.Equal(t, "running analysis: cox fit failed: boom", wrapped.Error())
}

func TestWrap_PlainError(t *testing.T) {
	err := Wrapf(stderrors.New("io"), "reading %s", "file.csv")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "reading file.csv: io", err.Error())
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
}

func TestWithCode(t *testing.T) {
	root := stderrors.New("bad column")
	err := WithCode(CodeValidationError, root)
	assert.Equal(t, CodeValidationError, GetCode(err))
	assert.True(t, stderrors.Is(err, root))

	recoded := WithCode(CodeNotFound, ValidationError("x"))
	assert.Equal(t, CodeNotFound, GetCode(recoded))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidInput("bad query"))
	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.False(t, IsAppError(stderrors.New("plain")))
}
