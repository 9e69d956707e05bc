package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestIDShort tests the file-name suffix helper
func TestIDShort(t *testing.T) {
	if got := ID("abc").Short(); got != "abc" {
		t.Errorf("Expected short ID 'abc', got '%s'", got)
	}
	if got := ID("0192f0aa-1111-7000-8000-123456789abc").Short(); got != "56789abc" {
		t.Errorf("Expected short ID '56789abc', got '%s'", got)
	}
	rid := ReportID("0192f0aa-1111-7000-8000-123456789abc")
	if got := rid.Short(); got != "56789abc" {
		t.Errorf("Expected short report ID '56789abc', got '%s'", got)
	}
	if NewFigureID().String() == "" {
		t.Error("Figure ID should not be empty")
	}
}

// TestErrorClassification tests sentinel wrapping
func TestErrorClassification(t *testing.T) {
	err := NewColumnNotFoundError("age")
	if !IsNotFoundError(err) || !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Expected column-not-found error, got %v", err)
	}
	if !IsInputError(NewEmptyGroupError("group A")) {
		t.Error("Empty group should be an input error")
	}
	if !IsInputError(NewLengthMismatchError("event", 3, 4)) {
		t.Error("Length mismatch should be an input error")
	}
	if !IsFitError(ErrNonConvergence) || IsFitError(ErrEmptyGroup) {
		t.Error("Fit error classification is wrong")
	}
}
