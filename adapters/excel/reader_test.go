package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_CSV(t *testing.T) {
	path := writeFile(t, "rossi.csv", "week,arrest,age\n20,1,27\n17,1,18\n52,0,19\n")

	table, err := NewDataReader(DefaultReaderConfig(path)).LoadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"week", "arrest", "age"}, table.Columns())
	assert.Equal(t, 3, table.NumRows())
	weeks, err := table.Column("week")
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 17, 52}, weeks)
}

func TestDataReader_DropsIncompleteRows(t *testing.T) {
	path := writeFile(t, "data.csv", "T,E,x\n1,1,0.5\n2,,0.1\n3,0,abc\n4,TRUE,1\n5,false\n")

	reader := NewDataReader(DefaultReaderConfig(path))
	table, err := reader.LoadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows())
	events, _ := table.Column("E")
	assert.Equal(t, []float64{1, 1}, events)

	dropped := reader.Dropped()
	require.Len(t, dropped, 3)
	assert.Equal(t, DroppedRow{Line: 3, Column: "E", Value: ""}, dropped[0])
	assert.Equal(t, DroppedRow{Line: 4, Column: "x", Value: "abc"}, dropped[1])
	assert.Equal(t, "x", dropped[2].Column)
}

func TestDataReader_Errors(t *testing.T) {
	_, err := NewDataReader(DefaultReaderConfig(filepath.Join(t.TempDir(), "missing.csv"))).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	headerOnly := writeFile(t, "empty.csv", "T,E\n")
	_, err = NewDataReader(DefaultReaderConfig(headerOnly)).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	blankHeader := writeFile(t, "blank.csv", "T,,E\n1,2,1\n")
	_, err = NewDataReader(DefaultReaderConfig(blankHeader)).LoadTable(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestWriteTable_RoundTrip(t *testing.T) {
	table, err := dataset.NewTable(
		[]string{"duration", "event", "group"},
		[][]float64{{5, 8.5, 12}, {1, 0, 1}, {0, 1, 1}},
	)
	require.NoError(t, err)

	for _, name := range []string{"out.xlsx", "out.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteTable(table, path, "cohort"))

			config := DefaultReaderConfig(path)
			config.Sheet = "cohort"
			loaded, err := NewDataReader(config).LoadTable(context.Background())
			require.NoError(t, err)

			assert.Equal(t, table.Columns(), loaded.Columns())
			for _, c := range table.Columns() {
				want, _ := table.Column(c)
				got, _ := loaded.Column(c)
				assert.InDeltaSlice(t, want, got, 1e-12, c)
			}
		})
	}
}
