package dataset

import (
	"errors"
	"math"
	"testing"

	"gosurv/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTableFromRows(
		[]string{"duration", "event", "group", "age"},
		[][]float64{
			{5, 1, 0, 61},
			{8, 0, 0, 47},
			{3, 1, 1, 70},
			{12, 1, 1, 55},
			{9, 0, 0, 66},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTable_LengthMismatch(t *testing.T) {
	_, err := NewTable([]string{"a", "b"}, [][]float64{{1, 2}, {1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLengthMismatch))
}

func TestNewTable_DuplicateColumn(t *testing.T) {
	_, err := NewTable([]string{"a", "a"}, [][]float64{{1}, {2}})
	assert.Error(t, err)
}

func TestNewTable_CopiesInput(t *testing.T) {
	col := []float64{1, 2, 3}
	tbl, err := NewTable([]string{"x"}, [][]float64{col})
	require.NoError(t, err)
	col[0] = 99

	got, err := tbl.Column("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestTable_Column(t *testing.T) {
	tbl := sampleTable(t)

	got, err := tbl.Column("duration")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 8, 3, 12, 9}, got)

	_, err = tbl.Column("missing")
	assert.True(t, core.IsNotFoundError(err))
}

func TestTable_Filter(t *testing.T) {
	tbl := sampleTable(t)

	sub := tbl.Filter(Eq("group", 1))
	assert.Equal(t, 2, sub.NumRows())
	d, _ := sub.Column("duration")
	assert.Equal(t, []float64{3, 12}, d)

	// Original is untouched
	assert.Equal(t, 5, tbl.NumRows())

	empty := tbl.Filter(Gt("age", 100))
	assert.Equal(t, 0, empty.NumRows())
	assert.Equal(t, tbl.Columns(), empty.Columns())

	all := tbl.Filter(nil)
	assert.Equal(t, 5, all.NumRows())
}

func TestTable_Covariates(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, []string{"group", "age"}, tbl.Covariates("duration", "event"))
}

func TestTable_Select(t *testing.T) {
	tbl := sampleTable(t)
	sub, err := tbl.Select("age", "group")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "group"}, sub.Columns())

	_, err = tbl.Select("nope")
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	tbl := sampleTable(t)

	tests := []struct {
		name string
		pred Predicate
		want int
	}{
		{"eq", Eq("group", 0), 3},
		{"ne", Ne("group", 0), 2},
		{"lt", Lt("age", 60), 2},
		{"le", Le("age", 61), 3},
		{"ge", Ge("duration", 9), 2},
		{"and", And(Eq("group", 0), Gt("age", 60)), 2},
		{"or", Or(Eq("event", 0), Lt("duration", 4)), 3},
		{"not", Not(Eq("event", 1)), 2},
		{"unknown column", Eq("nope", 1), 0},
		{"ne unknown column", Ne("nope", 1), 0},
		{"gt", Gt("age", 60), 3},
		{"lt unknown column", Lt("nope", 1), 0},
		{"ge unknown column", Ge("nope", 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tbl.Filter(tt.pred).NumRows())
		})
	}
}

func TestRow_Lookup(t *testing.T) {
	tbl := sampleTable(t)
	r := tbl.Row(2)
	assert.Equal(t, 2, r.Index())
	v, ok := r.Lookup("age")
	assert.True(t, ok)
	assert.Equal(t, 70.0, v)
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(r.Value("nope")))
}
