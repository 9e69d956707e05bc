package dataset

import (
	"fmt"
	"math"

	"gosurv/domain/core"
)

// Table is an immutable column-oriented numeric dataset.
// All columns have the same length; row i of every column describes the same subject.
type Table struct {
	columns []string
	index   map[string]int
	data    [][]float64
	rows    int
}

// NewTable builds a table from column names and column-major values.
// The values are copied.
func NewTable(columns []string, values [][]float64) (*Table, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("got %d column names for %d columns", len(columns), len(values))
	}

	t := &Table{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		data:    make([][]float64, len(columns)),
	}
	if len(values) > 0 {
		t.rows = len(values[0])
	}

	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if len(values[i]) != t.rows {
			return nil, core.NewLengthMismatchError(name, len(values[i]), t.rows)
		}
		t.columns[i] = name
		t.index[name] = i
		t.data[i] = append([]float64(nil), values[i]...)
	}

	return t, nil
}

// NewTableFromRows builds a table from row-major values.
func NewTableFromRows(columns []string, rows [][]float64) (*Table, error) {
	values := make([][]float64, len(columns))
	for j := range values {
		values[j] = make([]float64, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
		for j, v := range row {
			values[j][i] = v
		}
	}
	return NewTable(columns, values)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumRows returns the number of rows
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns
func (t *Table) NumCols() int { return len(t.columns) }

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	out := make([]float64, len(t.data[i]))
	copy(out, t.data[i])
	return out, nil
}

// Covariates returns every column name except the excluded ones, in table order.
func (t *Table) Covariates(exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var out []string
	for _, c := range t.columns {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, i: i}
}

// Filter returns a new table holding the rows for which pred is true.
// A nil predicate keeps every row.
func (t *Table) Filter(pred Predicate) *Table {
	keep := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if pred == nil || pred(t.Row(i)) {
			keep = append(keep, i)
		}
	}

	out := &Table{
		columns: append([]string(nil), t.columns...),
		index:   make(map[string]int, len(t.columns)),
		data:    make([][]float64, len(t.columns)),
		rows:    len(keep),
	}
	for j, name := range t.columns {
		out.index[name] = j
		col := make([]float64, len(keep))
		for k, i := range keep {
			col[k] = t.data[j][i]
		}
		out.data[j] = col
	}
	return out
}

// Select returns a new table restricted to the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	values := make([][]float64, len(columns))
	for j, name := range columns {
		i, ok := t.index[name]
		if !ok {
			return nil, core.NewColumnNotFoundError(name)
		}
		values[j] = t.data[i]
	}
	return NewTable(columns, values)
}

// Row is a read-only view of one table row.
type Row struct {
	table *Table
	i     int
}

// Index returns the row position in its table
func (r Row) Index() int { return r.i }

// Value returns the row's value for the column, or NaN if the column does not exist.
func (r Row) Value(column string) float64 {
	j, ok := r.table.index[column]
	if !ok {
		return math.NaN()
	}
	return r.table.data[j][r.i]
}

// Lookup returns the row's value for the column and whether the column exists.
func (r Row) Lookup(column string) (float64, bool) {
	j, ok := r.table.index[column]
	if !ok {
		return 0, false
	}
	return r.table.data[j][r.i], true
}
