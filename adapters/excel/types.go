package excel

// RawRowData represents a row of raw cell text keyed by header
type RawRowData map[string]string

// ExcelData represents a raw file before numeric conversion
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// DroppedRow records a data row excluded from the numeric table
type DroppedRow struct {
	Line   int    // 1-based line in the source file, header is line 1
	Column string // first offending column
	Value  string
}
