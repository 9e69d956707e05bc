package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader reads xlsx and csv files into numeric tables
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string

	dropped []DroppedRow
}

// NewDataReader creates a data reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	sheet := config.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &DataReader{filePath: config.FilePath, fileType: fileType, sheet: sheet}
}

// LoadTable implements ports.TableSource
func (r *DataReader) LoadTable(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.ToTable(data)
}

// Dropped returns the rows excluded by the last ToTable call
func (r *DataReader) Dropped() []DroppedRow {
	return append([]DroppedRow(nil), r.dropped...)
}

// ReadData reads the raw cell text of the file
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", r.sheet)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", r.sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.ValidationError("Excel file must have at least a header row and one data row")
	}
	return processRows(rows), nil
}

func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.ValidationError("CSV file must have at least a header row and one data row")
	}
	return processRows(rows), nil
}

// processRows converts raw string rows into ExcelData format
func processRows(rows [][]string) *ExcelData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}
	return &ExcelData{Headers: headers, Rows: dataRows}
}

// ToTable parses every cell as a number. Rows with a blank or non-numeric
// cell in any column are dropped and logged.
func (r *DataReader) ToTable(data *ExcelData) (*dataset.Table, error) {
	for i, h := range data.Headers {
		if h == "" {
			return nil, errors.ValidationError(fmt.Sprintf("column %d has an empty header", i+1))
		}
	}

	r.dropped = nil
	rows := make([][]float64, 0, len(data.Rows))
	for i, raw := range data.Rows {
		values, bad, ok := parseRow(data.Headers, raw)
		if !ok {
			r.dropped = append(r.dropped, DroppedRow{Line: i + 2, Column: bad, Value: raw[bad]})
			continue
		}
		rows = append(rows, values)
	}

	if len(r.dropped) > 0 {
		first := r.dropped[0]
		log.Printf("[DataReader] Dropped %d incomplete rows (first at line %d, column %q = %q)",
			len(r.dropped), first.Line, first.Column, first.Value)
	}

	table, err := dataset.NewTableFromRows(data.Headers, rows)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	log.Printf("[DataReader] Loaded table (%d columns, %d rows)", table.NumCols(), table.NumRows())
	return table, nil
}

func parseRow(headers []string, raw RawRowData) ([]float64, string, bool) {
	values := make([]float64, len(headers))
	for j, h := range headers {
		v, ok := parseCell(raw[h])
		if !ok {
			return nil, h, false
		}
		values[j] = v
	}
	return values, "", true
}

// parseCell accepts numbers and TRUE/FALSE, which spreadsheets use for indicator columns
func parseCell(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "":
		return 0, false
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
