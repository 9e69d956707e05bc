package excel

import (
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteTable writes a table to path as xlsx or csv, chosen by extension
func WriteTable(table *dataset.Table, path, sheet string) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(table, path)
	}
	return writeXLSX(table, path, sheet)
}

func writeXLSX(table *dataset.Table, path, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return errors.Wrap(err, "failed to name sheet")
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return errors.Wrap(err, "failed to open stream writer")
	}

	columns := table.Columns()
	header := make([]interface{}, len(columns))
	for j, c := range columns {
		header[j] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for i := 0; i < table.NumRows(); i++ {
		row := table.Row(i)
		cells := make([]interface{}, len(columns))
		for j, c := range columns {
			cells[j] = row.Value(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address row")
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}

	if err := sw.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush sheet")
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save workbook")
	}
	log.Printf("[DataWriter] Wrote %d rows to %s", table.NumRows(), path)
	return nil
}

func writeCSV(table *dataset.Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	columns := table.Columns()
	if err := w.Write(columns); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	record := make([]string, len(columns))
	for i := 0; i < table.NumRows(); i++ {
		row := table.Row(i)
		for j, c := range columns {
			record[j] = strconv.FormatFloat(row.Value(c), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV file")
	}
	log.Printf("[DataWriter] Wrote %d rows to %s", table.NumRows(), path)
	return nil
}
