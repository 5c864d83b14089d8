// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of COLLASSOC.
//
//  COLLASSOC is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COLLASSOC is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COLLASSOC.  If not, see <https://www.gnu.org/licenses/>.

package matrix

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"

	cornerLabel = "-"
)

// NamedTable is a table with a name used when exporting
// multiple tables at once (e.g. Fisher's scores along with
// odds ratios).
type NamedTable struct {
	Name  string
	Table *Table
}

// DetectFileType determines a supported file type based on the
// file name suffix.
func DetectFileType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FileTypeCSV, nil
	case ".xlsx":
		return FileTypeXLSX, nil
	}
	return "", fmt.Errorf("unsupported file type of %s", path)
}

// LoadFile loads a labeled table from a CSV or XLSX file. The first
// row must contain column labels (its first cell is ignored), the first
// column must contain row labels. Empty cells are read as zero.
// In case of XLSX, the first sheet is used.
func LoadFile(path string) (*Table, error) {
	ftype, err := DetectFileType(path)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch ftype {
	case FileTypeCSV:
		records, err = readCSVRecords(path)
	case FileTypeXLSX:
		records, err = readXLSXRecords(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table from %s: %w", path, err)
	}
	return parseRecords(records)
}

func readCSVRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rdr := csv.NewReader(f)
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		rdr.Comma = '\t'
	}
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true
	return rdr.ReadAll()
}

func readXLSXRecords(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRecords(records [][]string) (*Table, error) {
	lineOffset := 0
	for len(records) > 0 && isEmptyRecord(records[0]) {
		records = records[1:]
		lineOffset++
	}
	if len(records) < 2 {
		return nil, InvalidTableError{Msg: "table must contain a header and at least one data row"}
	}
	cols := make([]string, 0, len(records[0]))
	for _, v := range records[0][1:] {
		cols = append(cols, strings.TrimSpace(v))
	}
	rows := make([]string, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + lineOffset + 2
		if isEmptyRecord(rec) {
			continue
		}
		if len(rec)-1 > len(cols) {
			return nil, InvalidTableError{
				Msg: fmt.Sprintf("line %d: too many values (%d), expected %d", line, len(rec)-1, len(cols))}
		}
		row := make([]float64, len(cols))
		for j, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, InvalidTableError{
					Msg: fmt.Sprintf("line %d, column `%s`: invalid number `%s`", line, cols[j], cell)}
			}
			row[j] = v
		}
		rows = append(rows, strings.TrimSpace(rec[0]))
		values = append(values, row)
	}
	return FromRows(rows, cols, values)
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return jsonNaN
	case math.IsInf(v, 1):
		return jsonPosInf
	case math.IsInf(v, -1):
		return jsonNegInf
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile exports tables into a file. CSV files can hold
// just a single table, XLSX files get one sheet per table.
func WriteFile(path string, tables ...NamedTable) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}
	ftype, err := DetectFileType(path)
	if err != nil {
		return err
	}
	switch ftype {
	case FileTypeCSV:
		if len(tables) > 1 {
			return fmt.Errorf("CSV output supports only a single table, got %d", len(tables))
		}
		return writeCSV(path, tables[0].Table)
	case FileTypeXLSX:
		return writeXLSX(path, tables)
	}
	return nil
}

func tableRecords(t *Table) [][]string {
	ans := make([][]string, 0, len(t.Rows)+1)
	ans = append(ans, append([]string{cornerLabel}, t.Cols...))
	for i, rowLabel := range t.Rows {
		rec := make([]string, len(t.Cols)+1)
		rec[0] = rowLabel
		for j := range t.Cols {
			rec[j+1] = formatValue(t.Data.At(i, j))
		}
		ans = append(ans, rec)
	}
	return ans
}

func writeCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write table to %s: %w", path, err)
	}
	defer f.Close()
	wrt := csv.NewWriter(f)
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		wrt.Comma = '\t'
	}
	if err := wrt.WriteAll(tableRecords(t)); err != nil {
		return fmt.Errorf("failed to write table to %s: %w", path, err)
	}
	return nil
}

func writeXLSX(path string, tables []NamedTable) error {
	f := excelize.NewFile()
	defer f.Close()
	defaultSheet := f.GetSheetName(0)
	for i, nt := range tables {
		name := nt.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", name, err)
			}

		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, nt.Table); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	header := make([]any, 0, len(t.Cols)+1)
	header = append(header, cornerLabel)
	for _, c := range t.Cols {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rowLabel := range t.Rows {
		rec := make([]any, 0, len(t.Cols)+1)
		rec = append(rec, rowLabel)
		for j := range t.Cols {
			v := t.Data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				rec = append(rec, formatValue(v))

			} else {
				rec = append(rec, v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rec); err != nil {
			return err
		}
	}
	return nil
}
