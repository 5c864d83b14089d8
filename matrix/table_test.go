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
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mkTable(t *testing.T) *Table {
	tbl, err := FromRows(
		[]string{"X", "Y", "Z"},
		[]string{"P", "Q"},
		[][]float64{{10, 0}, {0, 10}, {3, 4}},
	)
	require.NoError(t, err)
	return tbl
}

func TestFromRowsDims(t *testing.T) {
	tbl := mkTable(t)
	nr, nc := tbl.Dims()
	assert.Equal(t, 3, nr)
	assert.Equal(t, 2, nc)
	v, ok := tbl.Get("Z", "Q")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	_, ok = tbl.Get("Z", "R")
	assert.False(t, ok)
}

func TestFromRowsInconsistentRow(t *testing.T) {
	_, err := FromRows([]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err)
	assert.IsType(t, InvalidTableError{}, err)
}

func TestNewDuplicateLabels(t *testing.T) {
	_, err := FromRows([]string{"X", "X"}, []string{"P"}, [][]float64{{1}, {2}})
	assert.Error(t, err)
}

func TestSumsAndTotal(t *testing.T) {
	tbl := mkTable(t)
	assert.Equal(t, []float64{10, 10, 7}, tbl.RowSums())
	assert.Equal(t, []float64{13, 14}, tbl.ColSums())
	assert.Equal(t, 27.0, tbl.Total())
}

func TestTransposeRoundTrip(t *testing.T) {
	tbl := mkTable(t)
	tt := tbl.T()
	assert.Equal(t, []string{"P", "Q"}, tt.Rows)
	assert.Equal(t, []string{"X", "Y", "Z"}, tt.Cols)
	v, _ := tt.Get("Q", "Z")
	assert.Equal(t, 4.0, v)
	assert.True(t, tt.T().Equal(tbl))
}

func TestTransposeDoesNotAlias(t *testing.T) {
	tbl := mkTable(t)
	tt := tbl.T()
	tt.Data.Set(0, 0, 99)
	assert.Equal(t, 10.0, tbl.At(0, 0))
}

func TestValidateCounts(t *testing.T) {
	tbl := mkTable(t)
	assert.NoError(t, tbl.ValidateCounts())

	tbl.Data.Set(1, 1, -1)
	assert.Error(t, tbl.ValidateCounts())

	tbl.Data.Set(1, 1, math.NaN())
	assert.Error(t, tbl.ValidateCounts())

	zero, err := FromRows([]string{"X"}, []string{"P", "Q"}, [][]float64{{0, 0}})
	require.NoError(t, err)
	assert.Error(t, zero.ValidateCounts())
}

func TestJSONKeepsNonFiniteValues(t *testing.T) {
	tbl, err := FromRows(
		[]string{"X"},
		[]string{"P", "Q", "R", "S"},
		[][]float64{{1.5, math.NaN(), math.Inf(1), math.Inf(-1)}},
	)
	require.NoError(t, err)
	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"NaN"`)
	assert.Contains(t, string(data), `"+Inf"`)

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, tbl.Equal(&decoded))
}

func TestJSONInvalidCell(t *testing.T) {
	var decoded Table
	err := json.Unmarshal([]byte(`{"rows":["X"],"cols":["P"],"data":[["foo"]]}`), &decoded)
	assert.Error(t, err)
	err = json.Unmarshal([]byte(`{"rows":["X"],"cols":["P","Q"],"data":[[1]]}`), &decoded)
	assert.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := mkTable(t)
	tbl.Data.Set(2, 0, math.Inf(-1))
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, WriteFile(path, NamedTable{Name: "counts", Table: tbl}))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(loaded))
}

func TestCSVRejectsMultipleTables(t *testing.T) {
	tbl := mkTable(t)
	path := filepath.Join(t.TempDir(), "table.csv")
	err := WriteFile(path, NamedTable{Table: tbl}, NamedTable{Table: tbl})
	assert.Error(t, err)
}

func TestXLSXRoundTrip(t *testing.T) {
	tbl := mkTable(t)
	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, WriteFile(
		path,
		NamedTable{Name: "scores", Table: tbl},
		NamedTable{Name: "odds", Table: tbl.T()},
	))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(loaded))
}

func writeTestSheet(t *testing.T, path string, fn func(f *excelize.File, sheet string)) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	fn(f, sheet)
	require.NoError(t, f.SaveAs(path))
}

func TestXLSXLeadingEmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shifted.xlsx")
	writeTestSheet(t, path, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"-", "P", "Q"}))
		require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"X", 1, 2}))
		require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Y", 3, 4}))
	})
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	nr, nc := loaded.Dims()
	assert.Equal(t, 2, nr)
	assert.Equal(t, 2, nc)
	v, ok := loaded.Get("Y", "Q")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestXLSXOnlyEmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	writeTestSheet(t, path, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A3", " "))
	})
	_, err := LoadFile(path)
	assert.ErrorAs(t, err, &InvalidTableError{})
}

func TestXLSXFormattedNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formatted.xlsx")
	writeTestSheet(t, path, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"-", "P", "Q"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"X", 12345, 0.5}))
		thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", thousands))
		percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", percent))
	})
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	v, ok := loaded.Get("X", "P")
	assert.True(t, ok)
	assert.Equal(t, 12345.0, v)
	v, ok = loaded.Get("X", "Q")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
}

func TestCSVLeadingEmptyLines(t *testing.T) {
	records := [][]string{
		{""},
		{"", " "},
		{"-", "P"},
		{"X", "7"},
		{"Y", "z"},
	}
	_, err := parseRecords(records)
	var tErr InvalidTableError
	require.ErrorAs(t, err, &tErr)
	assert.Contains(t, tErr.Msg, "line 5")

	loaded, err := parseRecords(records[:4])
	require.NoError(t, err)
	v, ok := loaded.Get("X", "P")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)
}

func TestUnsupportedFileType(t *testing.T) {
	_, err := LoadFile("counts.json")
	assert.Error(t, err)
}
