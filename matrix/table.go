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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Table is a labeled two-dimensional numeric table. It serves both
// as a co-occurrence count matrix (samples x features or vice versa)
// and as a container for all the derived tables (contingency
// quadrants, scores, odds ratios).
type Table struct {
	Rows []string
	Cols []string
	Data *mat.Dense
}

// Dims returns number of rows and columns
func (t *Table) Dims() (int, int) {
	return len(t.Rows), len(t.Cols)
}

func (t *Table) At(i, j int) float64 {
	return t.Data.At(i, j)
}

// T returns a transposed copy of the table (including labels)
func (t *Table) T() *Table {
	return &Table{
		Rows: append([]string{}, t.Cols...),
		Cols: append([]string{}, t.Rows...),
		Data: mat.DenseCopyOf(t.Data.T()),
	}
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	return &Table{
		Rows: append([]string{}, t.Rows...),
		Cols: append([]string{}, t.Cols...),
		Data: mat.DenseCopyOf(t.Data),
	}
}

// WithData creates a new table with the same labels as t
// and with the provided values. The values must have the same
// shape as t.
func (t *Table) WithData(data *mat.Dense) *Table {
	return &Table{
		Rows: append([]string{}, t.Rows...),
		Cols: append([]string{}, t.Cols...),
		Data: data,
	}
}

// RowSums returns sums of individual rows
func (t *Table) RowSums() []float64 {
	nr, _ := t.Data.Dims()
	ans := make([]float64, nr)
	for i := range nr {
		ans[i] = floats.Sum(t.Data.RawRowView(i))
	}
	return ans
}

// ColSums returns sums of individual columns
func (t *Table) ColSums() []float64 {
	_, nc := t.Data.Dims()
	ans := make([]float64, nc)
	for j := range nc {
		ans[j] = mat.Sum(t.Data.ColView(j))
	}
	return ans
}

// Total returns the grand total of all the cells
func (t *Table) Total() float64 {
	return mat.Sum(t.Data)
}

// ValidateCounts checks that the table is a valid co-occurrence
// matrix - i.e. all values are finite, non-negative and their
// total is positive.
func (t *Table) ValidateCounts() error {
	nr, nc := t.Data.Dims()
	for i := range nr {
		for j, v := range t.Data.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return InvalidTableError{
					Msg: fmt.Sprintf("non-finite value at [%s, %s]", t.Rows[i], t.Cols[j])}
			}
			if v < 0 {
				return InvalidTableError{
					Msg: fmt.Sprintf("negative count %v at [%s, %s]", v, t.Rows[i], t.Cols[j])}
			}
		}
	}
	if nr*nc > 0 && t.Total() == 0 {
		return InvalidTableError{Msg: "total of all counts is zero"}
	}
	return nil
}

// Equal tests whether both tables have the same labels and values.
// NaN values are considered equal to each other.
func (t *Table) Equal(other *Table) bool {
	if len(t.Rows) != len(other.Rows) || len(t.Cols) != len(other.Cols) {
		return false
	}
	for i := range t.Rows {
		if t.Rows[i] != other.Rows[i] {
			return false
		}
	}
	for j := range t.Cols {
		if t.Cols[j] != other.Cols[j] {
			return false
		}
	}
	return equalWithNaN(t.Data, other.Data)
}

func equalWithNaN(a, b *mat.Dense) bool {
	nr, nc := a.Dims()
	for i := range nr {
		for j := range nc {
			va, vb := a.At(i, j), b.At(i, j)
			if math.IsNaN(va) && math.IsNaN(vb) {
				continue
			}
			if va != vb {
				return false
			}
		}
	}
	return true
}

// RowIndex returns index of a row with the specified label
// or -1 if not found
func (t *Table) RowIndex(label string) int {
	for i, v := range t.Rows {
		if v == label {
			return i
		}
	}
	return -1
}

// ColIndex returns index of a column with the specified label
// or -1 if not found
func (t *Table) ColIndex(label string) int {
	for i, v := range t.Cols {
		if v == label {
			return i
		}
	}
	return -1
}

// Get returns a value addressed by row and column labels.
func (t *Table) Get(row, col string) (float64, bool) {
	i, j := t.RowIndex(row), t.ColIndex(col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return t.Data.At(i, j), true
}

func checkLabels(kind string, labels []string) error {
	used := make(map[string]bool, len(labels))
	for _, v := range labels {
		if used[v] {
			return InvalidTableError{Msg: fmt.Sprintf("duplicate %s label `%s`", kind, v)}
		}
		used[v] = true
	}
	return nil
}

// New creates a new labeled table. Number of labels must match
// the data dimensions and labels must be unique within an axis.
func New(rows, cols []string, data *mat.Dense) (*Table, error) {
	if data == nil {
		if len(rows) > 0 || len(cols) > 0 {
			return nil, InvalidTableError{Msg: "missing table data"}
		}
		return nil, InvalidTableError{Msg: "empty table"}
	}
	nr, nc := data.Dims()
	if nr != len(rows) {
		return nil, InvalidTableError{
			Msg: fmt.Sprintf("number of row labels (%d) does not match number of rows (%d)", len(rows), nr)}
	}
	if nc != len(cols) {
		return nil, InvalidTableError{
			Msg: fmt.Sprintf("number of column labels (%d) does not match number of columns (%d)", len(cols), nc)}
	}
	if err := checkLabels("row", rows); err != nil {
		return nil, err
	}
	if err := checkLabels("column", cols); err != nil {
		return nil, err
	}
	return &Table{Rows: rows, Cols: cols, Data: data}, nil
}

// FromRows creates a new table from a row-major list of values.
func FromRows(rows, cols []string, values [][]float64) (*Table, error) {
	if len(values) == 0 || len(cols) == 0 {
		return nil, InvalidTableError{Msg: "empty table"}
	}
	if len(values) != len(rows) {
		return nil, InvalidTableError{
			Msg: fmt.Sprintf("number of row labels (%d) does not match number of rows (%d)", len(rows), len(values))}
	}
	raw := make([]float64, 0, len(rows)*len(cols))
	for i, row := range values {
		if len(row) != len(cols) {
			return nil, InvalidTableError{
				Msg: fmt.Sprintf("row `%s` has %d values, expected %d", rows[i], len(row), len(cols))}
		}
		raw = append(raw, row...)
	}
	return New(rows, cols, mat.NewDense(len(rows), len(cols), raw))
}
