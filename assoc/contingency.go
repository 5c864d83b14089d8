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

package assoc

import (
	"collassoc/matrix"

	"gonum.org/v1/gonum/mat"
)

// Contingency contains 2x2 contingency data for each cell of
// a samples x features matrix. All the matrices have the same
// shape as the input matrix. For a cell (s, f):
//
//	          f     ¬f
//	 s        A     B
//	¬s        C     D
//
// and E is the expected value of A in case s and f are independent.
type Contingency struct {
	A     *mat.Dense
	B     *mat.Dense
	C     *mat.Dense
	D     *mat.Dense
	E     *mat.Dense
	Total float64
}

// BuildContingency derives contingency quadrants for every cell
// of a samples x features count matrix:
//
//	A = count(s, f)
//	B = sum(s) - A
//	C = sum(f) - A
//	D = total - (A + B + C)
//	E = sum(s) * sum(f) / total
//
// Zero margins are not reported in any way. In such case, the respective
// cells of E contain NaN or Inf values.
func BuildContingency(counts *mat.Dense) *Contingency {
	nr, nc := counts.Dims()
	sampSums := mat.NewVecDense(nr, nil)
	for i := range nr {
		sampSums.SetVec(i, mat.Sum(counts.RowView(i)))
	}
	featSums := mat.NewVecDense(nc, nil)
	for j := range nc {
		featSums.SetVec(j, mat.Sum(counts.ColView(j)))
	}
	total := mat.Sum(counts)

	ans := &Contingency{
		A:     mat.DenseCopyOf(counts),
		B:     mat.NewDense(nr, nc, nil),
		C:     mat.NewDense(nr, nc, nil),
		D:     mat.NewDense(nr, nc, nil),
		E:     mat.NewDense(nr, nc, nil),
		Total: total,
	}
	ans.B.Apply(
		func(i, j int, a float64) float64 {
			return sampSums.AtVec(i) - a
		},
		counts,
	)
	ans.C.Apply(
		func(i, j int, a float64) float64 {
			return featSums.AtVec(j) - a
		},
		counts,
	)
	ans.D.Apply(
		func(i, j int, a float64) float64 {
			return total - (a + ans.B.At(i, j) + ans.C.At(i, j))
		},
		counts,
	)
	// for total == 0 this produces NaN cells (0/0) which is intended
	ans.E.Apply(
		func(i, j int, a float64) float64 {
			return sampSums.AtVec(i) * featSums.AtVec(j) / total
		},
		counts,
	)
	return ans
}

// Quadrants is a labeled variant of Contingency with all
// the tables oriented the same way as the original input.
type Quadrants struct {
	A     *matrix.Table
	B     *matrix.Table
	C     *matrix.Table
	D     *matrix.Table
	E     *matrix.Table
	Total float64
}

// ContingencyTable builds labeled contingency quadrants
// for a co-occurrence table with the specified axes.
func ContingencyTable(t *matrix.Table, sampleAxis, featureAxis int) (*Quadrants, error) {
	norm, err := NormalizeAxes(t, sampleAxis, featureAxis)
	if err != nil {
		return nil, err
	}
	cont := BuildContingency(norm.Data)
	return &Quadrants{
		A:     restoreAxes(norm.WithData(cont.A), sampleAxis),
		B:     restoreAxes(norm.WithData(cont.B), sampleAxis),
		C:     restoreAxes(norm.WithData(cont.C), sampleAxis),
		D:     restoreAxes(norm.WithData(cont.D), sampleAxis),
		E:     restoreAxes(norm.WithData(cont.E), sampleAxis),
		Total: cont.Total,
	}, nil
}
