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
	"math"

	"collassoc/matrix"

	"gonum.org/v1/gonum/mat"
)

// deltaP calculates P(f|s) - P(f|¬s). Zero denominators
// produce NaN.
func deltaP(a, b, c, d float64) float64 {
	if a+b == 0 || c+d == 0 {
		return math.NaN()
	}
	return a/(a+b) - c/(c+d)
}

// ApplyDeltaP calculates the ΔP association measure for each cell
// of a co-occurrence table:
//
//	ΔP = A / (A + B) - C / (C + D)
//
// The measure is directional - samples are treated as cues
// and features as responses, so swapping the axes changes the result.
func ApplyDeltaP(t *matrix.Table, sampleAxis, featureAxis int) (*matrix.Table, error) {
	norm, err := NormalizeAxes(t, sampleAxis, featureAxis)
	if err != nil {
		return nil, err
	}
	cont := BuildContingency(norm.Data)
	nr, nc := norm.Data.Dims()
	ans := mat.NewDense(nr, nc, nil)
	ans.Apply(
		func(i, j int, a float64) float64 {
			return deltaP(a, cont.B.At(i, j), cont.C.At(i, j), cont.D.At(i, j))
		},
		cont.A,
	)
	return restoreAxes(norm.WithData(ans), sampleAxis), nil
}
