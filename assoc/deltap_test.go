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
	"testing"

	"collassoc/matrix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDeltaPDiagonal(t *testing.T) {
	res, err := ApplyDeltaP(mkDiagonal(t), 0, 1)
	require.NoError(t, err)
	v, _ := res.Get("X", "P")
	assert.Equal(t, 1.0, v)
	v, _ = res.Get("X", "Q")
	assert.Equal(t, -1.0, v)
}

func TestApplyDeltaPDirectional(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{10, 2}, {3, 1}})
	require.NoError(t, err)

	cueRows, err := ApplyDeltaP(tbl, 0, 1)
	require.NoError(t, err)
	cueCols, err := ApplyDeltaP(tbl, 1, 0)
	require.NoError(t, err)

	v1, _ := cueRows.Get("X", "P")
	v2, _ := cueCols.Get("X", "P")
	assert.InDelta(t, 10.0/12.0-3.0/4.0, v1, 1e-12)
	assert.InDelta(t, 10.0/13.0-2.0/3.0, v2, 1e-12)
	assert.NotEqual(t, v1, v2)
	assert.Equal(t, tbl.Rows, cueCols.Rows)
}

func TestApplyDeltaPZeroDenominator(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{0, 0}, {1, 2}})
	require.NoError(t, err)
	res, err := ApplyDeltaP(tbl, 0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.At(0, 0)))
	assert.True(t, math.IsNaN(res.At(1, 1)))
	for i := range 2 {
		for j := range 2 {
			v := res.At(i, j)
			if !math.IsNaN(v) {
				assert.LessOrEqual(t, math.Abs(v), 1.0)
			}
		}
	}
}

func TestApplyDeltaPInvalidAxes(t *testing.T) {
	_, err := ApplyDeltaP(mkDiagonal(t), 1, 1)
	assert.Error(t, err)
}
