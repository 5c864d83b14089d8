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
	"errors"
	"math"
	"testing"

	"collassoc/matrix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestValidateAxes(t *testing.T) {
	assert.NoError(t, ValidateAxes(0, 1))
	assert.NoError(t, ValidateAxes(1, 0))
	for _, ax := range [][2]int{{0, 0}, {1, 1}, {2, 0}, {0, -1}} {
		err := ValidateAxes(ax[0], ax[1])
		var axErr *InvalidAxisError
		assert.True(t, errors.As(err, &axErr), "axes %v", ax)
	}
}

func TestNormalizeAxesRoundTrip(t *testing.T) {
	tbl := mkLarger(t)
	same, err := NormalizeAxes(tbl, 0, 1)
	require.NoError(t, err)
	assert.True(t, same.Equal(tbl))

	flipped, err := NormalizeAxes(tbl, 1, 0)
	require.NoError(t, err)
	back, err := NormalizeAxes(flipped, 1, 0)
	require.NoError(t, err)
	assert.True(t, back.Equal(tbl))
	assert.Equal(t, tbl.Cols, flipped.Rows)
}

func TestNormalizeAxesInvalid(t *testing.T) {
	_, err := NormalizeAxes(mkDiagonal(t), 1, 1)
	assert.Error(t, err)
}

func TestContingencyWorkedExample(t *testing.T) {
	q, err := ContingencyTable(mkDiagonal(t), 0, 1)
	require.NoError(t, err)
	get := func(tbl *matrix.Table) float64 {
		v, ok := tbl.Get("X", "P")
		require.True(t, ok)
		return v
	}
	assert.Equal(t, 10.0, get(q.A))
	assert.Equal(t, 0.0, get(q.B))
	assert.Equal(t, 0.0, get(q.C))
	assert.Equal(t, 10.0, get(q.D))
	assert.Equal(t, 5.0, get(q.E))
	assert.Equal(t, 20.0, q.Total)
}

func TestContingencyInvariants(t *testing.T) {
	tbl := mkLarger(t)
	cont := BuildContingency(tbl.Data)
	total := tbl.Total()
	nr, nc := tbl.Dims()
	for i := range nr {
		for j := range nc {
			a, b, c, d := cont.A.At(i, j), cont.B.At(i, j), cont.C.At(i, j), cont.D.At(i, j)
			assert.Equal(t, total, a+b+c+d)
			assert.GreaterOrEqual(t, b, 0.0)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.GreaterOrEqual(t, d, 0.0)
		}
	}
}

func TestContingencyKeepsOrientation(t *testing.T) {
	tbl := mkLarger(t)
	q1, err := ContingencyTable(tbl, 0, 1)
	require.NoError(t, err)
	q2, err := ContingencyTable(tbl.T(), 1, 0)
	require.NoError(t, err)
	assert.True(t, q1.B.T().Equal(q2.B))
	assert.True(t, q1.E.T().Equal(q2.E))
	assert.Equal(t, q1.Total, q2.Total)
}

func TestContingencyZeroTotal(t *testing.T) {
	cont := BuildContingency(mat.NewDense(2, 2, nil))
	assert.Equal(t, 0.0, cont.D.At(0, 0))
	assert.True(t, math.IsNaN(cont.E.At(1, 1)))
}

func TestContingencyDoesNotAliasInput(t *testing.T) {
	tbl := mkDiagonal(t)
	cont := BuildContingency(tbl.Data)
	cont.A.Set(0, 0, 42)
	assert.Equal(t, 10.0, tbl.At(0, 0))
}
