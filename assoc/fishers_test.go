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
	"context"
	"errors"
	"math"
	"testing"

	"collassoc/matrix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkDiagonal(t *testing.T) *matrix.Table {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"},
		[]string{"P", "Q"},
		[][]float64{{10, 0}, {0, 10}},
	)
	require.NoError(t, err)
	return tbl
}

func mkLarger(t *testing.T) *matrix.Table {
	rows := make([]string, 30)
	for i := range rows {
		rows[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	cols := make([]string, 17)
	for j := range cols {
		cols[j] = string(rune('A' + j))
	}
	values := make([][]float64, len(rows))
	for i := range rows {
		values[i] = make([]float64, len(cols))
		for j := range cols {
			values[i][j] = float64((i*7 + j*13 + i*j) % 23)
		}
	}
	tbl, err := matrix.FromRows(rows, cols, values)
	require.NoError(t, err)
	return tbl
}

func TestApplyFishersDiagonal(t *testing.T) {
	res, err := ApplyFishers(context.Background(), mkDiagonal(t), 0, 1)
	require.NoError(t, err)
	expected := -math.Log10(1.082508822446903e-05)

	v, _ := res.Scores.Get("X", "P")
	assert.InDelta(t, expected, v, 1e-8)
	v, _ = res.Scores.Get("Y", "Q")
	assert.InDelta(t, expected, v, 1e-8)
	v, _ = res.Scores.Get("X", "Q")
	assert.InDelta(t, -expected, v, 1e-8)

	odds, _ := res.OddsRatios.Get("X", "P")
	assert.True(t, math.IsInf(odds, 1))
	odds, _ = res.OddsRatios.Get("X", "Q")
	assert.Equal(t, 0.0, odds)
}

func TestApplyFishersUniform(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{5, 5}, {5, 5}})
	require.NoError(t, err)
	res, err := ApplyFishers(context.Background(), tbl, 0, 1)
	require.NoError(t, err)
	for i := range 2 {
		for j := range 2 {
			assert.InDelta(t, 0.0, res.Scores.At(i, j), 1e-12)
			assert.Equal(t, 1.0, res.OddsRatios.At(i, j))
		}
	}
}

func TestApplyFishersExpectedEqualsObserved(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{2, 2}, {2, 2}})
	require.NoError(t, err)

	res, err := ApplyFishers(context.Background(), tbl, 0, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Scores.At(0, 0), 0.0)

	res, err = ApplyFishers(context.Background(), tbl, 0, 1, WithLogTransform(false))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Scores.At(0, 0))
}

func TestApplyFishersRawPValues(t *testing.T) {
	res, err := ApplyFishers(
		context.Background(), mkDiagonal(t), 0, 1,
		WithLogTransform(false), WithSigned(false),
	)
	require.NoError(t, err)
	v, _ := res.Scores.Get("X", "Q")
	assert.InEpsilon(t, 1.082508822446903e-05, v, 1e-8)

	res, err = ApplyFishers(
		context.Background(), mkDiagonal(t), 0, 1, WithLogTransform(false))
	require.NoError(t, err)
	v, _ = res.Scores.Get("X", "Q")
	assert.InEpsilon(t, -1.082508822446903e-05, v, 1e-8)
}

func TestApplyFishersKeepsOrientation(t *testing.T) {
	tbl := mkLarger(t)
	res1, err := ApplyFishers(context.Background(), tbl, 0, 1)
	require.NoError(t, err)
	res2, err := ApplyFishers(context.Background(), tbl.T(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, tbl.Cols, res2.Scores.Rows)
	assert.Equal(t, tbl.Rows, res2.Scores.Cols)
	assert.True(t, res1.Scores.T().Equal(res2.Scores))
	assert.True(t, res1.OddsRatios.T().Equal(res2.OddsRatios))
}

func TestApplyFishersDeterministic(t *testing.T) {
	tbl := mkLarger(t)
	res1, err := ApplyFishers(context.Background(), tbl, 0, 1, WithNumWorkers(1))
	require.NoError(t, err)
	res2, err := ApplyFishers(context.Background(), tbl, 0, 1, WithNumWorkers(8))
	require.NoError(t, err)
	res3, err := ApplyFishers(context.Background(), tbl, 0, 1, WithNumWorkers(8))
	require.NoError(t, err)
	assert.True(t, res1.Scores.Equal(res2.Scores))
	assert.True(t, res2.Scores.Equal(res3.Scores))
	assert.True(t, res1.OddsRatios.Equal(res2.OddsRatios))
}

func TestApplyFishersDoesNotModifyInput(t *testing.T) {
	tbl := mkLarger(t)
	orig := tbl.Clone()
	_, err := ApplyFishers(context.Background(), tbl, 1, 0)
	require.NoError(t, err)
	assert.True(t, orig.Equal(tbl))
}

func TestApplyFishersInvalidAxes(t *testing.T) {
	_, err := ApplyFishers(context.Background(), mkDiagonal(t), 0, 0)
	var axErr *InvalidAxisError
	assert.True(t, errors.As(err, &axErr))
	assert.Equal(t, 0, axErr.SampleAxis)
}

func TestApplyFishersCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ApplyFishers(ctx, mkLarger(t), 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyFishersProgress(t *testing.T) {
	tbl := mkLarger(t)
	var calls [][2]int
	_, err := ApplyFishers(
		context.Background(), tbl, 0, 1,
		WithNumWorkers(1),
		WithProgressInterval(10),
		WithProgress(func(done, total int) {
			calls = append(calls, [2]int{done, total})
		}),
	)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, 30*17, last[0])
	assert.Equal(t, 30*17, last[1])
	for i := 1; i < len(calls); i++ {
		assert.Greater(t, calls[i][0], calls[i-1][0])
	}
}

func TestApplyFishersZeroRow(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"X", "Y"}, []string{"P", "Q"}, [][]float64{{0, 0}, {3, 4}})
	require.NoError(t, err)
	res, err := ApplyFishers(context.Background(), tbl, 0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.OddsRatios.At(0, 0)))
	assert.False(t, math.IsNaN(res.Scores.At(1, 1)))
}
