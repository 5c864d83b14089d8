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

package results

import (
	"errors"
	"math"
	"testing"

	"collassoc/assoc"
	"collassoc/matrix"
	"collassoc/merror"
	"collassoc/rdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkScores(t *testing.T) *matrix.Table {
	tbl, err := matrix.FromRows(
		[]string{"s1", "s2"},
		[]string{"f1", "f2"},
		[][]float64{{4.5, math.Inf(-1)}, {math.NaN(), -0.25}},
	)
	require.NoError(t, err)
	return tbl
}

func TestFishersEnvelopeRoundTrip(t *testing.T) {
	scores := mkScores(t)
	res := &Fishers{
		Scores:       scores,
		OddsRatios:   scores.Clone(),
		Summary:      assoc.Summarize(scores),
		LogTransform: true,
		Signed:       true,
	}
	wr, err := rdb.CreateWorkerResult(res)
	require.NoError(t, err)
	assert.Equal(t, rdb.ResultTypeFishers, wr.ResultType)
	assert.NoError(t, wr.Error())

	res2, err := DeserializeFishersResult(wr)
	require.NoError(t, err)
	assert.True(t, scores.Equal(res2.Scores))
	assert.True(t, scores.Equal(res2.OddsRatios))
	assert.Equal(t, res.Summary, res2.Summary)
	assert.True(t, res2.LogTransform)
	assert.True(t, res2.Signed)
	assert.NoError(t, res2.Err())
}

func TestFishersUserError(t *testing.T) {
	res := &Fishers{Error: &assoc.InvalidAxisError{SampleAxis: 2, FeatureAxis: 1}}
	wr, err := rdb.CreateWorkerResult(res)
	require.NoError(t, err)
	assert.True(t, wr.HasUserError)
	assert.True(t, merror.IsUserError(wr.Error()))
	res2, err := DeserializeFishersResult(wr)
	require.NoError(t, err)
	assert.Nil(t, res2.Scores)
	assert.Error(t, res2.Err())
}

func TestDeltaPEnvelopeRoundTrip(t *testing.T) {
	scores := mkScores(t)
	wr, err := rdb.CreateWorkerResult(&DeltaP{Scores: scores, Summary: assoc.Summarize(scores)})
	require.NoError(t, err)
	res, err := DeserializeDeltaPResult(wr)
	require.NoError(t, err)
	assert.True(t, scores.Equal(res.Scores))
	assert.Equal(t, 2, res.Summary.NumFinite)
}

func TestContingencyEnvelopeRoundTrip(t *testing.T) {
	tbl, err := matrix.FromRows(
		[]string{"s1", "s2"},
		[]string{"f1", "f2"},
		[][]float64{{10, 0}, {0, 10}},
	)
	require.NoError(t, err)
	quads, err := assoc.ContingencyTable(tbl, assoc.AxisRows, assoc.AxisCols)
	require.NoError(t, err)
	wr, err := rdb.CreateWorkerResult(&Contingency{Quadrants: quads})
	require.NoError(t, err)
	res, err := DeserializeContingencyResult(wr)
	require.NoError(t, err)
	require.NotNil(t, res.Quadrants)
	assert.True(t, quads.A.Equal(res.Quadrants.A))
	assert.True(t, quads.E.Equal(res.Quadrants.E))
	assert.Equal(t, 20.0, res.Quadrants.Total)
}

func TestContingencyInternalError(t *testing.T) {
	wr, err := rdb.CreateWorkerResult(&Contingency{Error: errors.New("out of memory")})
	require.NoError(t, err)
	assert.False(t, wr.HasUserError)
	res, err := DeserializeContingencyResult(wr)
	require.NoError(t, err)
	assert.Nil(t, res.Quadrants)
	assert.EqualError(t, res.Err(), "out of memory")
}

func TestDeserializeWrongType(t *testing.T) {
	wr, err := rdb.CreateWorkerResult(&DeltaP{Scores: mkScores(t)})
	require.NoError(t, err)
	_, err = DeserializeFishersResult(wr)
	assert.Error(t, err)
	_, err = DeserializeContingencyResult(wr)
	assert.Error(t, err)
}
