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

package rdb

import (
	"encoding/json"
	"errors"
	"testing"

	"collassoc/merror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyResult struct {
	Value int   `json:"value"`
	Error error `json:"-"`
}

func (res dummyResult) Err() error {
	return res.Error
}

func (res dummyResult) Type() ResultType {
	return ResultTypeDeltaP
}

func (res dummyResult) MarshalJSON() ([]byte, error) {
	var errStr string
	if res.Error != nil {
		errStr = res.Error.Error()
	}
	return json.Marshal(struct {
		Value int    `json:"value"`
		Error string `json:"error,omitempty"`
	}{res.Value, errStr})
}

func TestQueryRoundTrip(t *testing.T) {
	q := Query{
		Channel: "collassocResults:1234",
		Func:    FuncFishers,
		Args:    json.RawMessage(`{"sampleAxis":0,"featureAxis":1}`),
	}
	s, err := q.ToJSON()
	require.NoError(t, err)
	q2, err := DecodeQuery(s)
	require.NoError(t, err)
	assert.Equal(t, q.Channel, q2.Channel)
	assert.Equal(t, q.Func, q2.Func)
	assert.JSONEq(t, string(q.Args), string(q2.Args))
}

func TestDecodeInvalidQuery(t *testing.T) {
	_, err := DecodeQuery("{foo")
	assert.Error(t, err)
}

func TestConfDefaults(t *testing.T) {
	conf := &Conf{Host: "localhost"}
	require.NoError(t, conf.ValidateAndDefaults())
	assert.Equal(t, 6379, conf.Port)
	assert.Equal(t, DefaultQueryChannel, conf.ChannelQuery)
	assert.Equal(t, DefaultResultChannelPrefix, conf.ChannelResultPrefix)
	assert.Equal(t, 300, conf.QueryAnswerTimeoutSecs)
}

func TestConfMissingHost(t *testing.T) {
	assert.Error(t, (&Conf{}).ValidateAndDefaults())
	var conf *Conf
	assert.Error(t, conf.ValidateAndDefaults())
}

func TestCreateWorkerResultOK(t *testing.T) {
	wr, err := CreateWorkerResult(dummyResult{Value: 7})
	require.NoError(t, err)
	assert.Equal(t, ResultTypeDeltaP, wr.ResultType)
	assert.False(t, wr.HasUserError)
	assert.JSONEq(t, `{"value":7}`, string(wr.Value))
	assert.NoError(t, wr.Error())
}

func TestCreateWorkerResultUserError(t *testing.T) {
	wr, err := CreateWorkerResult(dummyResult{Error: merror.InputError{Msg: "bad axes"}})
	require.NoError(t, err)
	assert.True(t, wr.HasUserError)
	var inpErr merror.InputError
	assert.ErrorAs(t, wr.Error(), &inpErr)
	assert.Equal(t, "bad axes", inpErr.Error())
}

func TestCreateWorkerResultInternalError(t *testing.T) {
	wr, err := CreateWorkerResult(dummyResult{Error: errors.New("disk full")})
	require.NoError(t, err)
	assert.False(t, wr.HasUserError)
	var intErr merror.InternalError
	assert.ErrorAs(t, wr.Error(), &intErr)
	assert.False(t, merror.IsUserError(wr.Error()))
}

func TestErrorResultClassification(t *testing.T) {
	wr, err := CreateWorkerResult(ErrorResult{Func: FuncFishers, Error: "timeout", IsTimeout: true})
	require.NoError(t, err)
	assert.Equal(t, ResultTypeError, wr.ResultType)
	var tErr merror.TimeoutError
	assert.ErrorAs(t, wr.Error(), &tErr)

	wr, err = CreateWorkerResult(ErrorResult{Func: "foo", Error: "unknown function"})
	require.NoError(t, err)
	var intErr merror.InternalError
	assert.ErrorAs(t, wr.Error(), &intErr)
}

func TestWorkerResultEnvelopeRoundTrip(t *testing.T) {
	wr, err := CreateWorkerResult(dummyResult{Value: 3})
	require.NoError(t, err)
	wr.ID = "w1"
	data, err := json.Marshal(wr)
	require.NoError(t, err)
	var wr2 WorkerResult
	require.NoError(t, json.Unmarshal(data, &wr2))
	assert.Equal(t, "w1", wr2.ID)
	assert.Equal(t, ResultTypeDeltaP, wr2.ResultType)
	assert.JSONEq(t, string(wr.Value), string(wr2.Value))
}

func TestJobLog(t *testing.T) {
	jl := JobLog{Func: FuncDeltaP}
	assert.False(t, jl.HasError())
	jl.Error = "failed"
	assert.True(t, jl.HasError())
}
