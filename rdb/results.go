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
	"fmt"
	"time"

	"collassoc/matrix"
	"collassoc/merror"
)

const (
	FuncFishers     = "fishers"
	FuncDeltaP      = "deltaP"
	FuncContingency = "contingency"
)

const (
	ResultTypeFishers     ResultType = "fishers"
	ResultTypeDeltaP      ResultType = "deltaP"
	ResultTypeContingency ResultType = "contingency"
	ResultTypeError       ResultType = "error"
)

type ResultType string

func (rt ResultType) String() string {
	return string(rt)
}

// ----------------

// FishersArgs are arguments of the `fishers` function
type FishersArgs struct {
	Matrix       *matrix.Table `json:"matrix"`
	SampleAxis   int           `json:"sampleAxis"`
	FeatureAxis  int           `json:"featureAxis"`
	LogTransform bool          `json:"logTransform"`
	Signed       bool          `json:"signed"`
}

// DeltaPArgs are arguments of the `deltaP` function
type DeltaPArgs struct {
	Matrix      *matrix.Table `json:"matrix"`
	SampleAxis  int           `json:"sampleAxis"`
	FeatureAxis int           `json:"featureAxis"`
}

// ContingencyArgs are arguments of the `contingency` function
type ContingencyArgs struct {
	Matrix      *matrix.Table `json:"matrix"`
	SampleAxis  int           `json:"sampleAxis"`
	FeatureAxis int           `json:"featureAxis"`
}

// ----------------

// FuncResult is implemented by all the values
// a worker can produce
type FuncResult interface {
	Err() error
	Type() ResultType
}

// ErrorResult is a general result type produced in case
// a function cannot be processed at all (unknown function,
// panic, timeout)
type ErrorResult struct {
	Func      string `json:"func"`
	Error     string `json:"error"`
	IsTimeout bool   `json:"isTimeout,omitempty"`
}

func (res ErrorResult) Err() error {
	if res.IsTimeout {
		return merror.TimeoutError{Msg: res.Error}
	}
	return merror.InternalError{Msg: res.Error}
}

func (res ErrorResult) Type() ResultType {
	return ResultTypeError
}

// WorkerResult is a type-tagged envelope of a function result
// as passed between a worker and an API server.
type WorkerResult struct {
	ID           string          `json:"id"`
	ResultType   ResultType      `json:"resultType"`
	Value        json.RawMessage `json:"value"`
	HasUserError bool            `json:"hasUserError"`
	ProcBegin    time.Time       `json:"procBegin"`
	ProcEnd      time.Time       `json:"procEnd"`
}

// Error returns an error stored in the result. Errors
// of typed results are classified based on the HasUserError flag.
func (wr *WorkerResult) Error() error {
	if wr.ResultType == ResultTypeError {
		var er ErrorResult
		if err := json.Unmarshal(wr.Value, &er); err != nil {
			return merror.InternalError{Msg: fmt.Sprintf("failed to decode error result: %s", err)}
		}
		if wr.HasUserError {
			return merror.InputError{Msg: er.Error}
		}
		return er.Err()
	}
	var tmp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(wr.Value, &tmp); err != nil {
		return merror.InternalError{Msg: fmt.Sprintf("failed to decode result: %s", err)}
	}
	if tmp.Error == "" {
		return nil
	}
	if wr.HasUserError {
		return merror.InputError{Msg: tmp.Error}
	}
	return merror.InternalError{Msg: tmp.Error}
}

// CreateWorkerResult wraps a function result into an envelope.
func CreateWorkerResult(res FuncResult) (*WorkerResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s result: %w", res.Type(), err)
	}
	return &WorkerResult{
		ResultType:   res.Type(),
		Value:        data,
		HasUserError: merror.IsUserError(res.Err()),
	}, nil
}

// ----------------

// JobLog describes a single processed job
type JobLog struct {
	WorkerID string    `json:"workerId"`
	Func     string    `json:"func"`
	Begin    time.Time `json:"begin"`
	End      time.Time `json:"end"`
	Error    string    `json:"error,omitempty"`
	CacheHit bool      `json:"cacheHit,omitempty"`
}

func (jl JobLog) HasError() bool {
	return jl.Error != ""
}

func (jl JobLog) TimeSpent() time.Duration {
	return jl.End.Sub(jl.Begin)
}
