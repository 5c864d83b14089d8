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
	"encoding/json"
	"errors"
	"fmt"

	"collassoc/assoc"
	"collassoc/matrix"
	"collassoc/rdb"

	"github.com/bytedance/sonic"
)

func errToStr(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}

func strToErr(s string) error {
	if s != "" {
		return errors.New(s)
	}
	return nil
}

func unexpectedType(expected rdb.ResultType, res *rdb.WorkerResult) error {
	return fmt.Errorf(
		"unexpected result type %s (expected %s)", res.ResultType, expected)
}

// ----

type FishersResponse struct {
	Scores       *matrix.Table  `json:"scores"`
	OddsRatios   *matrix.Table  `json:"oddsRatios"`
	Summary      assoc.Summary  `json:"summary"`
	LogTransform bool           `json:"logTransform"`
	Signed       bool           `json:"signed"`
	ResultType   rdb.ResultType `json:"resultType"`
	Error        string         `json:"error,omitempty"`
} // @name Fishers

type Fishers struct {

	// Scores contains association strengths of all
	// the (sample, feature) pairs in the input orientation
	Scores *matrix.Table

	OddsRatios *matrix.Table

	Summary assoc.Summary

	LogTransform bool

	Signed bool

	Error error
}

func (res Fishers) Err() error {
	return res.Error
}

func (res Fishers) Type() rdb.ResultType {
	return rdb.ResultTypeFishers
}

func (res *Fishers) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(FishersResponse{
		Scores:       res.Scores,
		OddsRatios:   res.OddsRatios,
		Summary:      res.Summary,
		LogTransform: res.LogTransform,
		Signed:       res.Signed,
		ResultType:   res.Type(),
		Error:        errToStr(res.Error),
	})
}

func DeserializeFishersResult(res *rdb.WorkerResult) (Fishers, error) {
	if res.ResultType != rdb.ResultTypeFishers {
		return Fishers{}, unexpectedType(rdb.ResultTypeFishers, res)
	}
	var tmp FishersResponse
	if err := json.Unmarshal(res.Value, &tmp); err != nil {
		return Fishers{}, fmt.Errorf("failed to deserialize fishers result: %w", err)
	}
	return Fishers{
		Scores:       tmp.Scores,
		OddsRatios:   tmp.OddsRatios,
		Summary:      tmp.Summary,
		LogTransform: tmp.LogTransform,
		Signed:       tmp.Signed,
		Error:        strToErr(tmp.Error),
	}, nil
}

// ----

type DeltaPResponse struct {
	Scores     *matrix.Table  `json:"scores"`
	Summary    assoc.Summary  `json:"summary"`
	ResultType rdb.ResultType `json:"resultType"`
	Error      string         `json:"error,omitempty"`
} // @name DeltaP

type DeltaP struct {
	Scores  *matrix.Table
	Summary assoc.Summary
	Error   error
}

func (res DeltaP) Err() error {
	return res.Error
}

func (res DeltaP) Type() rdb.ResultType {
	return rdb.ResultTypeDeltaP
}

func (res *DeltaP) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(DeltaPResponse{
		Scores:     res.Scores,
		Summary:    res.Summary,
		ResultType: res.Type(),
		Error:      errToStr(res.Error),
	})
}

func DeserializeDeltaPResult(res *rdb.WorkerResult) (DeltaP, error) {
	if res.ResultType != rdb.ResultTypeDeltaP {
		return DeltaP{}, unexpectedType(rdb.ResultTypeDeltaP, res)
	}
	var tmp DeltaPResponse
	if err := json.Unmarshal(res.Value, &tmp); err != nil {
		return DeltaP{}, fmt.Errorf("failed to deserialize deltaP result: %w", err)
	}
	return DeltaP{
		Scores:  tmp.Scores,
		Summary: tmp.Summary,
		Error:   strToErr(tmp.Error),
	}, nil
}

// ----

type ContingencyResponse struct {
	A          *matrix.Table  `json:"a"`
	B          *matrix.Table  `json:"b"`
	C          *matrix.Table  `json:"c"`
	D          *matrix.Table  `json:"d"`
	E          *matrix.Table  `json:"e"`
	Total      float64        `json:"total"`
	ResultType rdb.ResultType `json:"resultType"`
	Error      string         `json:"error,omitempty"`
} // @name Contingency

// Contingency contains the four quadrants of per-cell
// 2x2 tables plus expected co-occurrence counts
type Contingency struct {
	Quadrants *assoc.Quadrants
	Error     error
}

func (res Contingency) Err() error {
	return res.Error
}

func (res Contingency) Type() rdb.ResultType {
	return rdb.ResultTypeContingency
}

func (res *Contingency) MarshalJSON() ([]byte, error) {
	ans := ContingencyResponse{
		ResultType: res.Type(),
		Error:      errToStr(res.Error),
	}
	if res.Quadrants != nil {
		ans.A = res.Quadrants.A
		ans.B = res.Quadrants.B
		ans.C = res.Quadrants.C
		ans.D = res.Quadrants.D
		ans.E = res.Quadrants.E
		ans.Total = res.Quadrants.Total
	}
	return sonic.Marshal(ans)
}

func DeserializeContingencyResult(res *rdb.WorkerResult) (Contingency, error) {
	if res.ResultType != rdb.ResultTypeContingency {
		return Contingency{}, unexpectedType(rdb.ResultTypeContingency, res)
	}
	var tmp ContingencyResponse
	if err := json.Unmarshal(res.Value, &tmp); err != nil {
		return Contingency{}, fmt.Errorf("failed to deserialize contingency result: %w", err)
	}
	ans := Contingency{Error: strToErr(tmp.Error)}
	if tmp.A != nil {
		ans.Quadrants = &assoc.Quadrants{
			A:     tmp.A,
			B:     tmp.B,
			C:     tmp.C,
			D:     tmp.D,
			E:     tmp.E,
			Total: tmp.Total,
		}
	}
	return ans, nil
}
