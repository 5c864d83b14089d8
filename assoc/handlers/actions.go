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

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"collassoc/assoc"
	"collassoc/matrix"
	"collassoc/merror"
	"collassoc/rdb"
	"collassoc/rdb/results"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type queryPublisher interface {
	PublishQuery(query rdb.Query) (<-chan rdb.WorkerResult, error)
}

// scoringRequest is a common body of all the scoring endpoints.
// The matrix is decoded separately so we can tell a malformed
// matrix from a malformed request.
type scoringRequest struct {
	Matrix       json.RawMessage `json:"matrix"`
	SampleAxis   *int            `json:"sampleAxis"`
	FeatureAxis  *int            `json:"featureAxis"`
	LogTransform *bool           `json:"logTransform"`
	Signed       *bool           `json:"signed"`
}

func (req scoringRequest) axes() (int, int) {
	sampleAxis, featureAxis := assoc.AxisRows, assoc.AxisCols
	if req.SampleAxis != nil {
		sampleAxis = *req.SampleAxis
	}
	if req.FeatureAxis != nil {
		featureAxis = *req.FeatureAxis
	}
	return sampleAxis, featureAxis
}

func boolOrDefault(v *bool, dflt bool) bool {
	if v == nil {
		return dflt
	}
	return *v
}

type Actions struct {
	radapter queryPublisher
}

// parseRequest decodes and validates the request body. In case
// of an error, a proper response is written and false is returned.
func (a *Actions) parseRequest(ctx *gin.Context) (scoringRequest, *matrix.Table, bool) {
	var req scoringRequest
	if err := json.NewDecoder(ctx.Request.Body).Decode(&req); err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("failed to parse request: %s", err),
			http.StatusBadRequest,
		)
		return req, nil, false
	}
	if err := assoc.ValidateAxes(req.axes()); err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusBadRequest,
		)
		return req, nil, false
	}
	if len(req.Matrix) == 0 || string(req.Matrix) == "null" {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("missing matrix"),
			http.StatusUnprocessableEntity,
		)
		return req, nil, false
	}
	var tbl matrix.Table
	if err := json.Unmarshal(req.Matrix, &tbl); err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("invalid matrix: %s", err),
			http.StatusUnprocessableEntity,
		)
		return req, nil, false
	}
	if err := tbl.ValidateCounts(); err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusUnprocessableEntity,
		)
		return req, nil, false
	}
	return req, &tbl, true
}

func errorStatus(err error) int {
	var tErr merror.TimeoutError
	if errors.As(err, &tErr) {
		return http.StatusGatewayTimeout
	}
	if merror.IsUserError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// runQuery passes the query to a worker and waits for the result.
// In case of an error, a proper response is written and nil
// is returned.
func (a *Actions) runQuery(ctx *gin.Context, fn string, args any) *rdb.WorkerResult {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return nil
	}
	wait, err := a.radapter.PublishQuery(rdb.Query{
		Func: fn,
		Args: rawArgs,
	})
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return nil
	}
	var rawResult rdb.WorkerResult
	select {
	case res, ok := <-wait:
		if !ok {
			uniresp.WriteJSONErrorResponse(
				ctx.Writer,
				uniresp.NewActionError("no result received"),
				http.StatusInternalServerError,
			)
			return nil
		}
		rawResult = res
	case <-ctx.Request.Context().Done():
		log.Warn().Str("func", fn).Msg("client left before the result was available")
		return nil
	}
	if err := rawResult.Error(); err != nil {
		log.Debug().
			Err(err).
			Str("func", fn).
			Str("workerId", rawResult.ID).
			Msg("worker reported an error")
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			errorStatus(err),
		)
		return nil
	}
	return &rawResult
}

func (a *Actions) writeDeserializationError(ctx *gin.Context, err error) {
	uniresp.WriteJSONErrorResponse(
		ctx.Writer,
		uniresp.NewActionError("failed to read worker result: %s", err),
		http.StatusInternalServerError,
	)
}

// Fishers computes Fisher's exact test based association
// strength for each (sample, feature) pair.
func (a *Actions) Fishers(ctx *gin.Context) {
	req, tbl, ok := a.parseRequest(ctx)
	if !ok {
		return
	}
	sampleAxis, featureAxis := req.axes()
	rawResult := a.runQuery(ctx, rdb.FuncFishers, rdb.FishersArgs{
		Matrix:       tbl,
		SampleAxis:   sampleAxis,
		FeatureAxis:  featureAxis,
		LogTransform: boolOrDefault(req.LogTransform, true),
		Signed:       boolOrDefault(req.Signed, true),
	})
	if rawResult == nil {
		return
	}
	result, err := results.DeserializeFishersResult(rawResult)
	if err != nil {
		a.writeDeserializationError(ctx, err)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, &result)
}

func (a *Actions) DeltaP(ctx *gin.Context) {
	req, tbl, ok := a.parseRequest(ctx)
	if !ok {
		return
	}
	sampleAxis, featureAxis := req.axes()
	rawResult := a.runQuery(ctx, rdb.FuncDeltaP, rdb.DeltaPArgs{
		Matrix:      tbl,
		SampleAxis:  sampleAxis,
		FeatureAxis: featureAxis,
	})
	if rawResult == nil {
		return
	}
	result, err := results.DeserializeDeltaPResult(rawResult)
	if err != nil {
		a.writeDeserializationError(ctx, err)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, &result)
}

func (a *Actions) Contingency(ctx *gin.Context) {
	req, tbl, ok := a.parseRequest(ctx)
	if !ok {
		return
	}
	sampleAxis, featureAxis := req.axes()
	rawResult := a.runQuery(ctx, rdb.FuncContingency, rdb.ContingencyArgs{
		Matrix:      tbl,
		SampleAxis:  sampleAxis,
		FeatureAxis: featureAxis,
	})
	if rawResult == nil {
		return
	}
	result, err := results.DeserializeContingencyResult(rawResult)
	if err != nil {
		a.writeDeserializationError(ctx, err)
		return
	}
	if result.Quadrants == nil {
		a.writeDeserializationError(ctx, fmt.Errorf("missing contingency tables"))
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, &result)
}

func NewActions(radapter queryPublisher) *Actions {
	return &Actions{radapter: radapter}
}
