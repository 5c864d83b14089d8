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
	"fmt"
	"net/http"
	"strconv"

	"collassoc/monitoring"
	"collassoc/rdb"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

const (
	defaultNumRecentJobs = 100
)

type timeSpan string

func (ts timeSpan) Validate() error {
	if ts != spanTypeRecent && ts != spanTypeTotal {
		return fmt.Errorf("unknown time span `%s`", ts)
	}
	return nil
}

func (ts timeSpan) numRecords() int {
	if ts == spanTypeTotal {
		return rdb.DefaultJobLogSize
	}
	return defaultNumRecentJobs
}

const (
	spanTypeRecent timeSpan = "recent"
	spanTypeTotal  timeSpan = "total"
)

type jobLogReader interface {
	RecentJobs(limit int) ([]rdb.JobLog, error)
}

// Actions report jobs processed by all the workers
// connected to the same Redis instance
type Actions struct {
	reader jobLogReader
}

func (a *Actions) WorkersLoad(ctx *gin.Context) {
	span := timeSpan(ctx.DefaultQuery("span", "recent"))
	if err := span.Validate(); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	records, err := a.reader.RecentJobs(span.numRecords())
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, monitoring.LoadFromRecords(records, ""))
}

func (a *Actions) SingleWorkerLoad(ctx *gin.Context) {
	span := timeSpan(ctx.DefaultQuery("span", "recent"))
	if err := span.Validate(); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	workerID := ctx.Param("workerId")
	records, err := a.reader.RecentJobs(span.numRecords())
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	ans := monitoring.LoadFromRecords(records, workerID)
	if ans.NumJobs == 0 {
		uniresp.RespondWithErrorJSON(ctx, monitoring.ErrWorkerNotFound, http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (a *Actions) RecentJobs(ctx *gin.Context) {
	limit := defaultNumRecentJobs
	if v := ctx.Query("limit"); v != "" {
		var err error
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > rdb.DefaultJobLogSize {
			uniresp.RespondWithErrorJSON(
				ctx,
				fmt.Errorf("limit must be a number between 1 and %d", rdb.DefaultJobLogSize),
				http.StatusBadRequest,
			)
			return
		}
	}
	records, err := a.reader.RecentJobs(limit)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(
		ctx.Writer,
		map[string]any{
			"jobs": records,
			"load": monitoring.LoadFromRecords(records, ""),
		},
	)
}

func NewActions(reader jobLogReader) *Actions {
	return &Actions{reader: reader}
}
