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

package monitoring

import (
	"time"

	"collassoc/rdb"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/collections"
)

// ---

type WorkerLoad struct {
	NumJobs       int
	NumCacheHits  int
	TotalTimeSecs float64
	NumErrors     int
	FirstUpdate   time.Time
	LastUpdate    time.Time
	NumWorkers    int
}

// TotalSpan returns time span covered by the load info
func (wl WorkerLoad) TotalSpan() time.Duration {
	return wl.LastUpdate.Sub(wl.FirstUpdate)
}

// AvgLoad returns the ratio of time spent by processing
// jobs to the covered time span (per worker)
func (wl WorkerLoad) AvgLoad() float64 {
	span := wl.TotalSpan().Seconds()
	if wl.TotalTimeSecs == 0 || span <= 0 || wl.NumWorkers == 0 {
		return 0
	}
	return wl.TotalTimeSecs / span / float64(wl.NumWorkers)
}

func (wl *WorkerLoad) add(rec rdb.JobLog) {
	if wl.NumJobs == 0 || rec.Begin.Before(wl.FirstUpdate) {
		wl.FirstUpdate = rec.Begin
	}
	if rec.End.After(wl.LastUpdate) {
		wl.LastUpdate = rec.End
	}
	wl.NumJobs++
	if rec.HasError() {
		wl.NumErrors++
	}
	if rec.CacheHit {
		wl.NumCacheHits++
	}
	wl.TotalTimeSecs += rec.TimeSpent().Seconds()
}

func (wl WorkerLoad) MarshalJSON() ([]byte, error) {
	var t0, t1 *time.Time
	if !wl.FirstUpdate.IsZero() {
		t0 = &wl.FirstUpdate
	}
	if !wl.LastUpdate.IsZero() {
		t1 = &wl.LastUpdate
	}
	return sonic.Marshal(
		struct {
			NumJobs       int        `json:"numJobs"`
			NumCacheHits  int        `json:"numCacheHits"`
			TotalTimeSecs float64    `json:"totalTimeSecs"`
			NumErrors     int        `json:"numErrors"`
			FirstUpdate   *time.Time `json:"firstUpdate,omitempty"`
			LastUpdate    *time.Time `json:"lastUpdate,omitempty"`
			NumWorkers    int        `json:"numWorkers"`
			AvgLoad       float64    `json:"avgLoad"`
		}{
			NumJobs:       wl.NumJobs,
			NumCacheHits:  wl.NumCacheHits,
			TotalTimeSecs: wl.TotalTimeSecs,
			NumErrors:     wl.NumErrors,
			FirstUpdate:   t0,
			LastUpdate:    t1,
			NumWorkers:    wl.NumWorkers,
			AvgLoad:       wl.AvgLoad(),
		},
	)
}

// LoadFromRecords aggregates job records (in any order)
// into a single load info. If workerID is not empty,
// only records of the worker are used.
func LoadFromRecords(records []rdb.JobLog, workerID string) WorkerLoad {
	var ans WorkerLoad
	workers := collections.NewSet[string]()
	for _, rec := range records {
		if workerID != "" && rec.WorkerID != workerID {
			continue
		}
		workers.Add(rec.WorkerID)
		ans.add(rec)
	}
	ans.NumWorkers = workers.Size()
	return ans
}

// ---

// WorkersLoad maps worker IDs to their loads
type WorkersLoad map[string]WorkerLoad

// SumLoad aggregates loads of all the workers
func (wl WorkersLoad) SumLoad(tz *time.Location) WorkerLoad {
	var ans WorkerLoad
	for _, v := range wl {
		if ans.FirstUpdate.IsZero() || v.FirstUpdate.Before(ans.FirstUpdate) {
			ans.FirstUpdate = v.FirstUpdate
		}
		if v.LastUpdate.After(ans.LastUpdate) {
			ans.LastUpdate = v.LastUpdate
		}
		ans.NumJobs += v.NumJobs
		ans.NumErrors += v.NumErrors
		ans.NumCacheHits += v.NumCacheHits
		ans.TotalTimeSecs += v.TotalTimeSecs
		ans.NumWorkers++
	}
	if !ans.FirstUpdate.IsZero() {
		ans.FirstUpdate = ans.FirstUpdate.In(tz)
		ans.LastUpdate = ans.LastUpdate.In(tz)
	}
	return ans
}

// cleanOldRecords removes workers with no activity
// within StaleWorkerLoadTTL
func (wl WorkersLoad) cleanOldRecords(now time.Time) {
	for k, v := range wl {
		if now.Sub(v.LastUpdate) > StaleWorkerLoadTTL {
			delete(wl, k)
		}
	}
}
