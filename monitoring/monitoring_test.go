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
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"collassoc/rdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	records []rdb.JobLog
	stopErr error
}

func (rw *recordingWriter) Start(ctx context.Context) {}

func (rw *recordingWriter) Stop(ctx context.Context) error {
	return rw.stopErr
}

func (rw *recordingWriter) Write(rec rdb.JobLog) {
	rw.records = append(rw.records, rec)
}

type failingStore struct {
	calls int
}

func (fs *failingStore) LogJob(rec rdb.JobLog) error {
	fs.calls++
	return errors.New("connection refused")
}

func mkRecord(worker string, begin time.Time, dur time.Duration, err string) rdb.JobLog {
	return rdb.JobLog{
		WorkerID: worker,
		Func:     rdb.FuncFishers,
		Begin:    begin,
		End:      begin.Add(dur),
		Error:    err,
	}
}

func TestWorkerJobLoggerLoads(t *testing.T) {
	writer := &recordingWriter{}
	logger := NewWorkerJobLogger(writer, time.UTC)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	logger.Log(mkRecord("w1", t0, 2*time.Second, ""))
	logger.Log(mkRecord("w2", t0.Add(time.Second), 3*time.Second, "failed"))
	rec := mkRecord("w1", t0.Add(5*time.Second), 5*time.Second, "")
	rec.CacheHit = true
	logger.Log(rec)

	assert.Len(t, writer.records, 3)

	total := logger.TotalLoad()
	assert.Equal(t, 3, total.NumJobs)
	assert.Equal(t, 1, total.NumErrors)
	assert.Equal(t, 1, total.NumCacheHits)
	assert.Equal(t, 2, total.NumWorkers)
	assert.InDelta(t, 10.0, total.TotalTimeSecs, 1e-9)
	assert.Equal(t, t0, total.FirstUpdate)
	assert.Equal(t, t0.Add(10*time.Second), total.LastUpdate)
	assert.InDelta(t, 0.5, total.AvgLoad(), 1e-9)

	w1, err := logger.TotalWorkerLoad("w1")
	require.NoError(t, err)
	assert.Equal(t, 2, w1.NumJobs)
	assert.Equal(t, 1, w1.NumWorkers)

	_, err = logger.TotalWorkerLoad("w3")
	assert.ErrorIs(t, err, ErrWorkerNotFound)

	recent := logger.RecentLoad()
	assert.Equal(t, total.NumJobs, recent.NumJobs)
	assert.Equal(t, 2, recent.NumWorkers)

	w2, err := logger.RecentWorkerLoad("w2")
	require.NoError(t, err)
	assert.Equal(t, 1, w2.NumErrors)
	_, err = logger.RecentWorkerLoad("w3")
	assert.ErrorIs(t, err, ErrWorkerNotFound)
}

func TestRecentRecordsCapped(t *testing.T) {
	logger := NewWorkerJobLogger(nil, time.UTC)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range recentLogSize + 20 {
		logger.Log(mkRecord("w1", t0.Add(time.Duration(i)*time.Second), time.Second, ""))
	}
	recs := logger.RecentRecords()
	assert.Len(t, recs, recentLogSize)
	total := logger.TotalLoad()
	assert.Equal(t, recentLogSize+20, total.NumJobs)
}

func TestCleanOldRecords(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	wl := WorkersLoad{
		"w1": {NumJobs: 1, LastUpdate: now.Add(-time.Hour)},
		"w2": {NumJobs: 1, LastUpdate: now.Add(-48 * time.Hour)},
	}
	wl.cleanOldRecords(now)
	assert.Len(t, wl, 1)
	_, ok := wl["w1"]
	assert.True(t, ok)
}

func TestAvgLoadEmpty(t *testing.T) {
	var wl WorkerLoad
	assert.Equal(t, 0.0, wl.AvgLoad())
}

func TestWorkerLoadJSON(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	wl := LoadFromRecords([]rdb.JobLog{mkRecord("w1", t0, 4*time.Second, "")}, "")
	data, err := json.Marshal(wl)
	require.NoError(t, err)
	var tmp map[string]any
	require.NoError(t, json.Unmarshal(data, &tmp))
	assert.Equal(t, 1.0, tmp["numJobs"])
	assert.Equal(t, 1.0, tmp["numWorkers"])
	assert.Equal(t, 1.0, tmp["avgLoad"])
	assert.Contains(t, tmp, "firstUpdate")

	data, err = json.Marshal(WorkerLoad{})
	require.NoError(t, err)
	tmp = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &tmp))
	assert.NotContains(t, tmp, "firstUpdate")
}

func TestMultiStatusWriter(t *testing.T) {
	w1 := &recordingWriter{}
	w2 := &recordingWriter{stopErr: errors.New("stop failed")}
	store := &failingStore{}
	mw := NewMultiStatusWriter(w1, w2, NewRedisStatusWriter(store), &NullStatusWriter{})
	mw.Start(context.Background())
	mw.Write(mkRecord("w1", time.Now(), time.Second, ""))
	assert.Len(t, w1.records, 1)
	assert.Len(t, w2.records, 1)
	assert.Equal(t, 1, store.calls)
	assert.Error(t, mw.Stop(context.Background()))
}
