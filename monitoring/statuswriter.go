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
	"errors"

	"collassoc/rdb"

	"github.com/rs/zerolog/log"
)

// StatusWriter receives records of all the processed jobs
type StatusWriter interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Write(rec rdb.JobLog)
}

// ---------------------------

type NullStatusWriter struct{}

func (n *NullStatusWriter) Start(ctx context.Context) {}

func (n *NullStatusWriter) Stop(ctx context.Context) error { return nil }

func (n *NullStatusWriter) Write(rec rdb.JobLog) {}

// ---------------------------

type jobLogStore interface {
	LogJob(rec rdb.JobLog) error
}

// RedisStatusWriter stores job records into a capped Redis list
// so API servers can report recent jobs of all the workers.
type RedisStatusWriter struct {
	store jobLogStore
}

func (rw *RedisStatusWriter) Start(ctx context.Context) {}

func (rw *RedisStatusWriter) Stop(ctx context.Context) error {
	return nil
}

func (rw *RedisStatusWriter) Write(rec rdb.JobLog) {
	if err := rw.store.LogJob(rec); err != nil {
		log.Error().Err(err).Str("func", rec.Func).Msg("failed to write job log to Redis")
	}
}

func NewRedisStatusWriter(store jobLogStore) *RedisStatusWriter {
	return &RedisStatusWriter{store: store}
}

// ---------------------------

// MultiStatusWriter passes records to all the wrapped writers
type MultiStatusWriter struct {
	writers []StatusWriter
}

func (mw *MultiStatusWriter) Start(ctx context.Context) {
	for _, w := range mw.writers {
		w.Start(ctx)
	}
}

func (mw *MultiStatusWriter) Stop(ctx context.Context) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (mw *MultiStatusWriter) Write(rec rdb.JobLog) {
	for _, w := range mw.writers {
		w.Write(rec)
	}
}

func NewMultiStatusWriter(writers ...StatusWriter) *MultiStatusWriter {
	return &MultiStatusWriter{writers: writers}
}
