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

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"collassoc/merror"
	"collassoc/rdb"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTickerInterval = 2 * time.Second
)

type jobLogger interface {
	Log(rec rdb.JobLog)
}

type queryQueue interface {
	DequeueQuery() (rdb.Query, error)
	SomeoneListens(query rdb.Query) (bool, error)
	PublishResult(channelName string, value *rdb.WorkerResult) error
}

type Worker struct {
	ID          string
	conf        *Conf
	messages    <-chan *redis.Message
	radapter    queryQueue
	jobLogger   jobLogger
	resultCache *ResultCache
	done        chan struct{}
}

func (w *Worker) publishResult(res *rdb.WorkerResult, query rdb.Query, jobLog rdb.JobLog) error {
	res.ID = w.ID
	res.ProcBegin = jobLog.Begin
	res.ProcEnd = time.Now()
	jobLog.End = res.ProcEnd
	if err := res.Error(); err != nil {
		jobLog.Error = err.Error()
	}
	w.jobLogger.Log(jobLog)
	return w.radapter.PublishResult(query.Channel, res)
}

// computeResult runs the query function and wraps the result.
// A panic inside the function is turned into merror.RecoveredError.
func (w *Worker) computeResult(ctx context.Context, query rdb.Query) (ans *rdb.WorkerResult, ansErr error) {
	defer func() {
		if r := recover(); r != nil {
			ansErr = merror.PanicValueToErr(r)
		}
	}()
	var res rdb.FuncResult
	switch query.Func {
	case rdb.FuncFishers:
		var args rdb.FishersArgs
		if err := json.Unmarshal(query.Args, &args); err != nil {
			return nil, merror.InputError{Msg: fmt.Sprintf("invalid fishers arguments: %s", err)}
		}
		res = w.fishers(ctx, args)
	case rdb.FuncDeltaP:
		var args rdb.DeltaPArgs
		if err := json.Unmarshal(query.Args, &args); err != nil {
			return nil, merror.InputError{Msg: fmt.Sprintf("invalid deltaP arguments: %s", err)}
		}
		res = w.deltaP(args)
	case rdb.FuncContingency:
		var args rdb.ContingencyArgs
		if err := json.Unmarshal(query.Args, &args); err != nil {
			return nil, merror.InputError{Msg: fmt.Sprintf("invalid contingency arguments: %s", err)}
		}
		res = w.contingency(args)
	default:
		res = rdb.ErrorResult{
			Func:  query.Func,
			Error: fmt.Sprintf("unknown query function: %s", query.Func),
		}
	}
	return rdb.CreateWorkerResult(res)
}

func (w *Worker) errorResult(query rdb.Query, err error) *rdb.WorkerResult {
	ans, cErr := rdb.CreateWorkerResult(
		rdb.ErrorResult{Func: query.Func, Error: err.Error()})
	if cErr != nil {
		// ErrorResult contains only strings so this is not expected
		log.Error().Err(cErr).Msg("failed to create error result")
		return &rdb.WorkerResult{ResultType: rdb.ResultTypeError}
	}
	ans.HasUserError = merror.IsUserError(err)
	return ans
}

func (w *Worker) runQuery(ctx context.Context, query rdb.Query) error {
	jobLog := rdb.JobLog{
		WorkerID: w.ID,
		Func:     query.Func,
		Begin:    time.Now(),
	}
	if cached, ok := w.resultCache.Get(query.Func, query.Args); ok {
		log.Debug().
			Str("func", query.Func).
			Str("channel", query.Channel).
			Msg("result cache hit")
		jobLog.CacheHit = true
		return w.publishResult(cached, query, jobLog)
	}

	ans, err := w.computeResult(ctx, query)
	var rcvErr merror.RecoveredError
	if errors.As(err, &rcvErr) {
		log.Error().
			Err(err).
			Str("func", query.Func).
			Msg("worker panicked")
		ans = w.errorResult(query, fmt.Errorf("worker panicked: %w", err))

	} else if err != nil {
		ans = w.errorResult(query, err)

	} else {
		w.resultCache.Set(query.Func, query.Args, ans)
	}
	if err := w.publishResult(ans, query, jobLog); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

func (w *Worker) tryNextQuery(ctx context.Context) error {
	time.Sleep(time.Duration(rand.Intn(40)) * time.Millisecond)
	query, err := w.radapter.DequeueQuery()
	if err == rdb.ErrorEmptyQueue {
		return nil

	} else if err != nil {
		return err
	}
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		Msg("received query")

	isActive, err := w.radapter.SomeoneListens(query)
	if err != nil {
		return err
	}
	if !isActive {
		log.Warn().
			Str("func", query.Func).
			Str("channel", query.Channel).
			Msg("worker found an inactive query")
		return nil
	}
	return w.runQuery(ctx, query)
}

func (w *Worker) Listen(ctx context.Context) {
	ticker := time.NewTicker(DefaultTickerInterval)
	defer ticker.Stop()
	defer close(w.done)
	for {
		var err error
		select {
		case <-ticker.C:
			err = w.tryNextQuery(ctx)
		case <-ctx.Done():
			log.Info().Str("worker", w.ID).Msg("worker exiting")
			return
		case msg, ok := <-w.messages:
			if !ok {
				log.Warn().Str("worker", w.ID).Msg("query notification channel closed")
				w.messages = nil
				continue
			}
			if msg.Payload == rdb.MsgNewQuery {
				err = w.tryNextQuery(ctx)
			}
		}
		if err != nil {
			log.Error().Err(err).Str("worker", w.ID).Msg("failed to process query")
		}
	}
}

func (w *Worker) Start(ctx context.Context) {
	log.Info().
		Str("worker", w.ID).
		Int("numScoringWorkers", w.conf.NumScoringWorkers).
		Msg("starting worker")
	go w.Listen(ctx)
}

func (w *Worker) Stop(ctx context.Context) error {
	log.Warn().Str("worker", w.ID).Msg("stopping worker")
	select {
	case <-w.done:
		w.resultCache.Close()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s did not finish in time: %w", w.ID, ctx.Err())
	}
}

func NewWorker(
	workerID string,
	conf *Conf,
	radapter queryQueue,
	messages <-chan *redis.Message,
	jobLogger jobLogger,
	resultCache *ResultCache,
) *Worker {
	return &Worker{
		ID:          workerID,
		conf:        conf,
		radapter:    radapter,
		messages:    messages,
		jobLogger:   jobLogger,
		resultCache: resultCache,
		done:        make(chan struct{}),
	}
}
