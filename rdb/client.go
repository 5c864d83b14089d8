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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	MsgNewQuery                = "newQuery"
	DefaultQueueKey            = "collassocQueue"
	DefaultResultChannelPrefix = "collassocResults"
	DefaultQueryChannel        = "collassocQueries"
	DefaultJobLogKey           = "collassocJobLog"
	DefaultResultExpiration    = 10 * time.Minute
	DefaultQueryAnswerTimeout  = 5 * time.Minute
	DefaultJobLogSize          = 1000

	connectionTestInterval = 2 * time.Second
)

var (
	ErrorEmptyQueue = errors.New("no query in the queue")
)

// Conf configures the Redis connection and the names
// of the keys and channels used to pass queries and results.
type Conf struct {
	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	DB                     int    `json:"db"`
	Password               string `json:"password"`
	ChannelQuery           string `json:"channelQuery"`
	ChannelResultPrefix    string `json:"channelResultPrefix"`
	QueryAnswerTimeoutSecs int    `json:"queryAnswerTimeoutSecs"`
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf == nil {
		return fmt.Errorf("missing `redis` section")
	}
	if conf.Host == "" {
		return fmt.Errorf("missing Redis host")
	}
	if conf.Port == 0 {
		conf.Port = 6379
		log.Warn().Int("port", conf.Port).Msg("Redis port not specified, using default")
	}
	if conf.ChannelResultPrefix == "" {
		conf.ChannelResultPrefix = DefaultResultChannelPrefix
		log.Warn().
			Str("channel", conf.ChannelResultPrefix).
			Msg("Redis channel for results not specified, using default")
	}
	if conf.ChannelQuery == "" {
		conf.ChannelQuery = DefaultQueryChannel
		log.Warn().
			Str("channel", conf.ChannelQuery).
			Msg("Redis channel for queries not specified, using default")
	}
	if conf.QueryAnswerTimeoutSecs == 0 {
		conf.QueryAnswerTimeoutSecs = int(DefaultQueryAnswerTimeout.Seconds())
		log.Warn().
			Int("timeoutSecs", conf.QueryAnswerTimeoutSecs).
			Msg("queryAnswerTimeoutSecs not specified, using default")
	}
	return nil
}

// ----------------

type Query struct {
	Channel string          `json:"channel"`
	Func    string          `json:"func"`
	Args    json.RawMessage `json:"args"`
}

func (q Query) ToJSON() (string, error) {
	ans, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(ans), nil
}

func DecodeQuery(q string) (Query, error) {
	var ans Query
	err := json.Unmarshal([]byte(q), &ans)
	return ans, err
}

// ----------------

// Adapter passes queries from API servers to workers and results
// back from workers to API servers. Queries are stored in a Redis
// list; workers are notified via a pub/sub channel. Each query
// gets its own result channel and result key.
type Adapter struct {
	ctx                 context.Context
	c                   *redis.Client
	channelQuery        string
	channelResultPrefix string
	queryAnswerTimeout  time.Duration
}

// TestConnection pings Redis until it responds or
// the timeout is reached.
func (a *Adapter) TestConnection(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(a.ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(connectionTestInterval)
	defer ticker.Stop()
	for {
		err := a.c.Ping(ctx).Err()
		if err == nil {
			log.Info().Str("addr", a.c.Options().Addr).Msg("Redis connection OK")
			return nil
		}
		log.Warn().Err(err).Msg("Redis not available yet, will try again")
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to Redis: %w", err)
		case <-ticker.C:
		}
	}
}

func (a *Adapter) SomeoneListens(query Query) (bool, error) {
	cmd := a.c.PubSubNumSub(a.ctx, query.Channel)
	if cmd.Err() != nil {
		return false, fmt.Errorf("failed to check channel listeners: %w", cmd.Err())
	}
	return cmd.Val()[query.Channel] > 0, nil
}

func (a *Adapter) timeoutResult(query Query) WorkerResult {
	data, _ := json.Marshal(ErrorResult{
		Func:      query.Func,
		Error:     fmt.Sprintf("no result within %s", a.queryAnswerTimeout),
		IsTimeout: true,
	})
	return WorkerResult{ResultType: ResultTypeError, Value: data}
}

func errorResult(query Query, err error) WorkerResult {
	data, _ := json.Marshal(ErrorResult{Func: query.Func, Error: err.Error()})
	return WorkerResult{ResultType: ResultTypeError, Value: data}
}

// PublishQuery enqueues a new query and returns a channel
// the result will be sent to. Once the query is enqueued, the call
// succeeds even if the workers cannot be notified about it.
func (a *Adapter) PublishQuery(query Query) (<-chan WorkerResult, error) {
	query.Channel = fmt.Sprintf("%s:%s", a.channelResultPrefix, uuid.New().String())
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		Msg("publishing query")

	msg, err := query.ToJSON()
	if err != nil {
		return nil, err
	}
	// we must subscribe before the query is enqueued, otherwise
	// a worker may consider the query inactive
	sub := a.c.Subscribe(a.ctx, query.Channel)
	if _, err := sub.Receive(a.ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to result channel: %w", err)
	}
	if err := a.c.LPush(a.ctx, DefaultQueueKey, msg).Err(); err != nil {
		sub.Close()
		return nil, err
	}
	ans := make(chan WorkerResult, 1)
	go func() {
		defer close(ans)
		defer sub.Close()
		select {
		case item := <-sub.Channel():
			cmd := a.c.Get(a.ctx, item.Payload)
			if cmd.Err() != nil {
				ans <- errorResult(query, cmd.Err())
				return
			}
			var result WorkerResult
			if err := json.Unmarshal([]byte(cmd.Val()), &result); err != nil {
				ans <- errorResult(query, err)
				return
			}
			ans <- result
		case <-time.After(a.queryAnswerTimeout):
			ans <- a.timeoutResult(query)
		case <-a.ctx.Done():
			ans <- errorResult(query, a.ctx.Err())
		}
	}()
	if err := a.c.Publish(a.ctx, a.channelQuery, MsgNewQuery).Err(); err != nil {
		// the query stays queued, workers poll the queue periodically
		log.Warn().
			Err(err).
			Str("channel", query.Channel).
			Msg("failed to notify workers about a new query")
	}
	return ans, nil
}

// DequeueQuery takes the oldest query from the queue. In case
// the queue is empty, ErrorEmptyQueue is returned.
func (a *Adapter) DequeueQuery() (Query, error) {
	cmd := a.c.RPop(a.ctx, DefaultQueueKey)
	if errors.Is(cmd.Err(), redis.Nil) {
		return Query{}, ErrorEmptyQueue

	} else if cmd.Err() != nil {
		return Query{}, fmt.Errorf("failed to dequeue query: %w", cmd.Err())
	}
	q, err := DecodeQuery(cmd.Val())
	if err != nil {
		return Query{}, fmt.Errorf("failed to deserialize query: %w", err)
	}
	return q, nil
}

// PublishResult stores the result under the channel name key
// and notifies the channel subscriber.
func (a *Adapter) PublishResult(channelName string, value *WorkerResult) error {
	log.Debug().
		Str("channel", channelName).
		Str("resultType", value.ResultType.String()).
		Msg("publishing result")
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := a.c.Set(a.ctx, channelName, string(data), DefaultResultExpiration).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return a.c.Publish(a.ctx, channelName, channelName).Err()
}

// Subscribe returns a channel with notifications about new queries
func (a *Adapter) Subscribe() <-chan *redis.Message {
	sub := a.c.Subscribe(a.ctx, a.channelQuery)
	return sub.Channel()
}

// LogJob stores a job record into a capped list of recent jobs
func (a *Adapter) LogJob(rec JobLog) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize job log: %w", err)
	}
	pipe := a.c.TxPipeline()
	pipe.LPush(a.ctx, DefaultJobLogKey, data)
	pipe.LTrim(a.ctx, DefaultJobLogKey, 0, DefaultJobLogSize-1)
	if _, err := pipe.Exec(a.ctx); err != nil {
		return fmt.Errorf("failed to store job log: %w", err)
	}
	return nil
}

// RecentJobs returns at most `limit` most recent job records
// (the most recent first).
func (a *Adapter) RecentJobs(limit int) ([]JobLog, error) {
	cmd := a.c.LRange(a.ctx, DefaultJobLogKey, 0, int64(limit-1))
	if cmd.Err() != nil {
		return nil, fmt.Errorf("failed to read job log: %w", cmd.Err())
	}
	ans := make([]JobLog, 0, len(cmd.Val()))
	for _, item := range cmd.Val() {
		var rec JobLog
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			log.Warn().Err(err).Msg("skipping invalid job log record")
			continue
		}
		ans = append(ans, rec)
	}
	return ans, nil
}

func (a *Adapter) Close() error {
	return a.c.Close()
}

func NewAdapter(ctx context.Context, conf *Conf) *Adapter {
	return &Adapter{
		c: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ctx:                 ctx,
		channelQuery:        conf.ChannelQuery,
		channelResultPrefix: conf.ChannelResultPrefix,
		queryAnswerTimeout:  time.Duration(conf.QueryAnswerTimeoutSecs) * time.Second,
	}
}
