// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of CXPARSE.
//
//  CXPARSE is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  CXPARSE is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with CXPARSE.  If not, see <https://www.gnu.org/licenses/>.

package rdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cxparse/merror"
	"cxparse/results"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	MsgNewQuery                = "newQuery"
	DefaultQueueKey            = "cxparseQueue"
	DefaultResultChannelPrefix = "cxparseResults"
	DefaultQueryChannel        = "cxparseQueries"
	DefaultResultExpiration    = 10 * time.Minute
	DefaultQueryAnswerTimeout  = 60 * time.Second
)

var (
	ErrorEmptyQueue = errors.New("no queries in the queue")
)

type Conf struct {
	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	DB                     int    `json:"db"`
	Password               string `json:"password"`
	ChannelQuery           string `json:"channelQuery"`
	ChannelResultPrefix    string `json:"channelResultPrefix"`
	QueryAnswerTimeoutSecs int    `json:"queryAnswerTimeoutSecs"`

	// CachePath, if set, enables caching of results in files
	CachePath string `json:"cachePath"`
}

func (conf *Conf) IsConfigured() bool {
	return conf != nil && conf.Host != ""
}

type Query struct {
	Channel string          `json:"channel"`
	Func    string          `json:"func"`
	Args    json.RawMessage `json:"args"`
}

func (q Query) ToJSON() (string, error) {
	return sonic.MarshalString(q)
}

func DecodeQuery(q string) (Query, error) {
	var ans Query
	err := sonic.UnmarshalString(q, &ans)
	return ans, err
}

// NewQuery encodes job arguments into a query. The result
// channel is assigned by the adapter when publishing.
func NewQuery(fn string, args any) (Query, error) {
	data, err := sonic.Marshal(args)
	if err != nil {
		return Query{}, fmt.Errorf("failed to encode query args: %w", err)
	}
	return Query{Func: fn, Args: data}, nil
}

// Adapter connects the API server and workers via Redis. Queries
// are pushed to a list, workers are woken up via pub/sub and results
// are stored under a unique key announced on a per-query channel.
type Adapter struct {
	ctx                 context.Context
	c                   *redis.Client
	channelQuery        string
	channelResultPrefix string
	queryAnswerTimeout  time.Duration
	cachePath           string
}

func (a *Adapter) TestConnection(timeout time.Duration) error {
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()
	timeoutCh := time.After(timeout)
	for {
		select {
		case <-timeoutCh:
			return fmt.Errorf("failed to connect to Redis at %s (timeout)", a.c.Options().Addr)
		case <-a.ctx.Done():
			return a.ctx.Err()
		case <-tick.C:
			if err := a.c.Ping(a.ctx).Err(); err != nil {
				log.Error().Err(err).Msg("failed to ping Redis, will try again")
				continue
			}
			log.Info().Str("addr", a.c.Options().Addr).Msg("connected to Redis")
			return nil
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

// PublishQuery publishes a new query and returns a channel
// the result will be sent to. In case no worker answers in time,
// a result with a timeout error is sent.
func (a *Adapter) PublishQuery(query Query) (<-chan *WorkerResult, error) {
	query.Channel = fmt.Sprintf("%s:%s", a.channelResultPrefix, uuid.New().String())
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		Msg("publishing query")

	msg, err := query.ToJSON()
	if err != nil {
		return nil, err
	}
	sub := a.c.Subscribe(a.ctx, query.Channel)
	if _, err := sub.Receive(a.ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe result channel: %w", err)
	}
	if err := a.c.LPush(a.ctx, DefaultQueueKey, msg).Err(); err != nil {
		sub.Close()
		return nil, err
	}
	ans := a.awaitResult(
		query,
		sub.Channel(),
		func(key string) (string, error) {
			return a.c.Get(a.ctx, key).Result()
		},
		func() { sub.Close() },
	)
	return ans, a.c.Publish(a.ctx, a.channelQuery, MsgNewQuery).Err()
}

// awaitResult waits for a notification about the stored result
// of the query and loads it. The returned channel is buffered so the
// waiting goroutine ends even if nobody reads the result.
func (a *Adapter) awaitResult(
	query Query,
	notifications <-chan *redis.Message,
	fetch func(key string) (string, error),
	done func(),
) <-chan *WorkerResult {
	ans := make(chan *WorkerResult, 1)
	go func() {
		defer close(ans)
		defer done()
		result := new(WorkerResult)
		tmr := time.NewTimer(a.queryAnswerTimeout)
		defer tmr.Stop()
		select {
		case item := <-notifications:
			data, err := fetch(item.Payload)
			if err != nil {
				result.AttachValue(&results.ErrorResult{Func: query.Func, Error: err.Error()})

			} else if err := sonic.UnmarshalString(data, result); err != nil {
				result.AttachValue(&results.ErrorResult{Func: query.Func, Error: err.Error()})
			}
		case <-tmr.C:
			result.AttachValue(&results.ErrorResult{
				Func:  query.Func,
				Error: merror.TimeoutError{Msg: "no worker answered in time"}.Error(),
			})
		case <-a.ctx.Done():
			result.AttachValue(&results.ErrorResult{Func: query.Func, Error: a.ctx.Err().Error()})
		}
		ans <- result
	}()
	return ans
}

func (a *Adapter) DequeueQuery() (Query, error) {
	cmd := a.c.RPop(a.ctx, DefaultQueueKey)
	if cmd.Err() == redis.Nil {
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

func (a *Adapter) PublishResult(channelName string, value *WorkerResult) error {
	log.Debug().
		Str("channel", channelName).
		Str("resultType", value.ResultType.String()).
		Msg("publishing result")
	data, err := sonic.MarshalString(value)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := a.c.Set(a.ctx, channelName, data, DefaultResultExpiration).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return a.c.Publish(a.ctx, channelName, channelName).Err()
}

func (a *Adapter) Subscribe() <-chan *redis.Message {
	sub := a.c.Subscribe(a.ctx, a.channelQuery)
	return sub.Channel()
}

func NewAdapter(conf *Conf, ctx context.Context) *Adapter {
	chRes := conf.ChannelResultPrefix
	chQuery := conf.ChannelQuery
	if chRes == "" {
		chRes = DefaultResultChannelPrefix
		log.Warn().
			Str("channel", chRes).
			Msg("Redis channel for results not specified, using default")
	}
	if chQuery == "" {
		chQuery = DefaultQueryChannel
		log.Warn().
			Str("channel", chQuery).
			Msg("Redis channel for queries not specified, using default")
	}
	answerTimeout := time.Duration(conf.QueryAnswerTimeoutSecs) * time.Second
	if answerTimeout == 0 {
		answerTimeout = DefaultQueryAnswerTimeout
	}
	return &Adapter{
		c: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ctx:                 ctx,
		channelQuery:        chQuery,
		channelResultPrefix: chRes,
		queryAnswerTimeout:  answerTimeout,
		cachePath:           conf.CachePath,
	}
}
