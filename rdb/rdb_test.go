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
	"errors"
	"testing"
	"time"

	"cxparse/merror"
	"cxparse/results"
	"cxparse/token"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testSentence() *token.Sentence {
	return token.MustSentence(
		"s1",
		token.New(1, "Ela", "ela", "PRON", "nsubj", 2, ""),
		token.New(2, "saiu", "sair", "VERB", "root", 0, ""),
	)
}

func TestQueryEncodeDecode(t *testing.T) {
	q, err := NewQuery(FuncParse, ParseArgs{Engine: "cln", Sentence: testSentence()})
	require.NoError(t, err)
	q.Channel = "cxparse_results:x"
	enc, err := q.ToJSON()
	require.NoError(t, err)
	dec, err := DecodeQuery(enc)
	require.NoError(t, err)
	assert.Equal(t, FuncParse, dec.Func)
	assert.Equal(t, "cxparse_results:x", dec.Channel)
	assert.JSONEq(t, string(q.Args), string(dec.Args))
}

func TestWorkerResultUserError(t *testing.T) {
	wr, err := CreateWorkerResult(&results.ParseResult{
		Engine: results.EngineV4,
		Error:  merror.TaggingError{Kind: merror.EmptyParseResult},
	})
	require.NoError(t, err)
	assert.True(t, wr.HasUserError)
	var inpErr merror.InputError
	assert.True(t, errors.As(wr.Err(), &inpErr))
}

func TestWorkerResultInternalError(t *testing.T) {
	wr, err := CreateWorkerResult(&results.ErrorResult{Func: FuncParse, Error: "worker crashed"})
	require.NoError(t, err)
	assert.False(t, wr.HasUserError)
	assert.False(t, merror.IsUserError(wr.Err()))
	assert.Equal(t, results.ResultTypeError, wr.ResultType)
}

func TestCacheResult(t *testing.T) {
	a := &Adapter{cachePath: t.TempDir()}
	var numCalls int
	publish := func(q Query) (<-chan *WorkerResult, error) {
		numCalls++
		ch := make(chan *WorkerResult, 1)
		ch <- &WorkerResult{ID: "w1", Value: []byte(`{"engine":"v4"}`)}
		close(ch)
		return ch, nil
	}
	q, err := NewQuery(FuncAnnotate, AnnotateArgs{Sentence: testSentence()})
	require.NoError(t, err)

	ch, err := a.CacheResult(publish, q)
	require.NoError(t, err)
	first := <-ch
	require.NotNil(t, first)

	ch, err = a.CacheResult(publish, q)
	require.NoError(t, err)
	second := <-ch
	require.NotNil(t, second)
	assert.Equal(t, 1, numCalls)
	assert.JSONEq(t, `{"engine":"v4"}`, string(second.Value))
}

func TestCacheResultSkipsErrors(t *testing.T) {
	a := &Adapter{cachePath: t.TempDir()}
	var numCalls int
	publish := func(q Query) (<-chan *WorkerResult, error) {
		numCalls++
		ch := make(chan *WorkerResult, 1)
		ch <- &WorkerResult{Error: "failed"}
		close(ch)
		return ch, nil
	}
	q, err := NewQuery(FuncParse, ParseArgs{Sentence: testSentence()})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		ch, err := a.CacheResult(publish, q)
		require.NoError(t, err)
		<-ch
	}
	assert.Equal(t, 2, numCalls)
}

func TestAwaitResultLoadsNotifiedResult(t *testing.T) {
	defer goleak.VerifyNone(t)
	stored, err := CreateWorkerResult(&results.ParseResult{Engine: results.EngineV4})
	require.NoError(t, err)
	stored.ID = "w1"
	data, err := sonic.MarshalString(stored)
	require.NoError(t, err)

	a := &Adapter{ctx: context.Background(), queryAnswerTimeout: time.Minute}
	notifications := make(chan *redis.Message, 1)
	notifications <- &redis.Message{Payload: "cxparseResults:k1"}
	var closed bool
	ans := a.awaitResult(
		Query{Func: FuncParse},
		notifications,
		func(key string) (string, error) {
			assert.Equal(t, "cxparseResults:k1", key)
			return data, nil
		},
		func() { closed = true },
	)
	res := <-ans
	require.NotNil(t, res)
	assert.Equal(t, "w1", res.ID)
	assert.NoError(t, res.Err())
	_, ok := <-ans
	assert.False(t, ok)
	assert.True(t, closed)
}

func TestAwaitResultWithoutReaderEnds(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := &Adapter{ctx: context.Background(), queryAnswerTimeout: 10 * time.Millisecond}
	done := make(chan struct{})
	a.awaitResult(
		Query{Func: FuncParse},
		make(chan *redis.Message),
		func(key string) (string, error) { return "", errors.New("unexpected fetch") },
		func() { close(done) },
	)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("result goroutine did not finish")
	}
}

func TestAwaitResultTimeout(t *testing.T) {
	a := &Adapter{ctx: context.Background(), queryAnswerTimeout: 10 * time.Millisecond}
	ans := a.awaitResult(
		Query{Func: FuncParse},
		make(chan *redis.Message),
		func(key string) (string, error) { return "", errors.New("unexpected fetch") },
		func() {},
	)
	res := <-ans
	require.NotNil(t, res)
	assert.Error(t, res.Err())
	assert.Contains(t, res.Error, "no worker answered in time")
}
