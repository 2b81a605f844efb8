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

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cxparse/merror"
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/tagger"
	"cxparse/token"
	"cxparse/worker"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	maxRequestBodySize = 8 * 1024 * 1024

	formatJSON   = "json"
	formatConllu = "conllu"
	formatText   = "text"

	localWorkerID = "api"
)

type jobLogger interface {
	Log(rec results.JobLog)
}

type multiResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Actions are HTTP handlers of the parsing API. With Redis
// configured, the work is delegated to workers, otherwise
// it runs within the API server process.
type Actions struct {
	processor *worker.Processor
	radapter  *rdb.Adapter
	tagger    *tagger.Client
	jobLogger jobLogger
}

func (a *Actions) readSentences(ctx *gin.Context) ([]*token.Sentence, error) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxRequestBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	format := ctx.DefaultQuery("format", formatJSON)
	switch format {
	case formatJSON:
		sent, err := token.DecodeSentence(body)
		if err != nil {
			return nil, err
		}
		return []*token.Sentence{sent}, nil
	case formatConllu:
		return token.ParseConllu(string(body))
	case formatText:
		if a.tagger == nil {
			return nil, merror.InputError{Msg: "tagger not configured, raw text cannot be processed"}
		}
		return a.tagger.Tag(ctx.Request.Context(), string(body))
	}
	return nil, merror.InputError{Msg: fmt.Sprintf("unknown input format `%s`", format)}
}

// runJobs processes the sentences either locally or via Redis workers.
// The order of results matches the order of sentences.
func (a *Actions) runJobs(
	fn string,
	sents []*token.Sentence,
	mkArgs func(sent *token.Sentence) any,
	local func(sent *token.Sentence) (*rdb.WorkerResult, error),
) ([]*rdb.WorkerResult, error) {
	ans := make([]*rdb.WorkerResult, len(sents))
	if a.radapter == nil {
		for i, sent := range sents {
			t0 := time.Now()
			res, err := local(sent)
			if err != nil {
				return nil, err
			}
			res.ID = localWorkerID
			res.ProcBegin = t0
			res.ProcEnd = time.Now()
			ans[i] = res
			a.logJob(fn, sent, res)
		}
		return ans, nil
	}
	waits := make([]<-chan *rdb.WorkerResult, len(sents))
	for i, sent := range sents {
		query, err := rdb.NewQuery(fn, mkArgs(sent))
		if err != nil {
			return nil, err
		}
		wait, err := a.radapter.CacheResult(a.radapter.PublishQuery, query)
		if err != nil {
			return nil, fmt.Errorf("failed to publish query: %w", err)
		}
		waits[i] = wait
	}
	for i, wait := range waits {
		ans[i] = <-wait
		if ans[i] == nil {
			return nil, merror.InternalError{Msg: "worker result channel closed"}
		}
		a.logJob(fn, sents[i], ans[i])
	}
	return ans, nil
}

func (a *Actions) logJob(fn string, sent *token.Sentence, res *rdb.WorkerResult) {
	if a.jobLogger == nil || res.ProcBegin.IsZero() {
		return
	}
	a.jobLogger.Log(results.JobLog{
		WorkerID:   res.ID,
		Func:       fn,
		SentenceID: sent.ID,
		NumTokens:  sent.Len(),
		Begin:      res.ProcBegin,
		End:        res.ProcEnd,
		Err:        res.Err(),
	})
}

func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	if merror.IsUserError(err) {
		status = http.StatusBadRequest
	}
	uniresp.RespondWithErrorJSON(ctx, err, status)
}

func (a *Actions) writeResults(ctx *gin.Context, res []*rdb.WorkerResult) {
	if len(res) == 1 {
		if err := res[0].Err(); err != nil {
			respondError(ctx, err)
			return
		}
		uniresp.WriteRawJSONResponse(ctx.Writer, res[0].Value)
		return
	}
	ans := multiResponse{Results: make([]json.RawMessage, len(res))}
	for i, r := range res {
		ans.Results[i] = r.Value
	}
	data, err := sonic.Marshal(ans)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteRawJSONResponse(ctx.Writer, data)
}

func logRequestSentences(ctx *gin.Context, fn string, sents []*token.Sentence) {
	numTokens := 0
	for _, s := range sents {
		numTokens += s.Len()
	}
	log.Debug().
		Str("func", fn).
		Int("sentences", len(sents)).
		Int("tokens", numTokens).
		Str("format", ctx.DefaultQuery("format", formatJSON)).
		Msg("processing request")
}

func NewActions(
	processor *worker.Processor,
	radapter *rdb.Adapter,
	tg *tagger.Client,
	jobLogger jobLogger,
) *Actions {
	return &Actions{
		processor: processor,
		radapter:  radapter,
		tagger:    tg,
		jobLogger: jobLogger,
	}
}
