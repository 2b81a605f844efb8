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
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/token"

	"github.com/gin-gonic/gin"
)

// Parse runs one of the parsing engines (`engine=v4|cln|seqgraph`)
// on the sentence(s) in the request body.
func (a *Actions) Parse(ctx *gin.Context) {
	engine := ctx.DefaultQuery("engine", results.EngineV4)
	if !results.IsValidEngine(engine) {
		respondError(ctx, unknownEngineError(engine))
		return
	}
	sents, err := a.readSentences(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	logRequestSentences(ctx, rdb.FuncParse, sents)
	res, err := a.runJobs(
		rdb.FuncParse,
		sents,
		func(sent *token.Sentence) any {
			return rdb.ParseArgs{Engine: engine, Sentence: sent}
		},
		func(sent *token.Sentence) (*rdb.WorkerResult, error) {
			return rdb.CreateWorkerResult(a.processor.Parse(engine, sent))
		},
	)
	if err != nil {
		respondError(ctx, err)
		return
	}
	a.writeResults(ctx, res)
}

// Annotate produces flat-syntax annotation of the sentence(s)
func (a *Actions) Annotate(ctx *gin.Context) {
	sents, err := a.readSentences(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	logRequestSentences(ctx, rdb.FuncAnnotate, sents)
	res, err := a.runJobs(
		rdb.FuncAnnotate,
		sents,
		func(sent *token.Sentence) any {
			return rdb.AnnotateArgs{Sentence: sent}
		},
		func(sent *token.Sentence) (*rdb.WorkerResult, error) {
			return rdb.CreateWorkerResult(a.processor.Annotate(sent))
		},
	)
	if err != nil {
		respondError(ctx, err)
		return
	}
	a.writeResults(ctx, res)
}
