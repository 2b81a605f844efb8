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
	"encoding/json"
	"time"

	"cxparse/merror"
	"cxparse/results"
	"cxparse/token"

	"github.com/bytedance/sonic"
)

const (
	FuncParse    = "parse"
	FuncAnnotate = "annotate"
)

// ParseArgs are arguments of the `parse` job
type ParseArgs struct {
	Engine   string          `json:"engine"`
	Sentence *token.Sentence `json:"sentence"`
}

// AnnotateArgs are arguments of the `annotate` job
type AnnotateArgs struct {
	Sentence *token.Sentence `json:"sentence"`
}

// ----------------

// WorkerResult is a job result as transferred via Redis. The value
// is kept encoded so the API server can pass it to the client
// without knowing its concrete type.
type WorkerResult struct {
	ID           string             `json:"id"`
	ResultType   results.ResultType `json:"resultType"`
	Value        json.RawMessage    `json:"value"`
	Error        string             `json:"error,omitempty"`
	HasUserError bool               `json:"hasUserError,omitempty"`
	ProcBegin    time.Time          `json:"procBegin"`
	ProcEnd      time.Time          `json:"procEnd"`
}

func (wr *WorkerResult) AttachValue(value results.SerializableResult) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	wr.Value = data
	wr.ResultType = value.Type()
	if err := value.Err(); err != nil {
		wr.Error = err.Error()
		wr.HasUserError = merror.IsUserError(err)
	}
	return nil
}

func (wr *WorkerResult) Err() error {
	if wr.Error == "" {
		return nil
	}
	if wr.HasUserError {
		return merror.InputError{Msg: wr.Error}
	}
	return merror.InternalError{Msg: wr.Error}
}

func CreateWorkerResult(value results.SerializableResult) (*WorkerResult, error) {
	ans := new(WorkerResult)
	if err := ans.AttachValue(value); err != nil {
		return nil, err
	}
	return ans, nil
}
