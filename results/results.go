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

package results

import (
	"errors"

	"cxparse/cln"
	"cxparse/flatsyntax"
	"cxparse/parser"
	"cxparse/parsetree"
	"cxparse/seqgraph"

	"github.com/bytedance/sonic"
)

const (
	ResultTypeParse    ResultType = "parse"
	ResultTypeAnnotate ResultType = "annotate"
	ResultTypeError    ResultType = "error"

	EngineV4       = "v4"
	EngineCLN      = "cln"
	EngineSeqGraph = "seqgraph"
)

// IsValidEngine tells whether the name denotes one of the parsing engines
func IsValidEngine(engine string) bool {
	switch engine {
	case EngineV4, EngineCLN, EngineSeqGraph:
		return true
	}
	return false
}

type ResultType string

func (rt ResultType) String() string {
	return string(rt)
}

// SerializableResult is anything a worker can send back
// to the API server.
type SerializableResult interface {
	Err() error
	Type() ResultType
}

func errToStr(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}

// ----

// SeqGraphResult holds activation steps of the unified sequence
// graph and the tree rebuilt from its parse events
type SeqGraphResult struct {
	SentenceID string                       `json:"sentenceId"`
	Steps      []*seqgraph.ActivationResult `json:"steps"`
	Completed  []seqgraph.Completion        `json:"completed"`
	Tree       *parsetree.Tree              `json:"tree"`

	// Coverage is the ratio of tokens covered by root nodes
	// of the tree
	Coverage float64 `json:"coverage"`
}

// ParseResult wraps an outcome of one of the parsing engines.
// Exactly one of V4, CLN, SeqGraph is set unless Error is set.
type ParseResult struct {
	Engine   string
	V4       *parser.Result
	CLN      *cln.SequenceResult
	SeqGraph *SeqGraphResult
	Error    error
}

func (res *ParseResult) Err() error {
	return res.Error
}

func (res *ParseResult) Type() ResultType {
	return ResultTypeParse
}

// Confidence returns the total confidence of whichever engine
// produced the result
func (res *ParseResult) Confidence() float64 {
	if res.V4 != nil {
		return res.V4.TotalConfidence
	}
	if res.CLN != nil {
		return res.CLN.TotalConfidence
	}
	if res.SeqGraph != nil {
		return res.SeqGraph.Coverage
	}
	return 0
}

func (res *ParseResult) MarshalJSON() ([]byte, error) {
	var ans any
	if res.V4 != nil {
		ans = res.V4
	} else if res.CLN != nil {
		ans = res.CLN
	} else if res.SeqGraph != nil {
		ans = res.SeqGraph
	}
	return sonic.Marshal(
		struct {
			Engine     string     `json:"engine"`
			Result     any        `json:"result,omitempty"`
			Confidence float64    `json:"confidence"`
			ResultType ResultType `json:"resultType"`
			Error      string     `json:"error,omitempty"`
		}{
			Engine:     res.Engine,
			Result:     ans,
			Confidence: NormRound(res.Confidence()),
			ResultType: res.Type(),
			Error:      errToStr(res.Error),
		},
	)
}

// ----

type AnnotateResult struct {
	Flat  *flatsyntax.Result
	Error error
}

func (res *AnnotateResult) Err() error {
	return res.Error
}

func (res *AnnotateResult) Type() ResultType {
	return ResultTypeAnnotate
}

func (res *AnnotateResult) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(
		struct {
			*flatsyntax.Result
			ResultType ResultType `json:"resultType"`
			Error      string     `json:"error,omitempty"`
		}{
			Result:     res.Flat,
			ResultType: res.Type(),
			Error:      errToStr(res.Error),
		},
	)
}

// ----

type ErrorResult struct {
	Func  string `json:"func"`
	Error string `json:"error"`
}

func (res *ErrorResult) Err() error {
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}

func (res *ErrorResult) Type() ResultType {
	return ResultTypeError
}
