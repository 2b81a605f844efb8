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

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cxparse/cln"
	"cxparse/grammar"
	"cxparse/merror"
	"cxparse/parser"
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testProcessor(t *testing.T) *Processor {
	g := grammar.MustNew(
		"test",
		&grammar.Definition{
			ID: 1, Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}",
			Priority: 60, Enabled: true, Labels: grammar.Labels{Phrasal: "Subj"},
		},
		&grammar.Definition{
			ID: 2, Name: "Clause", Type: grammar.TypeClausal, Pattern: "[NP] {VERB}",
			Priority: 30, Enabled: true,
		},
	)
	p, err := NewProcessor(g, parser.DefaultConf(), cln.DefaultConf())
	require.NoError(t, err)
	return p
}

func catSentence(id string) *token.Sentence {
	return token.MustSentence(
		id,
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "nsubj", 3, ""),
		token.New(3, "correu", "correr", "VERB", "root", 0, ""),
	)
}

type memJobLogger struct {
	sync.Mutex
	recs []results.JobLog
}

func (m *memJobLogger) Log(rec results.JobLog) {
	m.Lock()
	m.recs = append(m.recs, rec)
	m.Unlock()
}

func TestProcessorParseV4(t *testing.T) {
	res := testProcessor(t).Parse("", catSentence("s1"))
	require.NoError(t, res.Err())
	assert.Equal(t, results.EngineV4, res.Engine)
	require.NotNil(t, res.V4)
	assert.Nil(t, res.CLN)
	assert.Len(t, res.V4.Confirmed, 2)
	assert.Greater(t, res.Confidence(), 0.0)
}

func TestProcessorParseCLN(t *testing.T) {
	res := testProcessor(t).Parse(results.EngineCLN, catSentence("s1"))
	require.NoError(t, res.Err())
	require.NotNil(t, res.CLN)
	assert.Len(t, res.CLN.Columns, 3)
	assert.Len(t, res.CLN.Confirmed, 2)
}

func TestProcessorParseSeqGraph(t *testing.T) {
	res := testProcessor(t).Parse(results.EngineSeqGraph, catSentence("s1"))
	require.NoError(t, res.Err())
	assert.Equal(t, results.EngineSeqGraph, res.Engine)
	require.NotNil(t, res.SeqGraph)
	assert.Nil(t, res.V4)
	assert.Nil(t, res.CLN)
	assert.Equal(t, "s1", res.SeqGraph.SentenceID)
	assert.Len(t, res.SeqGraph.Steps, 3)
	completed := make(map[string]bool)
	for _, c := range res.SeqGraph.Completed {
		completed[c.Pattern] = true
	}
	assert.Equal(t, map[string]bool{"NP": true, "Clause": true}, completed)
	assert.Equal(t, "[Clause [NP O gato] correu]", res.SeqGraph.Tree.String())
	assert.InDelta(t, 1.0, res.Confidence(), 1e-9)

	data, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"engine":"seqgraph"`)
}

func TestProcessorSeqGraphPartialCoverage(t *testing.T) {
	sent := token.MustSentence(
		"s2",
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "root", 0, ""),
		token.New(3, "!", "!", "PUNCT", "punct", 2, ""),
	)
	res := testProcessor(t).Parse(results.EngineSeqGraph, sent)
	require.NoError(t, res.Err())
	assert.Equal(t, "[NP O gato]", res.SeqGraph.Tree.String())
	assert.InDelta(t, 2.0/3.0, res.Confidence(), 1e-9)
}

func TestProcessorUnknownEngine(t *testing.T) {
	res := testProcessor(t).Parse("v5", catSentence("s1"))
	var iErr merror.InputError
	assert.True(t, errors.As(res.Err(), &iErr))
}

func TestProcessorInvalidSentence(t *testing.T) {
	res := testProcessor(t).Parse(results.EngineV4, &token.Sentence{ID: "empty"})
	var tErr merror.TaggingError
	require.True(t, errors.As(res.Err(), &tErr))
	assert.Equal(t, merror.EmptyParseResult, tErr.Kind)
	assert.Nil(t, res.V4)
}

func TestProcessorAnnotate(t *testing.T) {
	res := testProcessor(t).Annotate(catSentence("s1"))
	require.NoError(t, res.Err())
	assert.Equal(t, "O gato+ correu.", res.Flat.Text)
}

func TestBatchProcessorKeepsOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	sents := []*token.Sentence{
		catSentence("a"),
		{ID: "broken"},
		catSentence("b"),
		catSentence("c"),
	}
	jl := &memJobLogger{}
	bp := NewBatchProcessor(testProcessor(t), 2, jl)
	var order []string
	stats, err := bp.Run(
		context.Background(),
		rdb.FuncParse,
		results.EngineV4,
		sents,
		func(sent *token.Sentence, res results.SerializableResult) error {
			order = append(order, sent.ID)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "broken", "b", "c"}, order)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 1, stats.ParseErrors)
	assert.Equal(t, 0, stats.Failed)
	assert.Len(t, jl.recs, 4)
}

func TestBatchProcessorEmitError(t *testing.T) {
	defer goleak.VerifyNone(t)
	bp := NewBatchProcessor(testProcessor(t), 3, nil)
	_, err := bp.Run(
		context.Background(),
		rdb.FuncAnnotate,
		"",
		[]*token.Sentence{catSentence("a"), catSentence("b")},
		func(sent *token.Sentence, res results.SerializableResult) error {
			return errors.New("disk full")
		},
	)
	assert.Error(t, err)
}

func TestBatchProcessorCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bp := NewBatchProcessor(testProcessor(t), 1, nil)
	var emitted int
	_, err := bp.Run(
		ctx,
		rdb.FuncParse,
		results.EngineV4,
		[]*token.Sentence{catSentence("a"), catSentence("b")},
		func(sent *token.Sentence, res results.SerializableResult) error {
			emitted++
			return nil
		},
	)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, emitted)
}
