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

package seqgraph

import (
	"errors"
	"testing"

	"cxparse/grammar"
	"cxparse/merror"
	"cxparse/token"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func npDef() *grammar.Definition {
	return &grammar.Definition{Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET}? {ADJ}? {NOUN}", Enabled: true}
}

func clauseGrammar() *grammar.Grammar {
	return grammar.MustNew(
		"test",
		&grammar.Definition{Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}", Enabled: true},
		&grammar.Definition{Name: "Clause", Type: grammar.TypeClausal, Pattern: "[NP] {VERB}", Enabled: true},
		&grammar.Definition{Name: "S", Type: grammar.TypeSentential, Pattern: "[Clause]", Enabled: true},
	)
}

func catSentence() *token.Sentence {
	return token.MustSentence(
		"s1",
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "nsubj", 3, ""),
		token.New(3, "correu", "correr", "VERB", "root", 0, ""),
	)
}

func mustUnified(t *testing.T, defs ...*grammar.Definition) *UnifiedGraph {
	graphs := make([]*SequenceGraph, 0, len(defs))
	for _, def := range defs {
		sg, err := Build(def)
		require.NoError(t, err)
		graphs = append(graphs, sg)
	}
	ug, err := NewUnifiedGraph(graphs)
	require.NoError(t, err)
	return ug
}

func TestBuildBypassEdges(t *testing.T) {
	sg, err := Build(npDef())
	require.NoError(t, err)
	ids := make([]string, len(sg.Nodes))
	for i, n := range sg.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"NP:start", "NP:e0", "NP:e1", "NP:e2", "NP:end", "NP:pattern"}, ids)
	var bypass []Edge
	for _, e := range sg.Edges {
		if e.Bypass {
			bypass = append(bypass, e)
		}
	}
	assert.Equal(t, []Edge{
		{From: "NP:e0", To: "NP:e1", Bypass: true},
		{From: "NP:e1", To: "NP:e2", Bypass: true},
	}, bypass)
	assert.Equal(t, "pos", sg.Nodes[1].ElementType())
	assert.Equal(t, "DET", sg.Nodes[1].ElementValue())
}

func TestBuildTrailingOptionalJoin(t *testing.T) {
	sg, err := Build(&grammar.Definition{Name: "N", Type: grammar.TypePhrasal, Pattern: "{NOUN} {ADJ}?", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, NodeIntermediate, sg.Nodes[3].Type)
}

func TestActivateOptionalElements(t *testing.T) {
	ug := mustUnified(t, npDef())
	inst := ug.NewInstance()
	res := inst.ActivateUnit(grammar.Unit{Word: "o", POS: "DET"}, 1)
	assert.Equal(t, []string{"NP:e0"}, res.FiredNodes)
	assert.Empty(t, res.CompletedPatterns)
	assert.True(t, inst.IsActive("NP:e1"))
	assert.True(t, inst.IsActive("NP:e2"))

	res = inst.ActivateUnit(grammar.Unit{Word: "gato", POS: "NOUN"}, 2)
	assert.Equal(t, []Completion{
		{Pattern: "NP", Start: 1, End: 2},
		{Pattern: "NP", Start: 2, End: 2},
	}, res.CompletedPatterns)
	assert.False(t, inst.IsActive("NP:e1"), "skipped optional node must be deactivated")
	assert.Equal(t, []int{2}, inst.Timestamps("NP:e2"))
	assert.Equal(t, []int{2}, inst.Timestamps("NP:pattern"))
}

func TestActivateRequiresContiguity(t *testing.T) {
	ug := mustUnified(t, npDef())
	inst := ug.NewInstance()
	inst.ActivateUnit(grammar.Unit{Word: "o", POS: "DET"}, 1)
	inst.ActivateUnit(grammar.Unit{Word: "muito", POS: "ADV"}, 2)
	res := inst.ActivateUnit(grammar.Unit{Word: "gato", POS: "NOUN"}, 3)
	assert.Equal(t, []Completion{{Pattern: "NP", Start: 3, End: 3}}, res.CompletedPatterns)
}

func TestActivateTrailingOptional(t *testing.T) {
	ug := mustUnified(t, &grammar.Definition{Name: "N", Type: grammar.TypePhrasal, Pattern: "{NOUN} {ADJ}?", Enabled: true})
	inst := ug.NewInstance()
	res := inst.ActivateUnit(grammar.Unit{Word: "gato", POS: "NOUN"}, 1)
	assert.Equal(t, []Completion{{Pattern: "N", Start: 1, End: 1}}, res.CompletedPatterns)
	res = inst.ActivateUnit(grammar.Unit{Word: "preto", POS: "ADJ"}, 2)
	assert.Equal(t, []Completion{{Pattern: "N", Start: 1, End: 2}}, res.CompletedPatterns)
}

func TestUnmatchedTokenGivesEmptyResult(t *testing.T) {
	ug := mustUnified(t, npDef())
	inst := ug.NewInstance()
	res := inst.ActivateUnit(grammar.Unit{Word: ".", POS: "PUNCT"}, 1)
	assert.True(t, res.IsEmpty())
	assert.Empty(t, res.Events)
}

func TestCrossPatternCompletionChain(t *testing.T) {
	ug, err := FromGrammar(clauseGrammar())
	require.NoError(t, err)
	assert.Len(t, ug.CrossEdges(), 2)
	inst := ug.NewInstance()
	sent := catSentence()
	inst.Activate(sent.At(1), 1)
	res := inst.Activate(sent.At(2), 2)
	assert.Equal(t, []Completion{{Pattern: "NP", Start: 1, End: 2}}, res.CompletedPatterns)
	assert.True(t, inst.IsActive("Clause:e1"))
	res = inst.Activate(sent.At(3), 3)
	assert.Equal(t, []Completion{
		{Pattern: "Clause", Start: 1, End: 3},
		{Pattern: "S", Start: 1, End: 3},
	}, res.CompletedPatterns)

	var refEvents []ParseEvent
	for _, evt := range inst.Events() {
		if evt.Type == EventRefFired {
			refEvents = append(refEvents, evt)
		}
	}
	require.Len(t, refEvents, 2)
	assert.Equal(t, "NP", refEvents[0].Value)
	assert.Equal(t, 1, refEvents[0].RefOrigin)
	assert.Equal(t, "Clause:e0", refEvents[0].SourceNodeID)
}

func TestCyclicReferencesRejected(t *testing.T) {
	a, err := Build(&grammar.Definition{Name: "A", Type: grammar.TypePhrasal, Pattern: "[B] x", Enabled: true})
	require.NoError(t, err)
	b, err := Build(&grammar.Definition{Name: "B", Type: grammar.TypePhrasal, Pattern: "y [A]", Enabled: true})
	require.NoError(t, err)
	_, err = NewUnifiedGraph([]*SequenceGraph{a, b})
	var gErr merror.GrammarError
	assert.True(t, errors.As(err, &gErr))
}

func TestResetIsIdempotent(t *testing.T) {
	ug, err := FromGrammar(clauseGrammar())
	require.NoError(t, err)
	inst := ug.NewInstance()
	sent := catSentence()
	first := inst.Run(sent)
	inst.Reset()
	assert.Empty(t, inst.ActiveNodes())
	assert.Empty(t, inst.Timestamps("NP:e0"))
	second := inst.Run(sent)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestInstancesDoNotShareState(t *testing.T) {
	ug := mustUnified(t, npDef())
	inst1 := ug.NewInstance()
	inst2 := ug.NewInstance()
	inst1.ActivateUnit(grammar.Unit{Word: "o", POS: "DET"}, 1)
	assert.True(t, inst1.IsActive("NP:e2"))
	assert.False(t, inst2.IsActive("NP:e2"))
}
