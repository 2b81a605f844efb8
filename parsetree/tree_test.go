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

package parsetree

import (
	"encoding/json"
	"testing"

	"cxparse/grammar"
	"cxparse/seqgraph"
	"cxparse/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocatorPerTree(t *testing.T) {
	t1 := New()
	t2 := New()
	a := t1.AddPattern("NP", "", 1, 2)
	b := t2.AddPattern("NP", "", 1, 2)
	assert.Equal(t, 1, t1.Node(a).ID)
	assert.Equal(t, 1, t2.Node(b).ID)
	c := t1.AddTerminal("pos", "gato", "NP:e1", 2)
	assert.Equal(t, 2, t1.Node(c).ID)
}

func TestAddChildSetsParent(t *testing.T) {
	tree := New()
	s := tree.AddPattern("S", "", 1, 3)
	np := tree.AddPattern("NP", "Arg", 1, 2)
	w := tree.AddTerminal("pos", "gato", "NP:e1", 2)
	require.NoError(t, tree.AddChild(s, np))
	require.NoError(t, tree.AddChild(np, w))
	assert.Equal(t, 2, tree.Depth(w))
	assert.Equal(t, 0, tree.Depth(s))
	assert.Equal(t, []int{s}, tree.Roots())
	assert.Error(t, tree.AddChild(w, s), "cycle must be rejected")
	assert.Error(t, tree.AddChild(s, w), "second parent must be rejected")
}

func TestWalkDepths(t *testing.T) {
	tree := New()
	s := tree.AddPattern("S", "", 1, 2)
	a := tree.AddTerminal("word", "a", "", 1)
	b := tree.AddTerminal("word", "b", "", 2)
	require.NoError(t, tree.AddChild(s, a))
	require.NoError(t, tree.AddChild(s, b))
	var depths []int
	tree.Walk(func(idx, depth int) {
		depths = append(depths, depth)
	})
	assert.Equal(t, []int{0, 1, 1}, depths)
}

func TestFromEventsNestedReferences(t *testing.T) {
	g := grammar.MustNew(
		"test",
		&grammar.Definition{Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}", Enabled: true},
		&grammar.Definition{Name: "Clause", Type: grammar.TypeClausal, Pattern: "[NP] {VERB}", Enabled: true,
			Labels: grammar.Labels{Clausal: "Pred"}},
		&grammar.Definition{Name: "S", Type: grammar.TypeSentential, Pattern: "[Clause]", Enabled: true},
	)
	ug, err := seqgraph.FromGrammar(g)
	require.NoError(t, err)
	inst := ug.NewInstance()
	sent := token.MustSentence(
		"s1",
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "nsubj", 3, ""),
		token.New(3, "correu", "correr", "VERB", "root", 0, ""),
	)
	inst.Run(sent)
	tree := FromEvents(inst.Events(), func(p string) string {
		def, _ := g.Get(p)
		return def.Label()
	})
	assert.Equal(t, "[S [Clause [NP O gato] correu]]", tree.String())
	roots := tree.Roots()
	require.Len(t, roots, 1)
	root := tree.Node(roots[0])
	assert.Equal(t, 1, root.Start)
	assert.Equal(t, 3, root.End)
	clause := tree.Node(root.Children[0])
	assert.Equal(t, "Pred", clause.Label)
	assert.Equal(t, roots[0], clause.Parent)
}

func TestFromEventsDropsIncompleteInstances(t *testing.T) {
	events := []seqgraph.ParseEvent{
		{Seq: 1, Type: seqgraph.EventElementFired, Timestamp: 1, Pattern: "NP", Origin: 1, SourceNodeID: "NP:e0", Value: "o"},
		{Seq: 2, Type: seqgraph.EventElementFired, Timestamp: 2, Pattern: "PP", Origin: 2, SourceNodeID: "PP:e0", Value: "de"},
		{Seq: 3, Type: seqgraph.EventElementFired, Timestamp: 2, Pattern: "NP", Origin: 1, SourceNodeID: "NP:e1", Value: "gato"},
		{Seq: 4, Type: seqgraph.EventPatternCompleted, Timestamp: 2, Pattern: "NP", Origin: 1, SourceNodeID: "NP:pattern"},
	}
	tree := FromEvents(events, nil)
	assert.Equal(t, "[NP o gato]", tree.String())
}

func TestFromEventsParallelBranches(t *testing.T) {
	// two branches of one instance consume the same token via different nodes
	events := []seqgraph.ParseEvent{
		{Seq: 1, Type: seqgraph.EventElementFired, Timestamp: 1, Pattern: "X", Origin: 1, SourceNodeID: "X:e0", Value: "a"},
		{Seq: 2, Type: seqgraph.EventElementFired, Timestamp: 1, Pattern: "X", Origin: 1, SourceNodeID: "X:e1", Value: "a"},
		{Seq: 3, Type: seqgraph.EventElementFired, Timestamp: 2, Pattern: "X", Origin: 1, SourceNodeID: "X:e2", Value: "b"},
		{Seq: 4, Type: seqgraph.EventPatternCompleted, Timestamp: 2, Pattern: "X", Origin: 1, SourceNodeID: "X:pattern"},
	}
	tree := FromEvents(events, nil)
	assert.Equal(t, "[X a b]", tree.String())
}

func TestFromSpans(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "nsubj", 3, ""),
		token.New(3, "correu", "correr", "VERB", "root", 0, ""),
		token.New(4, "rapidamente", "rapidamente", "ADV", "advmod", 3, ""),
		token.New(5, ".", ".", "PUNCT", "punct", 3, ""),
	)
	tree := FromSpans(sent, []Span{
		{Name: "Clause", Label: "Pred", Start: 1, End: 4},
		{Name: "NP", Label: "Arg", Start: 1, End: 2},
	})
	assert.Equal(t, "[Clause [NP O gato] correu rapidamente]", tree.String())
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Clause", decoded[0]["pattern"])
	assert.Len(t, decoded[0]["children"], 3)
}

func TestFromSpansCrossing(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		token.New(1, "a", "a", "X", "root", 0, ""),
		token.New(2, "b", "b", "X", "dep", 1, ""),
		token.New(3, "c", "c", "X", "dep", 1, ""),
	)
	tree := FromSpans(sent, []Span{{Name: "A", Start: 1, End: 2}, {Name: "B", Start: 2, End: 3}})
	assert.Len(t, tree.Roots(), 2)
	assert.Equal(t, "[A a b] [B c]", tree.String())
}
