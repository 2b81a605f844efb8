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
	"sort"
	"strings"

	"cxparse/grammar"
	"cxparse/merror"

	"github.com/rs/zerolog/log"
)

const (
	GlobalStartID = "START"
)

// UnifiedGraph merges per-pattern graphs under one global START
// and adds cross edges from a pattern's PATTERN node to the
// CONSTRUCTION_REF nodes referring to it. The topology is immutable
// and safe for concurrent use, all the activation state lives
// in instances (see NewInstance).
type UnifiedGraph struct {
	nodes  []*Node
	index  map[string]int
	edges  []Edge
	succ   [][]int
	bypass [][]int

	// patterns are ordered by priority (desc.) and then by the order
	// they were added in
	patterns    []*SequenceGraph
	patternNode map[string]int
	entries     map[string][]int
	inEntry     []bool

	// refListeners maps a pattern name to CONSTRUCTION_REF nodes
	// the completion of the pattern can fire
	refListeners map[string][]int
}

// NewUnifiedGraph merges the graphs. References which cannot be
// satisfied by any of the graphs are kept (such nodes never fire),
// cyclic references produce merror.GrammarError.
func NewUnifiedGraph(graphs []*SequenceGraph) (*UnifiedGraph, error) {
	ans := &UnifiedGraph{
		index:        make(map[string]int),
		patterns:     make([]*SequenceGraph, len(graphs)),
		patternNode:  make(map[string]int),
		entries:      make(map[string][]int),
		refListeners: make(map[string][]int),
	}
	copy(ans.patterns, graphs)
	sort.SliceStable(ans.patterns, func(i, j int) bool {
		return ans.patterns[i].Priority > ans.patterns[j].Priority
	})
	ans.addNode(&Node{ID: GlobalStartID, Type: NodeStart, Slot: -1})
	for _, sg := range ans.patterns {
		if _, ok := ans.patternNode[sg.Name]; ok {
			return nil, merror.NewGrammarError(sg.Name, "duplicate pattern in the unified graph")
		}
		for _, n := range sg.Nodes {
			ans.addNode(n)
		}
		ans.edges = append(ans.edges, Edge{From: GlobalStartID, To: sg.Start().ID})
		ans.edges = append(ans.edges, sg.Edges...)
		ans.patternNode[sg.Name] = ans.index[sg.PatternNode().ID]
	}
	ans.succ = make([][]int, len(ans.nodes))
	ans.bypass = make([][]int, len(ans.nodes))
	for _, e := range ans.edges {
		from, to := ans.index[e.From], ans.index[e.To]
		if e.Bypass {
			ans.bypass[from] = append(ans.bypass[from], to)

		} else {
			ans.succ[from] = append(ans.succ[from], to)
		}
	}
	for idx, n := range ans.nodes {
		if n.Type != NodeConstructionRef {
			continue
		}
		src, ok := ans.patternNode[n.Ref()]
		if !ok {
			log.Warn().
				Str("node", n.ID).
				Str("reference", n.Ref()).
				Msg("construction reference cannot be satisfied by any pattern of the graph")
			continue
		}
		ans.refListeners[n.Ref()] = append(ans.refListeners[n.Ref()], idx)
		e := Edge{From: ans.nodes[src].ID, To: n.ID, Cross: true}
		ans.edges = append(ans.edges, e)
	}
	if cycle := ans.findCycle(); len(cycle) > 0 {
		return nil, merror.NewGrammarError(
			cycle[0], "cyclic completion propagation: %s", strings.Join(cycle, " -> "))
	}
	ans.inEntry = make([]bool, len(ans.nodes))
	for _, sg := range ans.patterns {
		start := ans.index[sg.Start().ID]
		entry := ans.closure(ans.succ[start])
		ans.entries[sg.Name] = entry
		for _, idx := range entry {
			ans.inEntry[idx] = true
		}
	}
	return ans, nil
}

// FromGrammar builds the unified graph of all enabled constructions
func FromGrammar(g *grammar.Grammar) (*UnifiedGraph, error) {
	graphs := make([]*SequenceGraph, 0, len(g.Enabled()))
	for _, def := range g.Enabled() {
		sg, err := Build(def)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, sg)
	}
	return NewUnifiedGraph(graphs)
}

func (ug *UnifiedGraph) addNode(n *Node) {
	ug.index[n.ID] = len(ug.nodes)
	ug.nodes = append(ug.nodes, n)
}

// closure adds all the nodes reachable via bypass edges
func (ug *UnifiedGraph) closure(nodes []int) []int {
	ans := make([]int, 0, len(nodes)+2)
	seen := make(map[int]bool, len(nodes)+2)
	var add func(idx int)
	add = func(idx int) {
		if seen[idx] {
			return
		}
		seen[idx] = true
		ans = append(ans, idx)
		for _, b := range ug.bypass[idx] {
			add(b)
		}
	}
	for _, idx := range nodes {
		add(idx)
	}
	return ans
}

// findCycle searches for a cycle in the pattern reference graph
// where A -> B means "completion of A can fire a node of B".
func (ug *UnifiedGraph) findCycle() []string {
	state := make(map[string]int)
	stack := make([]string, 0, 8)
	var visit func(p string) []string
	visit = func(p string) []string {
		state[p] = 1
		stack = append(stack, p)
		for _, ref := range ug.refListeners[p] {
			target := ug.nodes[ref].Pattern
			switch state[target] {
			case 1:
				for i, v := range stack {
					if v == target {
						return append(append([]string{}, stack[i:]...), target)
					}
				}
			case 0:
				if c := visit(target); len(c) > 0 {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[p] = 2
		return nil
	}
	for _, sg := range ug.patterns {
		if state[sg.Name] == 0 {
			if c := visit(sg.Name); len(c) > 0 {
				return c
			}
		}
	}
	return nil
}

func (ug *UnifiedGraph) Node(id string) (*Node, bool) {
	idx, ok := ug.index[id]
	if !ok {
		return nil, false
	}
	return ug.nodes[idx], true
}

func (ug *UnifiedGraph) Nodes() []*Node {
	return ug.nodes
}

func (ug *UnifiedGraph) Edges() []Edge {
	return ug.edges
}

// Patterns returns names of the merged patterns, the higher priority first
func (ug *UnifiedGraph) Patterns() []string {
	ans := make([]string, len(ug.patterns))
	for i, sg := range ug.patterns {
		ans[i] = sg.Name
	}
	return ans
}

// CrossEdges returns only the edges connecting different patterns
func (ug *UnifiedGraph) CrossEdges() []Edge {
	ans := make([]Edge, 0, len(ug.refListeners))
	for _, e := range ug.edges {
		if e.Cross {
			ans = append(ans, e)
		}
	}
	return ans
}

// NewInstance creates a fresh activation state over the graph
func (ug *UnifiedGraph) NewInstance() *Instance {
	inst := &Instance{graph: ug}
	inst.Reset()
	return inst
}
