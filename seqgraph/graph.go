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
	"strconv"

	"cxparse/grammar"
	"cxparse/merror"
)

// SequenceGraph is an automaton of a single pattern:
//
//	START -> slot_0 -> ... -> slot_n [-> INTERMEDIATE] -> END -> PATTERN
//
// Optional slots get a bypass edge to their successor. If a pattern
// ends with optional slots, they join in an INTERMEDIATE node so
// the pattern can complete with or without them.
type SequenceGraph struct {
	Name     string
	Priority int
	Nodes    []*Node
	Edges    []Edge
}

func (sg *SequenceGraph) Start() *Node {
	return sg.Nodes[0]
}

// PatternNode returns the node marking completion of the pattern
func (sg *SequenceGraph) PatternNode() *Node {
	return sg.Nodes[len(sg.Nodes)-1]
}

// Build creates the automaton of a compiled construction definition
func Build(def *grammar.Definition) (*SequenceGraph, error) {
	if !def.IsCompiled() {
		if err := def.Compile(); err != nil {
			return nil, err
		}
	}
	if len(def.Compiled) == 0 {
		return nil, merror.NewGrammarError(def.Name, "cannot build a graph of an empty pattern")
	}
	ans := &SequenceGraph{
		Name:     def.Name,
		Priority: def.Priority,
		Nodes:    make([]*Node, 0, len(def.Compiled)+4),
	}
	ans.Nodes = append(ans.Nodes, &Node{ID: nodeID(def.Name, "start"), Type: NodeStart, Pattern: def.Name, Slot: -1})
	for i, slot := range def.Compiled {
		tp := NodeElement
		if slot.Kind == grammar.SlotConstruction {
			tp = NodeConstructionRef
		}
		ans.Nodes = append(ans.Nodes, &Node{
			ID:      nodeID(def.Name, "e"+strconv.Itoa(i)),
			Type:    tp,
			Pattern: def.Name,
			Slot:    i,
			Matcher: slot,
		})
	}
	if def.Compiled[len(def.Compiled)-1].Optional {
		ans.Nodes = append(ans.Nodes, &Node{ID: nodeID(def.Name, "join"), Type: NodeIntermediate, Pattern: def.Name, Slot: -1})
	}
	ans.Nodes = append(
		ans.Nodes,
		&Node{ID: nodeID(def.Name, "end"), Type: NodeEnd, Pattern: def.Name, Slot: -1},
		&Node{ID: nodeID(def.Name, "pattern"), Type: NodePattern, Pattern: def.Name, Slot: -1},
	)
	for i := 0; i < len(ans.Nodes)-1; i++ {
		curr, next := ans.Nodes[i], ans.Nodes[i+1]
		ans.Edges = append(ans.Edges, Edge{From: curr.ID, To: next.ID})
		if curr.Slot >= 0 && curr.Optional() {
			ans.Edges = append(ans.Edges, Edge{From: curr.ID, To: next.ID, Bypass: true})
		}
	}
	return ans, nil
}
