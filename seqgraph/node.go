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
	"fmt"

	"cxparse/grammar"
)

type NodeType string

const (
	NodeStart           NodeType = "START"
	NodeElement         NodeType = "ELEMENT"
	NodeIntermediate    NodeType = "INTERMEDIATE"
	NodeConstructionRef NodeType = "CONSTRUCTION_REF"
	NodeEnd             NodeType = "END"
	NodePattern         NodeType = "PATTERN"
)

// Consuming nodes fire on an input item (a token or a completed
// construction), the other ones fire as soon as they are reached.
func (nt NodeType) Consuming() bool {
	return nt == NodeElement || nt == NodeConstructionRef
}

// Node is an immutable part of a graph topology. The mutable
// state (active listeners, firing timestamps) lives in Instance.
type Node struct {

	// ID is namespaced by the pattern: `<pattern>:<local id>`
	ID      string   `json:"id"`
	Type    NodeType `json:"type"`
	Pattern string   `json:"pattern"`

	// Slot is an index of the pattern slot the node represents,
	// -1 for non-slot nodes
	Slot int `json:"slot"`

	// Matcher is set for ELEMENT and CONSTRUCTION_REF nodes
	Matcher grammar.Slot `json:"matcher"`
}

// ElementType is the kind of token property the node tests
func (n *Node) ElementType() string {
	if n.Type == NodeElement || n.Type == NodeConstructionRef {
		return string(n.Matcher.Kind)
	}
	return ""
}

// ElementValue is the value the node tests; empty for wildcards
func (n *Node) ElementValue() string {
	if n.Matcher.Kind == grammar.SlotFeature {
		return n.Matcher.Key + "=" + n.Matcher.Value
	}
	return n.Matcher.Value
}

func (n *Node) Optional() bool {
	return n.Matcher.Optional
}

// Ref returns the referred construction of a CONSTRUCTION_REF node
func (n *Node) Ref() string {
	if n.Type == NodeConstructionRef {
		return n.Matcher.Value
	}
	return ""
}

func (n *Node) String() string {
	if n.Type == NodeElement || n.Type == NodeConstructionRef {
		return fmt.Sprintf("%s[%s]", n.ID, n.Matcher.String())
	}
	return n.ID
}

func nodeID(pattern, local string) string {
	return pattern + ":" + local
}

// Edge connects two nodes. A bypass edge leads from an optional
// node to its successor and it is traversed without consuming input.
// Cross edges connect a pattern completion with CONSTRUCTION_REF
// listeners of other patterns.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Bypass bool   `json:"bypass,omitempty"`
	Cross  bool   `json:"cross,omitempty"`
}
