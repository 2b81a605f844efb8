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
	"fmt"
	"sort"
	"strings"
)

const (
	NoParent = -1
)

type NodeKind string

const (
	KindTerminal NodeKind = "terminal"
	KindPattern  NodeKind = "pattern"
)

// IDAllocator provides node IDs within a single tree. There is no
// process-wide counter, each tree owns its allocator.
type IDAllocator struct {
	last int
}

func (a *IDAllocator) Next() int {
	a.last++
	return a.last
}

func (a *IDAllocator) Reset() {
	a.last = 0
}

// Node is a tree node stored in a Tree arena. Children are owned
// (arena indices), Parent is just a back reference used for
// upward traversal.
type Node struct {
	ID   int      `json:"id"`
	Kind NodeKind `json:"kind"`

	// Pattern is a construction name for pattern nodes
	Pattern string `json:"pattern,omitempty"`

	// Type and Value describe a matched element of terminal nodes
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`

	SourceNodeID string `json:"sourceNodeId,omitempty"`

	// Start and End are token positions (inclusive)
	Start int `json:"start"`
	End   int `json:"end"`

	Label string `json:"label,omitempty"`

	Children []int `json:"-"`
	Parent   int   `json:"-"`
}

func (n *Node) IsTerminal() bool {
	return n.Kind == KindTerminal
}

// Tree is an arena of nodes. All the nodes share the tree lifetime.
type Tree struct {
	nodes []Node
	ids   IDAllocator
}

func New() *Tree {
	return &Tree{nodes: make([]Node, 0, 32)}
}

func (t *Tree) add(n Node) int {
	n.ID = t.ids.Next()
	n.Parent = NoParent
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// AddTerminal adds a node wrapping a single matched token
func (t *Tree) AddTerminal(elmType, value, sourceNodeID string, position int) int {
	return t.add(Node{
		Kind:         KindTerminal,
		Type:         elmType,
		Value:        value,
		SourceNodeID: sourceNodeID,
		Start:        position,
		End:          position,
	})
}

// AddPattern adds a node representing a matched construction
func (t *Tree) AddPattern(pattern, label string, start, end int) int {
	return t.add(Node{
		Kind:    KindPattern,
		Pattern: pattern,
		Label:   label,
		Start:   start,
		End:     end,
	})
}

// AddChild appends a child and sets its parent reference.
// A node can have only one parent.
func (t *Tree) AddChild(parent, child int) error {
	if parent == child {
		return fmt.Errorf("cannot attach node %d to itself", parent)
	}
	if t.nodes[child].Parent != NoParent {
		return fmt.Errorf("node %d already has a parent", t.nodes[child].ID)
	}
	for p := parent; p != NoParent; p = t.nodes[p].Parent {
		if p == child {
			return fmt.Errorf("attaching node %d would create a cycle", t.nodes[child].ID)
		}
	}
	t.link(parent, child)
	return nil
}

func (t *Tree) link(parent, child int) {
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	t.nodes[child].Parent = parent
}

func (t *Tree) Node(idx int) *Node {
	return &t.nodes[idx]
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns arena indices of nodes without a parent
// ordered by their position.
func (t *Tree) Roots() []int {
	ans := make([]int, 0, 4)
	for i, n := range t.nodes {
		if n.Parent == NoParent {
			ans = append(ans, i)
		}
	}
	sort.SliceStable(ans, func(i, j int) bool {
		return t.less(ans[i], ans[j])
	})
	return ans
}

// less orders nodes by position, longer spans first
func (t *Tree) less(a, b int) bool {
	na, nb := t.nodes[a], t.nodes[b]
	if na.Start != nb.Start {
		return na.Start < nb.Start
	}
	return na.End > nb.End
}

// SortChildren orders children of all nodes by their position
func (t *Tree) SortChildren() {
	for i := range t.nodes {
		ch := t.nodes[i].Children
		sort.SliceStable(ch, func(a, b int) bool {
			return t.less(ch[a], ch[b])
		})
	}
}

// Depth returns the number of ancestors of a node
func (t *Tree) Depth(idx int) int {
	var ans int
	for p := t.nodes[idx].Parent; p != NoParent; p = t.nodes[p].Parent {
		ans++
	}
	return ans
}

// Walk visits nodes depth-first, starting with roots
func (t *Tree) Walk(fn func(idx int, depth int)) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		fn(idx, depth)
		for _, ch := range t.nodes[idx].Children {
			visit(ch, depth+1)
		}
	}
	for _, r := range t.Roots() {
		visit(r, 0)
	}
}

// String renders a bracketed representation, e.g. `[S [NP O gato] correu]`
func (t *Tree) String() string {
	var buff strings.Builder
	var render func(idx int)
	render = func(idx int) {
		n := t.nodes[idx]
		if n.IsTerminal() {
			buff.WriteString(n.Value)
			return
		}
		buff.WriteString("[" + n.Pattern)
		for _, ch := range n.Children {
			buff.WriteString(" ")
			render(ch)
		}
		buff.WriteString("]")
	}
	for i, r := range t.Roots() {
		if i > 0 {
			buff.WriteString(" ")
		}
		render(r)
	}
	return buff.String()
}

// ---------------------------

type jsonNode struct {
	Node
	Children []*jsonNode `json:"children,omitempty"`
}

func (t *Tree) nested(idx int) *jsonNode {
	ans := &jsonNode{Node: t.nodes[idx]}
	for _, ch := range t.nodes[idx].Children {
		ans.Children = append(ans.Children, t.nested(ch))
	}
	return ans
}

// MarshalJSON exports the tree as a list of nested root nodes
func (t *Tree) MarshalJSON() ([]byte, error) {
	roots := make([]*jsonNode, 0, 4)
	for _, r := range t.Roots() {
		roots = append(roots, t.nested(r))
	}
	return json.Marshal(roots)
}
