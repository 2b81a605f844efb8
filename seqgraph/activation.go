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
	"strconv"
	"strings"

	"cxparse/grammar"
	"cxparse/token"
)

type EventType string

const (
	EventElementFired     EventType = "ELEMENT_FIRED"
	EventPatternCompleted EventType = "PATTERN_COMPLETED"
	EventRefFired         EventType = "CONSTRUCTION_REF_FIRED"
)

// ParseEvent is emitted whenever an ELEMENT or CONSTRUCTION_REF node
// fires or a pattern completes. Events are the input of parse tree
// reconstruction.
type ParseEvent struct {
	Seq          int       `json:"seq"`
	Type         EventType `json:"type"`
	Timestamp    int       `json:"timestamp"`
	Pattern      string    `json:"pattern"`
	Origin       int       `json:"origin"`
	SourceNodeID string    `json:"sourceNodeId"`
	ElementType  string    `json:"elementType,omitempty"`

	// Value is a matched word for ELEMENT_FIRED and a referred
	// pattern for CONSTRUCTION_REF_FIRED
	Value string `json:"value,omitempty"`

	// RefOrigin is the origin of the completed referred pattern
	RefOrigin int `json:"refOrigin,omitempty"`
}

// Completion is a completed pattern instance spanning tokens [Start, End]
type Completion struct {
	Pattern string `json:"pattern"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

type ActivationResult struct {
	Timestamp         int          `json:"timestamp"`
	FiredNodes        []string     `json:"firedNodes"`
	CompletedPatterns []Completion `json:"completedPatterns"`
	NewListeners      []string     `json:"newListeners"`
	Events            []ParseEvent `json:"events"`
}

func (ar *ActivationResult) IsEmpty() bool {
	return len(ar.FiredNodes) == 0 && len(ar.CompletedPatterns) == 0
}

// ---------------------------------

// listener is a group of nodes of one pattern instance waiting for
// the input item at position `next`. Nodes in a group are connected
// via bypass edges, firing any of them consumes the whole group.
type listener struct {
	origin int
	next   int
	nodes  []int
	hasRef bool
	entry  bool
}

func (l *listener) key() string {
	var buff strings.Builder
	buff.WriteString(strconv.Itoa(l.origin))
	buff.WriteString("/")
	buff.WriteString(strconv.Itoa(l.next))
	for _, n := range l.nodes {
		buff.WriteString(":")
		buff.WriteString(strconv.Itoa(n))
	}
	return buff.String()
}

func (l *listener) contains(idx int) bool {
	for _, n := range l.nodes {
		if n == idx {
			return true
		}
	}
	return false
}

type fireKey struct {
	node      int
	origin    int
	refOrigin int
}

type stepState struct {
	ts           int
	res          *ActivationResult
	fired        map[fireKey]bool
	firedIDs     map[int]bool
	completions  map[Completion]bool
	pending      []Completion
	newListeners []*listener
	listenerKeys map[string]bool
}

// Instance holds the mutable activation state over a shared
// UnifiedGraph. An instance must not be used concurrently, create
// one per parsing goroutine.
type Instance struct {
	graph      *UnifiedGraph
	listeners  []*listener
	timestamps [][]int
	events     []ParseEvent
	seq        int
}

// Reset clears all the listeners, firing timestamps and events
func (inst *Instance) Reset() {
	inst.listeners = make([]*listener, 0, 32)
	inst.timestamps = make([][]int, len(inst.graph.nodes))
	inst.events = make([]ParseEvent, 0, 64)
	inst.seq = 0
}

// Activate processes a token at a timestamp (normally the token
// position). Only the nodes listening for this timestamp and the
// entry nodes of all the patterns can fire. A token matching no
// node produces an empty result.
func (inst *Instance) Activate(tok *token.Token, ts int) *ActivationResult {
	return inst.ActivateUnit(grammar.TokenUnit(tok), ts)
}

func (inst *Instance) ActivateUnit(u grammar.Unit, ts int) *ActivationResult {
	step := &stepState{
		ts: ts,
		res: &ActivationResult{
			Timestamp:         ts,
			FiredNodes:        []string{},
			CompletedPatterns: []Completion{},
			NewListeners:      []string{},
			Events:            []ParseEvent{},
		},
		fired:        make(map[fireKey]bool),
		firedIDs:     make(map[int]bool),
		completions:  make(map[Completion]bool),
		listenerKeys: make(map[string]bool),
	}
	kept := make([]*listener, 0, len(inst.listeners))
	candidates := make([]*listener, 0, len(inst.listeners)+len(inst.graph.patterns))
	for _, l := range inst.listeners {
		if l.next == ts {
			candidates = append(candidates, l)

		} else if l.next > ts || l.hasRef {
			kept = append(kept, l)
		}
	}
	for _, sg := range inst.graph.patterns {
		candidates = append(
			candidates,
			&listener{origin: ts, next: ts, nodes: inst.graph.entries[sg.Name], entry: true},
		)
	}
	for _, l := range candidates {
		var consumed bool
		for _, idx := range l.nodes {
			n := inst.graph.nodes[idx]
			if n.Type != NodeElement || !n.Matcher.Matches(u) {
				continue
			}
			consumed = true
			if inst.fire(step, idx, l.origin, ts) {
				inst.emit(step, ParseEvent{
					Type:         EventElementFired,
					Timestamp:    ts,
					Pattern:      n.Pattern,
					Origin:       l.origin,
					SourceNodeID: n.ID,
					ElementType:  n.ElementType(),
					Value:        u.Word,
				})
				inst.reach(step, inst.graph.closure(inst.graph.succ[idx]), l.origin)
			}
		}
		if !consumed && !l.entry && l.hasRef {
			kept = append(kept, l)
		}
	}
	kept = inst.propagate(step, kept)
	inst.listeners = inst.listeners[:0]
	keys := make(map[string]bool, len(kept)+len(step.newListeners))
	for _, l := range append(kept, step.newListeners...) {
		k := l.key()
		if !keys[k] {
			keys[k] = true
			inst.listeners = append(inst.listeners, l)
		}
	}
	return step.res
}

// propagate fires CONSTRUCTION_REF nodes listening for patterns
// completed within the step until there is nothing new to complete.
// A (node, origin) pair fires at most once per step and the pattern
// reference graph is acyclic so the loop terminates.
func (inst *Instance) propagate(step *stepState, waiting []*listener) []*listener {
	consumed := make(map[*listener]bool)
	for len(step.pending) > 0 {
		c := step.pending[0]
		step.pending = step.pending[1:]
		for _, ref := range inst.graph.refListeners[c.Pattern] {
			origins := make([]int, 0, 2)
			for _, l := range waiting {
				if !consumed[l] && l.next == c.Start && l.contains(ref) {
					consumed[l] = true
					origins = append(origins, l.origin)
				}
			}
			if inst.graph.inEntry[ref] {
				origins = append(origins, c.Start)
			}
			n := inst.graph.nodes[ref]
			for _, origin := range origins {
				if !inst.fire(step, ref, origin, c.Start) {
					continue
				}
				inst.emit(step, ParseEvent{
					Type:         EventRefFired,
					Timestamp:    step.ts,
					Pattern:      n.Pattern,
					Origin:       origin,
					SourceNodeID: n.ID,
					ElementType:  n.ElementType(),
					Value:        c.Pattern,
					RefOrigin:    c.Start,
				})
				inst.reach(step, inst.graph.closure(inst.graph.succ[ref]), origin)
			}
		}
	}
	ans := make([]*listener, 0, len(waiting))
	for _, l := range waiting {
		if !consumed[l] {
			ans = append(ans, l)
		}
	}
	return ans
}

// reach handles nodes activated by a firing: non-consuming nodes
// fire immediately, the others become a new listener
func (inst *Instance) reach(step *stepState, nodes []int, origin int) {
	waiting := make([]int, 0, len(nodes))
	for _, idx := range nodes {
		n := inst.graph.nodes[idx]
		switch n.Type {
		case NodeElement, NodeConstructionRef:
			waiting = append(waiting, idx)
		case NodeIntermediate, NodeEnd:
			if inst.fire(step, idx, origin, step.ts) {
				inst.reach(step, inst.graph.closure(inst.graph.succ[idx]), origin)
			}
		case NodePattern:
			if !inst.fire(step, idx, origin, step.ts) {
				continue
			}
			c := Completion{Pattern: n.Pattern, Start: origin, End: step.ts}
			if step.completions[c] {
				continue
			}
			step.completions[c] = true
			step.res.CompletedPatterns = append(step.res.CompletedPatterns, c)
			step.pending = append(step.pending, c)
			inst.emit(step, ParseEvent{
				Type:         EventPatternCompleted,
				Timestamp:    step.ts,
				Pattern:      n.Pattern,
				Origin:       origin,
				SourceNodeID: n.ID,
			})
		}
	}
	if len(waiting) == 0 {
		return
	}
	l := &listener{origin: origin, next: step.ts + 1, nodes: waiting}
	for _, idx := range waiting {
		if inst.graph.nodes[idx].Type == NodeConstructionRef {
			l.hasRef = true
		}
	}
	k := l.key()
	if step.listenerKeys[k] {
		return
	}
	step.listenerKeys[k] = true
	step.newListeners = append(step.newListeners, l)
	for _, idx := range waiting {
		id := inst.graph.nodes[idx].ID
		if !containsStr(step.res.NewListeners, id) {
			step.res.NewListeners = append(step.res.NewListeners, id)
		}
	}
}

func (inst *Instance) fire(step *stepState, idx, origin, refOrigin int) bool {
	k := fireKey{node: idx, origin: origin, refOrigin: refOrigin}
	if step.fired[k] {
		return false
	}
	step.fired[k] = true
	ts := inst.timestamps[idx]
	if len(ts) == 0 || ts[len(ts)-1] != step.ts {
		inst.timestamps[idx] = append(ts, step.ts)
	}
	if !step.firedIDs[idx] {
		step.firedIDs[idx] = true
		step.res.FiredNodes = append(step.res.FiredNodes, inst.graph.nodes[idx].ID)
	}
	return true
}

func (inst *Instance) emit(step *stepState, evt ParseEvent) {
	inst.seq++
	evt.Seq = inst.seq
	step.res.Events = append(step.res.Events, evt)
	inst.events = append(inst.events, evt)
}

// IsActive tells whether the node listens for an input
func (inst *Instance) IsActive(nodeID string) bool {
	idx, ok := inst.graph.index[nodeID]
	if !ok {
		return false
	}
	for _, l := range inst.listeners {
		if l.contains(idx) {
			return true
		}
	}
	return false
}

// ActiveNodes returns IDs of all the listening nodes (sorted)
func (inst *Instance) ActiveNodes() []string {
	seen := make(map[int]bool)
	ans := make([]string, 0, len(inst.listeners))
	for _, l := range inst.listeners {
		for _, idx := range l.nodes {
			if !seen[idx] {
				seen[idx] = true
				ans = append(ans, inst.graph.nodes[idx].ID)
			}
		}
	}
	sort.Strings(ans)
	return ans
}

// Timestamps returns the timestamps a node fired at
func (inst *Instance) Timestamps(nodeID string) []int {
	idx, ok := inst.graph.index[nodeID]
	if !ok {
		return []int{}
	}
	ans := make([]int, len(inst.timestamps[idx]))
	copy(ans, inst.timestamps[idx])
	return ans
}

// Events returns all the events since the last reset
func (inst *Instance) Events() []ParseEvent {
	return inst.events
}

// Run activates the instance with all the tokens of a sentence,
// using token IDs as timestamps.
func (inst *Instance) Run(sent *token.Sentence) []*ActivationResult {
	ans := make([]*ActivationResult, 0, sent.Len())
	for _, tok := range sent.Tokens {
		ans = append(ans, inst.Activate(tok, tok.ID))
	}
	return ans
}

func containsStr(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
