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

package parser

import (
	"sort"

	"cxparse/analysis"
	"cxparse/grammar"

	"github.com/czcorpus/cnc-gokit/collections"
)

// ConfirmedNode is a confirmed construction with CE labels
// assigned at all the levels its definition specifies
type ConfirmedNode struct {
	ID           int                            `json:"id"`
	Alternative  int                            `json:"alternative"`
	Construction analysis.ConfirmedConstruction `json:"construction"`
}

// ConfirmedEdge links a confirmed node to a confirmed node
// it contains. Label is the child's CE label at the level
// of the parent.
type ConfirmedEdge struct {
	Parent int    `json:"parent"`
	Child  int    `json:"child"`
	Label  string `json:"label,omitempty"`
}

type AggregatedMWE struct {
	Node int          `json:"node"`
	Unit grammar.Unit `json:"unit"`
}

// Transition is a single record of the state history
type Transition struct {
	Position    int    `json:"position"`
	Alternative int    `json:"alternative"`
	Name        string `json:"name"`
	From        Status `json:"from"`
	To          Status `json:"to"`
}

// ParseStateV4 is the per-sentence state of the incremental matcher
type ParseStateV4 struct {
	Position          int             `json:"position"`
	ConsumedPositions []int           `json:"consumedPositions"`
	ConfirmedNodes    []ConfirmedNode `json:"confirmedNodes"`
	ConfirmedEdges    []ConfirmedEdge `json:"confirmedEdges"`
	AggregatedMWEs    []AggregatedMWE `json:"aggregatedMwes"`
	History           []Transition    `json:"history"`
	NumSpawned        int             `json:"numSpawned"`
	DroppedSpawns     int             `json:"droppedSpawns"`
}

func newParseState() *ParseStateV4 {
	return &ParseStateV4{
		ConsumedPositions: []int{},
		ConfirmedNodes:    []ConfirmedNode{},
		ConfirmedEdges:    []ConfirmedEdge{},
		AggregatedMWEs:    []AggregatedMWE{},
		History:           make([]Transition, 0, 100),
	}
}

func (st *ParseStateV4) IsConsumed(pos int) bool {
	return collections.SliceContains(st.ConsumedPositions, pos)
}

func (st *ParseStateV4) consume(start, end int) {
	for i := start; i <= end; i++ {
		if !st.IsConsumed(i) {
			st.ConsumedPositions = append(st.ConsumedPositions, i)
		}
	}
	sort.Ints(st.ConsumedPositions)
}

// addConfirmed stores a new node and links it to each maximal
// previously confirmed node it properly contains
func (st *ParseStateV4) addConfirmed(alt int, cc analysis.ConfirmedConstruction) ConfirmedNode {
	node := ConfirmedNode{
		ID:           len(st.ConfirmedNodes) + 1,
		Alternative:  alt,
		Construction: cc,
	}
	contained := collections.SliceFilter(
		st.ConfirmedNodes,
		func(v ConfirmedNode, i int) bool {
			return properlyContains(cc, v.Construction)
		},
	)
	level := cc.Type.NaturalLevel()
	for _, child := range contained {
		var covered bool
		for _, other := range contained {
			if other.ID == child.ID || !properlyContains(other.Construction, child.Construction) {
				continue
			}
			if sameSpan(other.Construction, child.Construction) && other.ID < child.ID {
				continue
			}
			covered = true
			break
		}
		if covered {
			continue
		}
		st.ConfirmedEdges = append(st.ConfirmedEdges, ConfirmedEdge{
			Parent: node.ID,
			Child:  child.ID,
			Label:  child.Construction.Labels.At(level),
		})
	}
	st.ConfirmedNodes = append(st.ConfirmedNodes, node)
	return node
}

func (st *ParseStateV4) Confirmed() []analysis.ConfirmedConstruction {
	return collections.SliceMap(
		st.ConfirmedNodes,
		func(v ConfirmedNode, i int) analysis.ConfirmedConstruction {
			return v.Construction
		},
	)
}

func (st *ParseStateV4) record(alt *AlternativeState, from, to Status) {
	st.History = append(st.History, Transition{
		Position:    st.Position,
		Alternative: alt.Seq,
		Name:        alt.Name,
		From:        from,
		To:          to,
	})
}

// properlyContains tests span containment, identical spans
// are contained only if the outer construction is confirmed later
// (e.g. `S -> [Clause]`)
func properlyContains(outer, inner analysis.ConfirmedConstruction) bool {
	if outer.Position > inner.Position || outer.End < inner.End {
		return false
	}
	return outer.Position != inner.Position || outer.End != inner.End || outer.Name != inner.Name
}

func sameSpan(a, b analysis.ConfirmedConstruction) bool {
	return a.Position == b.Position && a.End == b.End
}

func spansCross(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bStart && bStart <= aEnd && aEnd < bEnd ||
		bStart < aStart && aStart <= bEnd && bEnd < aEnd
}
