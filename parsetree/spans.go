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
	"sort"

	"cxparse/token"
)

// Span is a confirmed construction covering tokens [Start, End]
type Span struct {
	Name  string
	Label string
	Start int
	End   int
}

func (s Span) contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// FromSpans nests confirmed spans by containment. Tokens become
// terminals of the innermost span covering them, tokens outside of
// all the spans are omitted. A span crossing the boundary of a
// preceding one is placed at the nearest level containing it.
func FromSpans(sent *token.Sentence, spans []Span) *Tree {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})
	tree := New()
	type open struct {
		span Span
		idx  int
	}
	stack := make([]open, 0, 8)
	spanIdx := make([]int, len(sorted))
	for i, sp := range sorted {
		for len(stack) > 0 && !stack[len(stack)-1].span.contains(sp) {
			stack = stack[:len(stack)-1]
		}
		idx := tree.AddPattern(sp.Name, sp.Label, sp.Start, sp.End)
		spanIdx[i] = idx
		if len(stack) > 0 {
			tree.link(stack[len(stack)-1].idx, idx)
		}
		stack = append(stack, open{span: sp, idx: idx})
	}
	for _, tok := range sent.Tokens {
		best := -1
		for i, sp := range sorted {
			if sp.Start > tok.ID || sp.End < tok.ID {
				continue
			}
			if best < 0 || tree.Depth(spanIdx[i]) > tree.Depth(best) {
				best = spanIdx[i]
			}
		}
		if best < 0 {
			continue
		}
		term := tree.AddTerminal("word", tok.Word, "", tok.ID)
		tree.link(best, term)
	}
	tree.SortChildren()
	return tree
}
