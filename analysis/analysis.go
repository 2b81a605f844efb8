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

// Package analysis contains parsing results shared by both
// the incremental matcher and the columnar model.
package analysis

import (
	"sort"

	"cxparse/grammar"
	"cxparse/parsetree"
)

// ConfirmedConstruction is a finalized construction match
type ConfirmedConstruction struct {
	IDConstruction int                      `json:"idConstruction"`
	Name           string                   `json:"name"`
	Type           grammar.ConstructionType `json:"type"`

	// Position is the first token of the construction
	Position int `json:"position"`
	End      int `json:"end"`

	Pattern    string         `json:"pattern"`
	Labels     grammar.Labels `json:"labels"`
	Words      []string       `json:"words"`
	Activation float64        `json:"activation"`
	Threshold  float64        `json:"threshold"`
}

// Ratio is the activation relative to the threshold
func (cc ConfirmedConstruction) Ratio() float64 {
	if cc.Threshold <= 0 {
		return 0
	}
	return cc.Activation / cc.Threshold
}

func (cc ConfirmedConstruction) Span() parsetree.Span {
	var label string
	if def := cc.Labels.At(cc.Type.NaturalLevel()); def != "" {
		label = def

	} else if levs := cc.Labels.Levels(); len(levs) > 0 {
		label = cc.Labels.At(levs[0])
	}
	return parsetree.Span{Name: cc.Name, Label: label, Start: cc.Position, End: cc.End}
}

func NewConfirmed(def *grammar.Definition, start, end int, words []string) ConfirmedConstruction {
	return ConfirmedConstruction{
		IDConstruction: def.ID,
		Name:           def.Name,
		Type:           def.Type,
		Position:       start,
		End:            end,
		Pattern:        def.Pattern,
		Labels:         def.Labels,
		Words:          words,
	}
}

// PartialConstruction is a hypothesis which has not been confirmed
// by the end of the sentence
type PartialConstruction struct {
	Name       string                   `json:"name"`
	Type       grammar.ConstructionType `json:"type"`
	Position   int                      `json:"position"`
	End        int                      `json:"end"`
	Activation float64                  `json:"activation"`
	Threshold  float64                  `json:"threshold"`
	Expected   []string                 `json:"expected,omitempty"`
	Status     string                   `json:"status,omitempty"`
}

// Confidence is the mean activation/threshold ratio of confirmed
// constructions, 0 if there are none.
func Confidence(confirmed []ConfirmedConstruction) float64 {
	if len(confirmed) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confirmed {
		sum += c.Ratio()
	}
	return sum / float64(len(confirmed))
}

// SortConfirmed orders constructions by position, longer first.
// Constructions with identical spans are ordered from the highest
// level (sentential) down.
func SortConfirmed(items []ConfirmedConstruction) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		if items[i].End != items[j].End {
			return items[i].End > items[j].End
		}
		return items[i].Type.Rank() < items[j].Type.Rank()
	})
}

// Spans converts confirmed constructions to parse tree spans
func Spans(confirmed []ConfirmedConstruction) []parsetree.Span {
	ans := make([]parsetree.Span, len(confirmed))
	for i, c := range confirmed {
		ans[i] = c.Span()
	}
	return ans
}
