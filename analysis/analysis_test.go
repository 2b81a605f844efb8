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

package analysis

import (
	"testing"

	"cxparse/grammar"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(nil))
}

func TestConfidenceIsMonotonic(t *testing.T) {
	items := []ConfirmedConstruction{
		{Name: "NP", Activation: 2, Threshold: 2},
		{Name: "Clause", Activation: 1.5, Threshold: 2},
	}
	before := Confidence(items)
	assert.InDelta(t, 0.875, before, 1e-9)
	items[1].Activation = 1.8
	assert.Greater(t, Confidence(items), before)
}

func TestSpanUsesNaturalLevelLabel(t *testing.T) {
	cc := ConfirmedConstruction{
		Name:     "NP",
		Type:     grammar.TypePhrasal,
		Position: 1,
		End:      2,
		Labels:   grammar.Labels{Phrasal: "Arg", Clausal: "Subj"},
	}
	sp := cc.Span()
	assert.Equal(t, "Arg", sp.Label)
	cc.Labels = grammar.Labels{Clausal: "Subj"}
	assert.Equal(t, "Subj", cc.Span().Label)
}

func TestSortConfirmed(t *testing.T) {
	items := []ConfirmedConstruction{
		{Name: "NP", Position: 3, End: 4},
		{Name: "Clause", Position: 1, End: 5},
		{Name: "Det", Position: 1, End: 2},
	}
	SortConfirmed(items)
	assert.Equal(t, "Clause", items[0].Name)
	assert.Equal(t, "Det", items[1].Name)
	assert.Equal(t, "NP", items[2].Name)
}
