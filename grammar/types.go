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

package grammar

import (
	"fmt"
	"strings"
)

type ConstructionType string

const (
	TypeMWE        ConstructionType = "mwe"
	TypePhrasal    ConstructionType = "phrasal"
	TypeClausal    ConstructionType = "clausal"
	TypeSentential ConstructionType = "sentential"
)

// PriorityBand returns the inclusive range of priorities allowed
// for the construction type.
func (ct ConstructionType) PriorityBand() (lo, hi int) {
	switch ct {
	case TypeMWE:
		return 100, 199
	case TypePhrasal:
		return 50, 99
	case TypeClausal:
		return 20, 49
	case TypeSentential:
		return 1, 19
	}
	return 0, -1
}

func (ct ConstructionType) Validate() error {
	switch ct {
	case TypeMWE, TypePhrasal, TypeClausal, TypeSentential:
		return nil
	}
	return fmt.Errorf("unknown construction type `%s`", ct)
}

// Rank orders types from the most specific (MWE = 4)
// to the least specific (sentential = 1).
func (ct ConstructionType) Rank() int {
	switch ct {
	case TypeMWE:
		return 4
	case TypePhrasal:
		return 3
	case TypeClausal:
		return 2
	case TypeSentential:
		return 1
	}
	return 0
}

// ParseConstructionType accepts also the capitalized forms
// used by some older grammar exports ("MWE", "Phrasal").
func ParseConstructionType(s string) (ConstructionType, error) {
	ans := ConstructionType(strings.ToLower(strings.TrimSpace(s)))
	return ans, ans.Validate()
}

// ---------------------------

type Level string

const (
	LevelPhrasal    Level = "phrasal"
	LevelClausal    Level = "clausal"
	LevelSentential Level = "sentential"
)

// Labels contains CE labels the construction assigns to its span
// at individual levels. A single construction may label more levels.
type Labels struct {
	Phrasal    string `json:"phrasal,omitempty" yaml:"phrasal,omitempty"`
	Clausal    string `json:"clausal,omitempty" yaml:"clausal,omitempty"`
	Sentential string `json:"sentential,omitempty" yaml:"sentential,omitempty"`
}

func (l Labels) At(level Level) string {
	switch level {
	case LevelPhrasal:
		return l.Phrasal
	case LevelClausal:
		return l.Clausal
	case LevelSentential:
		return l.Sentential
	}
	return ""
}

func (l Labels) IsEmpty() bool {
	return l.Phrasal == "" && l.Clausal == "" && l.Sentential == ""
}

// Levels returns levels with a non-empty label, from the lowest one
func (l Labels) Levels() []Level {
	ans := make([]Level, 0, 3)
	for _, lev := range []Level{LevelPhrasal, LevelClausal, LevelSentential} {
		if l.At(lev) != "" {
			ans = append(ans, lev)
		}
	}
	return ans
}

// AsMap is used when exporting labels to clients
func (l Labels) AsMap() map[Level]string {
	ans := make(map[Level]string)
	for _, lev := range l.Levels() {
		ans[lev] = l.At(lev)
	}
	return ans
}

// NaturalLevel is the level matching the construction type.
// MWEs label on the phrasal level.
func (ct ConstructionType) NaturalLevel() Level {
	switch ct {
	case TypeClausal:
		return LevelClausal
	case TypeSentential:
		return LevelSentential
	}
	return LevelPhrasal
}

// ---------------------------

// AggregationPolicy says how a matched span collapses into
// a single node once confirmed.
type AggregationPolicy string

const (
	// AggregateCollapse joins forms and lemmas with `_`, POS is taken from the span head
	AggregateCollapse AggregationPolicy = "collapse"

	// AggregateHead represents the span by its head token
	AggregateHead AggregationPolicy = "head"

	// AggregateNone produces no aggregated node
	AggregateNone AggregationPolicy = "none"
)

func (ap AggregationPolicy) Validate() error {
	switch ap {
	case AggregateCollapse, AggregateHead, AggregateNone:
		return nil
	}
	return fmt.Errorf("unknown aggregation policy `%s`", ap)
}

func (ct ConstructionType) DefaultAggregation() AggregationPolicy {
	if ct == TypeMWE {
		return AggregateCollapse
	}
	return AggregateNone
}
