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
	"strings"

	"cxparse/token"
)

// Unit is whatever a pattern slot is tested against. It is either
// a single token or a confirmed construction span (e.g. an aggregated
// MWE) which then acts as one item.
type Unit struct {

	// Start and End are 1-based token positions (inclusive)
	Start int `json:"start"`
	End   int `json:"end"`

	Word  string `json:"word"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Feats string `json:"feats,omitempty"`

	// Head is the position of the head token of the unit
	Head int `json:"head"`

	// Constructions lists names of confirmed constructions
	// the unit stands for
	Constructions []string `json:"constructions,omitempty"`

	// Aggregate marks a span collapsed into a single lexical item
	Aggregate bool `json:"aggregate,omitempty"`
}

func TokenUnit(t *token.Token) Unit {
	return Unit{
		Start: t.ID,
		End:   t.ID,
		Word:  t.Word,
		Lemma: t.Lemma,
		POS:   t.POS,
		Feats: t.Feats,
		Head:  t.ID,
	}
}

func (u Unit) Len() int {
	return u.End - u.Start + 1
}

func (u Unit) IsSpan() bool {
	return u.End > u.Start || len(u.Constructions) > 0
}

// IsLexical tells whether the unit can be matched by word, lemma,
// POS and feature slots. This is true for tokens and aggregated spans.
func (u Unit) IsLexical() bool {
	return !u.IsSpan() || u.Aggregate
}

func (u Unit) Feature(key string) (string, bool) {
	feats, err := token.ParseFeats(u.Feats)
	if err != nil {
		return "", false
	}
	for k, v := range feats {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (u Unit) HasConstruction(name string) bool {
	for _, c := range u.Constructions {
		if c == name {
			return true
		}
	}
	return false
}

// SpanHead finds the head of a contiguous span of tokens - the token
// whose parent lies outside the span. If there are more such tokens,
// the last one is used.
func SpanHead(sent *token.Sentence, start, end int) *token.Token {
	var ans *token.Token
	for i := start; i <= end; i++ {
		tok := sent.At(i)
		if tok == nil {
			continue
		}
		if tok.Parent < start || tok.Parent > end {
			ans = tok
		}
	}
	if ans == nil {
		return sent.At(end)
	}
	return ans
}

// AggregateSpan creates a unit representing tokens [start, end]
// of a confirmed construction. For AggregateNone, the unit carries
// just the construction name and the head's POS.
func AggregateSpan(
	sent *token.Sentence,
	start, end int,
	policy AggregationPolicy,
	cxName string,
) Unit {
	head := SpanHead(sent, start, end)
	ans := Unit{
		Start:         start,
		End:           end,
		POS:           head.POS,
		Head:          head.ID,
		Constructions: []string{cxName},
	}
	switch policy {
	case AggregateCollapse:
		words := make([]string, 0, end-start+1)
		lemmas := make([]string, 0, end-start+1)
		for i := start; i <= end; i++ {
			words = append(words, sent.At(i).Word)
			lemmas = append(lemmas, sent.At(i).Lemma)
		}
		ans.Word = strings.Join(words, "_")
		ans.Lemma = strings.Join(lemmas, "_")
		ans.Feats = head.Feats
		ans.Aggregate = true
	case AggregateHead:
		ans.Word = head.Word
		ans.Lemma = head.Lemma
		ans.Feats = head.Feats
		ans.Aggregate = true
	}
	return ans
}
