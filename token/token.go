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

package token

import (
	"fmt"
	"sort"
	"strings"
)

const (
	FeaturesSeparator = "|"
	FeatureSeparator  = "="
	EmptyField        = "_"
	RootParent        = 0
)

// Token is a single UD-tagged input unit. Tokens are read-only once
// the sentence is validated, derived data go to Annotation.
type Token struct {

	// ID is a 1-based position within the sentence
	ID int `json:"id"`

	Word  string `json:"word"`
	Lemma string `json:"lemma"`

	// POS is the universal POS tag (UPOS)
	POS string `json:"pos"`

	// Rel is a dependency relation to the parent token
	Rel string `json:"rel"`

	// Parent is an ID of the head token, 0 means root
	Parent int `json:"parent"`

	// Feats is a raw `Key=Value|Key=Value` string, `_` or empty means none
	Feats string `json:"feats"`
}

func (t *Token) String() string {
	return fmt.Sprintf("%d:%s/%s", t.ID, t.Word, t.POS)
}

// Features returns parsed morphological features. Malformed
// features yield an empty map.
func (t *Token) Features() Features {
	f, err := ParseFeats(t.Feats)
	if err != nil {
		return Features{}
	}
	return f
}

// Feature returns a value of a morphological feature. The lookup
// is case-insensitive regarding the key.
func (t *Token) Feature(key string) (string, bool) {
	feats, err := ParseFeats(t.Feats)
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

func (t *Token) IsPunct() bool {
	return t.POS == "PUNCT" || t.Rel == "punct"
}

func (t *Token) IsVerbal() bool {
	return t.POS == "VERB" || t.POS == "AUX"
}

func (t *Token) IsNominal() bool {
	return t.POS == "NOUN" || t.POS == "PROPN" || t.POS == "PRON" || t.POS == "NUM"
}

// ------------------------

type Features map[string]string

func (f Features) String() string {
	if len(f) == 0 {
		return EmptyField
	}
	items := make([]string, 0, len(f))
	for k, v := range f {
		items = append(items, k+FeatureSeparator+v)
	}
	sort.Strings(items)
	return strings.Join(items, FeaturesSeparator)
}

// ParseFeats parses a `|`-delimited list of `Key=Value` pairs.
// An empty string or `_` produce an empty (nil) map.
func ParseFeats(s string) (Features, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == EmptyField {
		return nil, nil
	}
	items := strings.Split(s, FeaturesSeparator)
	ans := make(Features, len(items))
	for _, item := range items {
		kv := strings.SplitN(item, FeatureSeparator, 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, fmt.Errorf("invalid feature `%s`", item)
		}
		if prev, ok := ans[kv[0]]; ok {
			ans[kv[0]] = prev + "," + kv[1]

		} else {
			ans[kv[0]] = kv[1]
		}
	}
	return ans, nil
}

// ------------------------

type Marker string

const (
	MarkerNone     Marker = ""
	MarkerPhrase   Marker = "+"
	MarkerClause   Marker = "#"
	MarkerSentence Marker = "."
	MarkerJoin     Marker = "^"
	MarkerOpen     Marker = "{"
	MarkerClose    Marker = "}"
)

// Annotation holds data derived for a token by analysis passes.
// Optional integer fields are nil when not assigned.
type Annotation struct {
	ClauseID          *int   `json:"clauseId,omitempty"`
	BoundaryAfter     Marker `json:"boundaryAfter,omitempty"`
	MWEGroup          *int   `json:"mweGroup,omitempty"`
	JoinWithNext      bool   `json:"joinWithNext,omitempty"`
	InterruptionStart bool   `json:"interruptionStart,omitempty"`
	InterruptionEnd   bool   `json:"interruptionEnd,omitempty"`
}

func (a *Annotation) SetClause(id int) {
	a.ClauseID = &id
}

func (a *Annotation) SetMWEGroup(id int) {
	a.MWEGroup = &id
}

// Clause returns a clause ID or -1 if not assigned
func (a *Annotation) Clause() int {
	if a.ClauseID == nil {
		return -1
	}
	return *a.ClauseID
}

// ------------------------

// Sentence is an ordered list of tokens (token i has ID i+1)
type Sentence struct {
	ID     string   `json:"id"`
	Tokens []*Token `json:"tokens"`
}

func (s *Sentence) Len() int {
	return len(s.Tokens)
}

// At returns a token by its 1-based ID or nil if out of range
func (s *Sentence) At(id int) *Token {
	if id < 1 || id > len(s.Tokens) {
		return nil
	}
	return s.Tokens[id-1]
}

// Children returns IDs of tokens depending on the token with the
// provided ID (0 = the artificial root), in linear order.
func (s *Sentence) Children(id int) []int {
	ans := make([]int, 0, 4)
	for _, t := range s.Tokens {
		if t.Parent == id {
			ans = append(ans, t.ID)
		}
	}
	return ans
}

func (s *Sentence) Text() string {
	var buff strings.Builder
	for i, t := range s.Tokens {
		if i > 0 {
			buff.WriteString(" ")
		}
		buff.WriteString(t.Word)
	}
	return buff.String()
}

// New is a shorthand constructor used by fixtures and adapters
func New(id int, word, lemma, pos, rel string, parent int, feats string) *Token {
	return &Token{
		ID:     id,
		Word:   word,
		Lemma:  lemma,
		POS:    pos,
		Rel:    rel,
		Parent: parent,
		Feats:  feats,
	}
}
