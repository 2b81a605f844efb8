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

type SlotKind string

const (
	SlotWord         SlotKind = "word"
	SlotLemma        SlotKind = "lemma"
	SlotPOS          SlotKind = "pos"
	SlotFeature      SlotKind = "feature"
	SlotConstruction SlotKind = "construction"
	SlotWildcard     SlotKind = "wildcard"
)

// Slot is a single compiled item of a pattern
type Slot struct {
	Kind     SlotKind `json:"kind" yaml:"kind"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Matches tests the slot against a unit. Values are compared
// case-insensitively, construction names exactly.
func (s Slot) Matches(u Unit) bool {
	switch s.Kind {
	case SlotWord:
		return strings.EqualFold(u.Word, s.Value)
	case SlotLemma:
		return strings.EqualFold(u.Lemma, s.Value)
	case SlotPOS:
		return strings.EqualFold(u.POS, s.Value)
	case SlotFeature:
		v, ok := u.Feature(s.Key)
		return ok && strings.EqualFold(v, s.Value)
	case SlotConstruction:
		return u.HasConstruction(s.Value)
	case SlotWildcard:
		return true
	}
	return false
}

// Consuming tells whether the slot is matched by input tokens.
// Construction slots are satisfied by confirmed constructions instead.
func (s Slot) Consuming() bool {
	return s.Kind != SlotConstruction
}

func (s Slot) String() string {
	var ans string
	switch s.Kind {
	case SlotWord:
		ans = s.Value
	case SlotLemma:
		ans = "<" + s.Value + ">"
	case SlotPOS:
		ans = "{" + s.Value + "}"
	case SlotFeature:
		ans = "@" + s.Key + "=" + s.Value
	case SlotConstruction:
		ans = "[" + s.Value + "]"
	case SlotWildcard:
		ans = "*"
	}
	if s.Optional {
		ans += "?"
	}
	return ans
}

func (s Slot) validate() error {
	switch s.Kind {
	case SlotWord, SlotLemma, SlotPOS, SlotConstruction:
		if s.Value == "" {
			return fmt.Errorf("empty value in %s slot", s.Kind)
		}
	case SlotFeature:
		if s.Key == "" || s.Value == "" {
			return fmt.Errorf("feature slot requires both key and value")
		}
	case SlotWildcard:
	default:
		return fmt.Errorf("unknown slot kind `%s`", s.Kind)
	}
	return nil
}

// ---------------------------

func compileSlot(item string) (Slot, error) {
	var ans Slot
	if len(item) > 1 && strings.HasSuffix(item, "?") {
		ans.Optional = true
		item = item[:len(item)-1]
	}
	switch {
	case item == "*":
		ans.Kind = SlotWildcard
	case strings.HasPrefix(item, "{"):
		if !strings.HasSuffix(item, "}") {
			return ans, fmt.Errorf("unterminated POS slot `%s`", item)
		}
		ans.Kind = SlotPOS
		ans.Value = strings.ToUpper(item[1 : len(item)-1])
	case strings.HasPrefix(item, "<"):
		if !strings.HasSuffix(item, ">") {
			return ans, fmt.Errorf("unterminated lemma slot `%s`", item)
		}
		ans.Kind = SlotLemma
		ans.Value = item[1 : len(item)-1]
	case strings.HasPrefix(item, "["):
		if !strings.HasSuffix(item, "]") {
			return ans, fmt.Errorf("unterminated construction slot `%s`", item)
		}
		ans.Kind = SlotConstruction
		ans.Value = item[1 : len(item)-1]
	case strings.HasPrefix(item, "@"):
		k, v, ok := strings.Cut(item[1:], "=")
		if !ok {
			return ans, fmt.Errorf("invalid feature slot `%s`", item)
		}
		ans.Kind = SlotFeature
		ans.Key = k
		ans.Value = v
	default:
		ans.Kind = SlotWord
		ans.Value = item
	}
	return ans, ans.validate()
}

// Pattern is a compiled sequence of slots
type Pattern []Slot

// CompilePattern parses a whitespace-separated list of slots:
//
//	word      literal word form
//	{NOUN}    universal POS tag
//	<lemma>   lemma
//	[NP]      another (confirmed) construction
//	@Key=Val  morphological feature
//	*         any token
//
// A slot with a trailing `?` is optional.
func CompilePattern(src string) (Pattern, error) {
	items := strings.Fields(src)
	if len(items) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	ans := make(Pattern, len(items))
	for i, item := range items {
		slot, err := compileSlot(item)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		ans[i] = slot
	}
	if ans.Required() == 0 {
		return nil, fmt.Errorf("pattern `%s` contains only optional slots", src)
	}
	return ans, nil
}

func (p Pattern) String() string {
	items := make([]string, len(p))
	for i, s := range p {
		items[i] = s.String()
	}
	return strings.Join(items, " ")
}

// Required returns number of non-optional slots
func (p Pattern) Required() int {
	var ans int
	for _, s := range p {
		if !s.Optional {
			ans++
		}
	}
	return ans
}

// References returns names of constructions the pattern refers to
func (p Pattern) References() []string {
	ans := make([]string, 0, 2)
	for _, s := range p {
		if s.Kind == SlotConstruction {
			ans = append(ans, s.Value)
		}
	}
	return ans
}

// Candidates returns indices of slots which can match the next
// item when `idx` slots have been passed already. These are
// all the optional slots starting at idx and the first required one.
func (p Pattern) Candidates(idx int) []int {
	ans := make([]int, 0, 2)
	for i := idx; i < len(p); i++ {
		ans = append(ans, i)
		if !p[i].Optional {
			break
		}
	}
	return ans
}

// CompleteAt tells whether all the slots from idx on are optional
func (p Pattern) CompleteAt(idx int) bool {
	for i := idx; i < len(p); i++ {
		if !p[i].Optional {
			return false
		}
	}
	return true
}

// Match tests whether the whole sequence of units matches the pattern.
func (p Pattern) Match(units []Unit) bool {
	return p.matchFrom(0, units)
}

func (p Pattern) matchFrom(idx int, units []Unit) bool {
	if len(units) == 0 {
		return p.CompleteAt(idx)
	}
	for _, c := range p.Candidates(idx) {
		if p[c].Matches(units[0]) && p.matchFrom(c+1, units[1:]) {
			return true
		}
	}
	return false
}

// MatchSuffix tests whether some contiguous run of units ending
// with the last unit matches the pattern.
func (p Pattern) MatchSuffix(units []Unit) bool {
	for start := len(units) - 1; start >= 0; start-- {
		if p.Match(units[start:]) {
			return true
		}
	}
	return false
}
