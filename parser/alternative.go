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
	"fmt"

	"cxparse/grammar"
	"cxparse/merror"
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusProgressing       Status = "progressing"
	StatusComplete          Status = "complete"
	StatusTentativeComplete Status = "tentative_complete"
	StatusConfirmed         Status = "confirmed"
	StatusInvalidated       Status = "invalidated"
	StatusAbandoned         Status = "abandoned"
	StatusAggregated        Status = "aggregated"
)

var transitions = map[Status][]Status{
	StatusPending:           {StatusProgressing, StatusComplete, StatusAbandoned},
	StatusProgressing:       {StatusProgressing, StatusComplete, StatusAbandoned},
	StatusComplete:          {StatusConfirmed, StatusTentativeComplete, StatusAbandoned},
	StatusTentativeComplete: {StatusConfirmed, StatusInvalidated},
	StatusConfirmed:         {StatusAggregated},
}

// IsLive tells whether the status still allows the alternative
// to produce a construction.
func (s Status) IsLive() bool {
	switch s {
	case StatusPending, StatusProgressing, StatusComplete, StatusTentativeComplete:
		return true
	}
	return false
}

func (s Status) IsFinal() bool {
	return len(transitions[s]) == 0
}

func (s Status) canChangeTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// ----------------------------

type component struct {
	Slot int          `json:"slot"`
	Unit grammar.Unit `json:"unit"`
}

// AlternativeState is a single construction hypothesis. The variant
// (MWE, phrasal, clausal, sentential) is given by Type, the shared
// state is the same for all of them.
type AlternativeState struct {
	Seq        int                      `json:"seq"`
	Def        *grammar.Definition      `json:"-"`
	Name       string                   `json:"name"`
	Type       grammar.ConstructionType `json:"type"`
	Priority   int                      `json:"priority"`
	Start      int                      `json:"start"`
	End        int                      `json:"end"`
	Next       int                      `json:"next"`
	Activation float64                  `json:"activation"`
	Threshold  float64                  `json:"threshold"`
	Status     Status                   `json:"status"`

	// OnAggregate is set for alternatives spawned on an aggregated
	// MWE unit instead of a token
	OnAggregate bool `json:"onAggregate,omitempty"`

	LookaheadCounter int `json:"lookaheadCounter,omitempty"`

	// suspendedOn is the Seq of an MWE alternative this one waits for
	suspendedOn int

	// heldBy is the Seq of a higher band alternative which keeps
	// this complete one from being confirmed
	heldBy int

	components []component
	window     []grammar.Unit
}

func newAlternative(seq int, def *grammar.Definition, start int, thresholdRatio float64) *AlternativeState {
	return &AlternativeState{
		Seq:        seq,
		Def:        def,
		Name:       def.Name,
		Type:       def.Type,
		Priority:   def.Priority,
		Start:      start,
		End:        start - 1,
		Threshold:  thresholdRatio * float64(def.Compiled.Required()),
		Status:     StatusPending,
		components: make([]component, 0, len(def.Compiled)),
	}
}

func (alt *AlternativeState) String() string {
	return fmt.Sprintf("%s#%d[%d,%d]:%s", alt.Name, alt.Seq, alt.Start, alt.End, alt.Status)
}

func (alt *AlternativeState) IsSuspended() bool {
	return alt.suspendedOn > 0
}

// ExpectedNext returns slots the alternative can continue with
func (alt *AlternativeState) ExpectedNext() []grammar.Slot {
	cands := alt.Def.Compiled.Candidates(alt.Next)
	ans := make([]grammar.Slot, len(cands))
	for i, c := range cands {
		ans[i] = alt.Def.Compiled[c]
	}
	return ans
}

// ExpectsConstruction returns names of constructions the alternative
// can continue with
func (alt *AlternativeState) ExpectsConstruction() []string {
	ans := make([]string, 0, 2)
	for _, s := range alt.ExpectedNext() {
		if s.Kind == grammar.SlotConstruction {
			ans = append(ans, s.Value)
		}
	}
	return ans
}

func (alt *AlternativeState) matched(slot int) (grammar.Unit, bool) {
	for _, c := range alt.components {
		if c.Slot == slot {
			return c.Unit, true
		}
	}
	return grammar.Unit{}, false
}

// slotFor finds the first expected slot matched by the unit
// with the construction constraints satisfied. Units must follow
// the already matched ones without gaps.
func (alt *AlternativeState) slotFor(u grammar.Unit) (int, bool) {
	if u.Start != alt.End+1 {
		return -1, false
	}
	for _, c := range alt.Def.Compiled.Candidates(alt.Next) {
		slot := alt.Def.Compiled[c]
		if !slot.Matches(u) {
			continue
		}
		if !u.IsLexical() && slot.Kind != grammar.SlotConstruction {
			continue
		}
		ok := alt.Def.Constraints.Check(func(s int) (grammar.Unit, bool) {
			if s == c {
				return u, true
			}
			return alt.matched(s)
		})
		if ok {
			return c, true
		}
	}
	return -1, false
}

func (alt *AlternativeState) CanAdvance(u grammar.Unit) bool {
	if !alt.Status.IsLive() || alt.Status == StatusComplete ||
		alt.Status == StatusTentativeComplete {
		return false
	}
	_, ok := alt.slotFor(u)
	return ok
}

// advance consumes the unit. A matched optional slot raises
// the threshold too so an alternative is complete once all
// its required slots are matched.
func (alt *AlternativeState) advance(u grammar.Unit) (Status, error) {
	if alt.Status != StatusPending && alt.Status != StatusProgressing {
		return alt.Status, merror.NewInvariantViolation(
			"cannot advance %s from status %s", alt, alt.Status)
	}
	slot, ok := alt.slotFor(u)
	if !ok {
		return alt.Status, merror.NewInvariantViolation(
			"unit %d-%d does not match expected slots of %s", u.Start, u.End, alt)
	}
	alt.components = append(alt.components, component{Slot: slot, Unit: u})
	alt.Activation++
	if alt.Def.Compiled[slot].Optional {
		alt.Threshold++
	}
	alt.Next = slot + 1
	alt.End = u.End
	if alt.Def.Compiled.CompleteAt(alt.Next) && alt.Activation+1e-9 >= alt.Threshold {
		return StatusComplete, nil
	}
	return StatusProgressing, nil
}

// usesTokenIn tells whether the alternative matched a token (not
// an aggregated unit) at a position from the interval
func (alt *AlternativeState) usesTokenIn(start, end int) bool {
	for _, c := range alt.components {
		if !c.Unit.IsSpan() && c.Unit.Start >= start && c.Unit.Start <= end {
			return true
		}
	}
	return false
}

// contains tells whether a confirmed construction is a component
func (alt *AlternativeState) contains(name string, start, end int) bool {
	for _, c := range alt.components {
		if c.Unit.Start == start && c.Unit.End == end && c.Unit.HasConstruction(name) {
			return true
		}
	}
	return false
}

func (alt *AlternativeState) Words() []string {
	ans := make([]string, len(alt.components))
	for i, c := range alt.components {
		ans[i] = c.Unit.Word
		if ans[i] == "" && len(c.Unit.Constructions) > 0 {
			ans[i] = "[" + c.Unit.Constructions[0] + "]"
		}
	}
	return ans
}

func (alt *AlternativeState) Expected() []string {
	slots := alt.ExpectedNext()
	ans := make([]string, len(slots))
	for i, s := range slots {
		ans[i] = s.String()
	}
	return ans
}
