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

package cln

import (
	"fmt"
	"strings"

	"cxparse/grammar"
	"cxparse/token"
)

const (
	activationEpsilon = 1e-9
)

// L23Node is a feature node activated by the column input
// (word, lemma, POS, morphological features, confirmed
// constructions) or a node predicted by an L5 ghost.
type L23Node struct {
	Type       PredictionType `json:"type"`
	Value      string         `json:"value"`
	Activation float64        `json:"activation"`
	Predicted  bool           `json:"predicted,omitempty"`
	GhostID    string         `json:"ghostId,omitempty"`
}

type L23Layer struct {
	Nodes []L23Node `json:"nodes"`
}

func newL23Layer(tok *token.Token) *L23Layer {
	ans := &L23Layer{Nodes: make([]L23Node, 0, 8)}
	ans.Nodes = append(
		ans.Nodes,
		L23Node{Type: PredictWord, Value: tok.Word, Activation: 1},
		L23Node{Type: PredictLemma, Value: tok.Lemma, Activation: 1},
		L23Node{Type: PredictPOS, Value: tok.POS, Activation: 1},
	)
	feats := tok.Features()
	for _, kv := range splitFeats(feats) {
		ans.Nodes = append(ans.Nodes, L23Node{Type: PredictFeature, Value: kv, Activation: 1})
	}
	return ans
}

func splitFeats(feats token.Features) []string {
	if len(feats) == 0 {
		return []string{}
	}
	return strings.Split(feats.String(), token.FeaturesSeparator)
}

func (l *L23Layer) addPredicted(p Prediction) {
	l.Nodes = append(l.Nodes, L23Node{
		Type:       p.Type,
		Value:      p.Value,
		Activation: p.Strength,
		Predicted:  true,
		GhostID:    p.GhostID,
	})
}

// Active returns the input-driven (i.e. not predicted) nodes
func (l *L23Layer) Active() []L23Node {
	ans := make([]L23Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		if !n.Predicted {
			ans = append(ans, n)
		}
	}
	return ans
}

// Predicted returns nodes created by predictions made in the column
func (l *L23Layer) Predicted() []L23Node {
	ans := make([]L23Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.Predicted {
			ans = append(ans, n)
		}
	}
	return ans
}

func (l *L23Layer) Activation() float64 {
	var ans float64
	for _, n := range l.Nodes {
		if !n.Predicted {
			ans += n.Activation
		}
	}
	return ans
}

// ----------------------------

type component struct {
	slot int
	unit grammar.Unit
}

// Ghost is a partial construction anchored at a column
type Ghost struct {
	ID         string
	Def        *grammar.Definition
	Anchor     int
	End        int
	Next       int
	Activation float64
	Threshold  float64
	Confirmed  bool

	components   []component
	lastExtended int
}

func newGhost(def *grammar.Definition, slot int, u grammar.Unit, column int, ratio float64) *Ghost {
	return &Ghost{
		ID:           fmt.Sprintf("%s@%d", def.Name, u.Start),
		Def:          def,
		Anchor:       u.Start,
		End:          u.End,
		Next:         slot + 1,
		Activation:   1,
		Threshold:    ratio * float64(def.Compiled.Required()),
		components:   []component{{slot: slot, unit: u}},
		lastExtended: column,
	}
}

func (g *Ghost) matched(slot int) (grammar.Unit, bool) {
	for _, c := range g.components {
		if c.slot == slot {
			return c.unit, true
		}
	}
	return grammar.Unit{}, false
}

// accepts tests whether extending the ghost with the unit
// would keep its constraints satisfied
func (g *Ghost) accepts(slot int, u grammar.Unit) bool {
	return g.Def.Constraints.Check(func(s int) (grammar.Unit, bool) {
		if s == slot {
			return u, true
		}
		return g.matched(s)
	})
}

func (g *Ghost) extend(slot int, u grammar.Unit, column int) {
	g.components = append(g.components, component{slot: slot, unit: u})
	g.Next = slot + 1
	g.End = u.End
	g.lastExtended = column
}

func (g *Ghost) IsComplete() bool {
	return g.Def.Compiled.CompleteAt(g.Next) && g.Activation+activationEpsilon >= g.Threshold
}

// Expected lists slots the ghost waits for
func (g *Ghost) Expected() []string {
	cands := g.Def.Compiled.Candidates(g.Next)
	ans := make([]string, len(cands))
	for i, c := range cands {
		ans[i] = g.Def.Compiled[c].String()
	}
	return ans
}

func (g *Ghost) Words() []string {
	ans := make([]string, len(g.components))
	for i, c := range g.components {
		ans[i] = c.unit.Word
	}
	return ans
}

// GhostState is a snapshot of a ghost for diagnostics
type GhostState struct {
	ID           string   `json:"id"`
	Construction string   `json:"construction"`
	Anchor       int      `json:"anchor"`
	End          int      `json:"end"`
	Activation   float64  `json:"activation"`
	Threshold    float64  `json:"threshold"`
	Confirmed    bool     `json:"confirmed"`
	Expected     []string `json:"expected,omitempty"`
}

func (g *Ghost) State() GhostState {
	ans := GhostState{
		ID:           g.ID,
		Construction: g.Def.Name,
		Anchor:       g.Anchor,
		End:          g.End,
		Activation:   g.Activation,
		Threshold:    g.Threshold,
		Confirmed:    g.Confirmed,
	}
	if !g.Confirmed {
		ans.Expected = g.Expected()
	}
	return ans
}

// ----------------------------

// L5Layer holds ghosts anchored at a column
type L5Layer struct {
	Ghosts []*Ghost
}

func (l *L5Layer) Find(ghostID string) *Ghost {
	for _, g := range l.Ghosts {
		if g.ID == ghostID {
			return g
		}
	}
	return nil
}

// BoostPartialConstruction increases activation of a ghost
func (l *L5Layer) BoostPartialConstruction(ghostID string, boost float64) bool {
	g := l.Find(ghostID)
	if g == nil {
		return false
	}
	g.Activation += boost
	return true
}

func (l *L5Layer) Activation() float64 {
	var ans float64
	for _, g := range l.Ghosts {
		ans += g.Activation
	}
	return ans
}

// ----------------------------

// Column is a processing unit of one input position
type Column struct {
	Index int
	Token *token.Token
	L23   *L23Layer
	L5    *L5Layer
}

func newColumn(index int, tok *token.Token) *Column {
	return &Column{
		Index: index,
		Token: tok,
		L23:   newL23Layer(tok),
		L5:    &L5Layer{Ghosts: make([]*Ghost, 0, 4)},
	}
}
