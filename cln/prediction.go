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

type PredictionType string

const (
	PredictWord         PredictionType = "word"
	PredictLemma        PredictionType = "lemma"
	PredictPOS          PredictionType = "pos"
	PredictFeature      PredictionType = "feature"
	PredictConstruction PredictionType = "construction"
	PredictAny          PredictionType = "any"
)

func predictionTypeOf(kind grammar.SlotKind) PredictionType {
	switch kind {
	case grammar.SlotWord:
		return PredictWord
	case grammar.SlotLemma:
		return PredictLemma
	case grammar.SlotPOS:
		return PredictPOS
	case grammar.SlotFeature:
		return PredictFeature
	case grammar.SlotConstruction:
		return PredictConstruction
	}
	return PredictAny
}

// Prediction is a message from an L5 ghost construction to a newly
// created predicted node in L23 of the same column. It describes
// what the construction expects next.
type Prediction struct {
	GhostID      string         `json:"ghostId"`
	Construction string         `json:"construction"`
	Type         PredictionType `json:"type"`

	// Value is `Key=Value` for feature predictions
	Value    string  `json:"value,omitempty"`
	Strength float64 `json:"strength"`

	// Column is where the prediction was made
	Column int `json:"column"`

	// Slot is the pattern slot the prediction stands for
	Slot int `json:"slot"`
}

// Matches tests the prediction against a token
func (p Prediction) Matches(tok *token.Token) bool {
	return p.MatchesUnit(grammar.TokenUnit(tok))
}

// MatchesUnit compares values case-insensitively. Feature predictions
// never match units with empty or malformed features.
func (p Prediction) MatchesUnit(u grammar.Unit) bool {
	switch p.Type {
	case PredictWord:
		return strings.EqualFold(u.Word, p.Value)
	case PredictLemma:
		return strings.EqualFold(u.Lemma, p.Value)
	case PredictPOS:
		return strings.EqualFold(u.POS, p.Value)
	case PredictFeature:
		key, value, ok := strings.Cut(p.Value, "=")
		if !ok {
			return false
		}
		feats, err := token.ParseFeats(u.Feats)
		if err != nil || len(feats) == 0 {
			return false
		}
		for k, v := range feats {
			if strings.EqualFold(k, key) && strings.EqualFold(v, value) {
				return true
			}
		}
		return false
	case PredictConstruction:
		return u.HasConstruction(p.Value)
	case PredictAny:
		return len(u.Constructions) == 0
	}
	return false
}

func (p Prediction) String() string {
	return fmt.Sprintf("%s(%s:%s)@%d", p.Construction, p.Type, p.Value, p.Column)
}

func newPrediction(ghost *Ghost, slot int, strength float64, column int) Prediction {
	s := ghost.Def.Compiled[slot]
	ans := Prediction{
		GhostID:      ghost.ID,
		Construction: ghost.Def.Name,
		Type:         predictionTypeOf(s.Kind),
		Value:        s.Value,
		Strength:     strength,
		Column:       column,
		Slot:         slot,
	}
	if s.Kind == grammar.SlotFeature {
		ans.Value = s.Key + "=" + s.Value
	}
	return ans
}

// ----------------------------

// Confirmation is sent back from a column whose L23 matched
// a prediction to the L5 layer holding the predicting ghost.
type Confirmation struct {
	GhostID      string  `json:"ghostId"`
	Construction string  `json:"construction"`
	FromColumn   int     `json:"fromColumn"`
	ToColumn     int     `json:"toColumn"`
	Boost        float64 `json:"boost"`
}

// Apply boosts the ghost in the layer. It returns false if there
// is no such ghost in the layer.
func (c Confirmation) Apply(layer *L5Layer) bool {
	return layer.BoostPartialConstruction(c.GhostID, c.Boost)
}

// ----------------------------

// PredictionEntry is a registered prediction with its time to live.
// Time is measured in columns.
type PredictionEntry struct {
	Prediction
	CreatedAt int `json:"createdAt"`
	TTL       int `json:"ttl"`
	seq       int
}

func (pe *PredictionEntry) IsExpired(now int) bool {
	return now-pe.CreatedAt > pe.TTL
}
