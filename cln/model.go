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
	"sort"

	"cxparse/analysis"
	"cxparse/grammar"
	"cxparse/parsetree"
	"cxparse/token"

	"github.com/rs/zerolog/log"
)

// ColumnActivationResult is a snapshot of processing of a single column
type ColumnActivationResult struct {
	Column             int                              `json:"column"`
	Token              string                           `json:"token"`
	MatchedPredictions []Prediction                     `json:"matchedPredictions"`
	Confirmations      []Confirmation                   `json:"confirmations"`
	ActivatedNodes     []L23Node                        `json:"activatedNodes"`
	ActivatedPartials  []GhostState                     `json:"activatedPartials"`
	Confirmed          []analysis.ConfirmedConstruction `json:"confirmed"`
	Predictions        []Prediction                     `json:"predictions"`
	TotalActivation    float64                          `json:"totalActivation"`
}

// SequenceResult is an end-of-sentence rollup of column results
type SequenceResult struct {
	SentenceID      string                           `json:"sentenceId"`
	Columns         []*ColumnActivationResult        `json:"columns"`
	Confirmed       []analysis.ConfirmedConstruction `json:"confirmed"`
	Partial         []analysis.PartialConstruction   `json:"partial"`
	Tree            *parsetree.Tree                  `json:"tree"`
	TotalConfidence float64                          `json:"totalConfidence"`
}

// ----------------------------

// Model is the per-sentence state of the columnar layer. The grammar
// is shared, everything else is created fresh for each sentence.
type Model struct {
	conf      Conf
	grammar   *grammar.Grammar
	sent      *token.Sentence
	columns   []*Column
	registry  *Registry
	ghosts    map[string]*Ghost
	order     []*Ghost
	confirmed []analysis.ConfirmedConstruction
	results   []*ColumnActivationResult
}

func NewModel(g *grammar.Grammar, conf Conf) *Model {
	return &Model{
		conf:     conf,
		grammar:  g,
		sent:     &token.Sentence{Tokens: make([]*token.Token, 0, 30)},
		registry: NewRegistry(),
		ghosts:   make(map[string]*Ghost),
	}
}

func (m *Model) Registry() *Registry {
	return m.registry
}

func (m *Model) Column(index int) *Column {
	if index < 1 || index > len(m.columns) {
		return nil
	}
	return m.columns[index-1]
}

// columnStep holds data of a single ProcessInput call
type columnStep struct {
	column  *Column
	res     *ColumnActivationResult
	touched []*Ghost
}

func (step *columnStep) touch(g *Ghost) {
	for _, t := range step.touched {
		if t == g {
			return
		}
	}
	step.touched = append(step.touched, g)
}

// ProcessInput activates a new column with a token. Columns must be
// processed in order, the column index is the token position.
func (m *Model) ProcessInput(index int, tok *token.Token) *ColumnActivationResult {
	column := newColumn(index, tok)
	m.columns = append(m.columns, column)
	m.sent.Tokens = append(m.sent.Tokens, tok)
	step := &columnStep{
		column: column,
		res: &ColumnActivationResult{
			Column:             index,
			Token:              tok.Word,
			MatchedPredictions: []Prediction{},
			Confirmations:      []Confirmation{},
			ActivatedPartials:  []GhostState{},
			Confirmed:          []analysis.ConfirmedConstruction{},
			Predictions:        []Prediction{},
		},
	}
	for _, entry := range m.registry.Sweep(index) {
		log.Debug().
			Str("prediction", entry.Prediction.String()).
			Int("column", index).
			Msg("prediction expired")
	}
	queue := []grammar.Unit{grammar.TokenUnit(tok)}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		m.matchPredictions(step, u)
		m.spawn(step, u)
		queue = append(queue, m.confirmCompleted(step)...)
	}
	m.predict(step)

	step.res.ActivatedNodes = column.L23.Active()
	step.res.TotalActivation = column.L23.Activation()
	for _, g := range step.touched {
		step.res.ActivatedPartials = append(step.res.ActivatedPartials, g.State())
		step.res.TotalActivation += g.Activation
	}
	m.results = append(m.results, step.res)
	return step.res
}

// matchPredictions tests live predictions made before the unit
// starts, the most recent first. A ghost is extended at most once
// per column and with exclusive matching, the unit confirms only
// the first matching prediction. Non-lexical units of confirmed
// constructions satisfy construction predictions only.
func (m *Model) matchPredictions(step *columnStep, u grammar.Unit) {
	index := step.column.Index
	for _, entry := range m.registry.LIFO(index) {
		if entry.Column >= u.Start || !entry.MatchesUnit(u) {
			continue
		}
		if !u.IsLexical() && entry.Type != PredictConstruction {
			continue
		}
		ghost := m.ghosts[entry.GhostID]
		if ghost == nil || ghost.Confirmed || ghost.lastExtended == index {
			continue
		}
		if !ghost.accepts(entry.Slot, u) {
			continue
		}
		step.res.MatchedPredictions = append(step.res.MatchedPredictions, entry.Prediction)
		confirmation := Confirmation{
			GhostID:      ghost.ID,
			Construction: ghost.Def.Name,
			FromColumn:   index,
			ToColumn:     ghost.Anchor,
			Boost:        entry.Strength,
		}
		if !confirmation.Apply(m.Column(ghost.Anchor).L5) {
			log.Error().
				Str("ghost", ghost.ID).
				Msg("confirmation sent to a column without the ghost")
			continue
		}
		step.res.Confirmations = append(step.res.Confirmations, confirmation)
		ghost.extend(entry.Slot, u, index)
		m.registry.RemoveGhost(ghost.ID)
		step.touch(ghost)
		if m.conf.IsExclusive() {
			return
		}
	}
}

// spawn creates ghosts of constructions which can start with the unit
func (m *Model) spawn(step *columnStep, u grammar.Unit) {
	for _, def := range m.grammar.Enabled() {
		for _, slot := range def.Compiled.Candidates(0) {
			s := def.Compiled[slot]
			if !s.Matches(u) || !u.IsLexical() && s.Kind != grammar.SlotConstruction {
				continue
			}
			ghost := newGhost(def, slot, u, step.column.Index, m.conf.ThresholdRatio)
			if _, ok := m.ghosts[ghost.ID]; ok {
				break
			}
			if !ghost.accepts(slot, u) {
				continue
			}
			m.ghosts[ghost.ID] = ghost
			m.order = append(m.order, ghost)
			anchor := m.Column(ghost.Anchor)
			anchor.L5.Ghosts = append(anchor.L5.Ghosts, ghost)
			step.touch(ghost)
			break
		}
	}
}

// confirmCompleted promotes complete ghosts touched in the step,
// the higher priority first. For each of them a construction node
// is added to the column L23 layer and the corresponding unit is
// returned so it can confirm predictions and spawn new ghosts.
func (m *Model) confirmCompleted(step *columnStep) []grammar.Unit {
	complete := make([]*Ghost, 0, 2)
	for _, g := range step.touched {
		if !g.Confirmed && g.IsComplete() {
			complete = append(complete, g)
		}
	}
	sort.SliceStable(complete, func(i, j int) bool {
		if complete[i].Def.Priority != complete[j].Def.Priority {
			return complete[i].Def.Priority > complete[j].Def.Priority
		}
		return complete[i].Anchor < complete[j].Anchor
	})
	ans := make([]grammar.Unit, 0, len(complete))
	for _, g := range complete {
		g.Confirmed = true
		m.registry.RemoveGhost(g.ID)
		cc := analysis.NewConfirmed(g.Def, g.Anchor, g.End, g.Words())
		cc.Activation = g.Activation
		cc.Threshold = g.Threshold
		m.confirmed = append(m.confirmed, cc)
		step.res.Confirmed = append(step.res.Confirmed, cc)
		step.column.L23.Nodes = append(step.column.L23.Nodes, L23Node{
			Type:       PredictConstruction,
			Value:      g.Def.Name,
			Activation: cc.Ratio(),
		})
		log.Debug().
			Str("construction", g.Def.Name).
			Int("start", g.Anchor).
			Int("end", g.End).
			Float64("activation", g.Activation).
			Msg("construction confirmed")
		ans = append(ans, grammar.AggregateSpan(m.sent, g.Anchor, g.End, g.Def.Aggregation, g.Def.Name))
	}
	return ans
}

// predict registers predictions of all the ghosts touched in
// the step which are not confirmed yet.
func (m *Model) predict(step *columnStep) {
	for _, g := range step.touched {
		if g.Confirmed {
			continue
		}
		for _, slot := range g.Def.Compiled.Candidates(g.Next) {
			p := newPrediction(g, slot, m.conf.PredictionStrength, step.column.Index)
			m.registry.Push(p, step.column.Index, m.conf.PredictionTTL)
			step.column.L23.addPredicted(p)
			step.res.Predictions = append(step.res.Predictions, p)
		}
	}
}

// Finish creates the sentence rollup
func (m *Model) Finish() *SequenceResult {
	confirmed := make([]analysis.ConfirmedConstruction, len(m.confirmed))
	copy(confirmed, m.confirmed)
	analysis.SortConfirmed(confirmed)
	ans := &SequenceResult{
		SentenceID:      m.sent.ID,
		Columns:         m.results,
		Confirmed:       confirmed,
		Partial:         make([]analysis.PartialConstruction, 0, len(m.order)),
		Tree:            parsetree.FromSpans(m.sent, analysis.Spans(confirmed)),
		TotalConfidence: analysis.Confidence(confirmed),
	}
	for _, g := range m.order {
		if g.Confirmed {
			continue
		}
		status := "expired"
		if m.registry.HasGhost(g.ID) {
			status = "waiting"
		}
		ans.Partial = append(ans.Partial, analysis.PartialConstruction{
			Name:       g.Def.Name,
			Type:       g.Def.Type,
			Position:   g.Anchor,
			End:        g.End,
			Activation: g.Activation,
			Threshold:  g.Threshold,
			Expected:   g.Expected(),
			Status:     status,
		})
	}
	return ans
}

// Parse runs the columnar model over a whole sentence
func Parse(g *grammar.Grammar, conf Conf, sent *token.Sentence) *SequenceResult {
	m := NewModel(g, conf)
	m.sent.ID = sent.ID
	for _, tok := range sent.Tokens {
		m.ProcessInput(tok.ID, tok)
	}
	return m.Finish()
}
