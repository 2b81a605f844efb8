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
	"cxparse/analysis"
	"cxparse/grammar"
	"cxparse/merror"
	"cxparse/parsetree"
	"cxparse/token"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of parsing a single sentence
type Result struct {
	SentenceID      string                           `json:"sentenceId"`
	State           *ParseStateV4                    `json:"state"`
	Confirmed       []analysis.ConfirmedConstruction `json:"confirmed"`
	Partial         []analysis.PartialConstruction   `json:"partial"`
	Tree            *parsetree.Tree                  `json:"tree"`
	TotalConfidence float64                          `json:"totalConfidence"`
}

// Parser is the incremental alternative matcher. It is immutable
// and can be shared by goroutines, each Parse call creates its own
// state.
type Parser struct {
	grammar *grammar.Grammar
	conf    Conf
}

func New(g *grammar.Grammar, conf Conf) *Parser {
	return &Parser{grammar: g, conf: conf}
}

func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// leadsTo tells whether a confirmed `name` construction can
// (possibly via other constructions) start the `target` one
func (p *Parser) leadsTo(name, target string) bool {
	if name == target {
		return true
	}
	def, ok := p.grammar.Get(target)
	if !ok {
		return false
	}
	for _, c := range def.Compiled.Candidates(0) {
		slot := def.Compiled[c]
		if slot.Kind == grammar.SlotConstruction && p.leadsTo(name, slot.Value) {
			return true
		}
	}
	return false
}

// Parse processes tokens of the sentence from left to right.
// An error is returned only in case of a broken internal
// invariant, a sentence without any matches is a valid result.
func (p *Parser) Parse(sent *token.Sentence) (*Result, error) {
	r := &run{
		parser:    p,
		sent:      sent,
		state:     newParseState(),
		queue:     make(altQueue, 0, 50),
		completed: make(altQueue, 0, 10),
		all:       make([]*AlternativeState, 0, 50),
	}
	for i := 1; i <= sent.Len(); i++ {
		if err := r.step(i); err != nil {
			return nil, err
		}
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return r.result(), nil
}

// ----------------------------

type run struct {
	parser    *Parser
	sent      *token.Sentence
	state     *ParseStateV4
	queue     altQueue
	completed altQueue
	all       []*AlternativeState
	tentative []*AlternativeState
	seq       int
	finished  bool

	// held are complete alternatives waiting for an unfinished
	// higher band alternative which still can claim their span
	held []*AlternativeState

	// stepConfirmed holds alternatives confirmed in the current step
	stepConfirmed []*AlternativeState

	// advanced holds Seq of alternatives which consumed
	// the current token
	advanced map[int]bool

	// replayTo is the last position replayed for alternatives
	// created or resumed after a delayed MWE confirmation
	replayTo int
}

func (r *run) setStatus(alt *AlternativeState, to Status) error {
	if !alt.Status.canChangeTo(to) {
		return merror.NewInvariantViolation(
			"invalid transition of %s from %s to %s", alt, alt.Status, to)
	}
	from := alt.Status
	alt.Status = to
	r.state.record(alt, from, to)
	if to == StatusComplete {
		r.completed.add(alt)
	}
	if to == StatusAbandoned || to == StatusInvalidated {
		r.release(alt.Seq)
	}
	if alt.Type == grammar.TypeMWE && (to == StatusAbandoned || to == StatusInvalidated) {
		return r.releaseSuspended(alt)
	}
	return nil
}

// releaseSuspended moves alternatives waiting for a failed MWE
// to another live MWE anchored at the same position or abandons them
func (r *run) releaseSuspended(mwe *AlternativeState) error {
	other := r.liveMWEAt(mwe.Start, mwe)
	for _, alt := range r.queue {
		if alt.suspendedOn != mwe.Seq {
			continue
		}
		if other != nil {
			alt.suspendedOn = other.Seq
			continue
		}
		alt.suspendedOn = 0
		if alt.Status.IsLive() {
			if err := r.setStatus(alt, StatusAbandoned); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) liveMWEAt(pos int, except *AlternativeState) *AlternativeState {
	var ans *AlternativeState
	for _, alt := range r.queue {
		if alt != except && alt.Type == grammar.TypeMWE && alt.Start == pos &&
			alt.Status.IsLive() && !alt.OnAggregate {
			if ans == nil || alt.Seq < ans.Seq {
				ans = alt
			}
		}
	}
	return ans
}

func (r *run) numLive() int {
	var ans int
	for _, alt := range r.queue {
		if alt.Status.IsLive() {
			ans++
		}
	}
	return ans
}

func (r *run) advance(alt *AlternativeState, u grammar.Unit) error {
	to, err := alt.advance(u)
	if err != nil {
		return err
	}
	if to == StatusProgressing && alt.Status == StatusProgressing {
		return nil
	}
	return r.setStatus(alt, to)
}

// spawn creates alternatives of all enabled constructions which can
// start with the unit. It returns the new alternatives which are
// still able to continue.
func (r *run) spawn(u grammar.Unit) ([]*AlternativeState, error) {
	ans := make([]*AlternativeState, 0, 4)
	for _, def := range r.parser.grammar.Enabled() {
		trial := newAlternative(0, def, u.Start, r.parser.conf.ActivationThreshold)
		if _, ok := trial.slotFor(u); !ok {
			continue
		}
		if r.numLive() >= r.parser.conf.MaxActiveAlternatives {
			r.state.DroppedSpawns++
			log.Debug().
				Str("construction", def.Name).
				Int("position", u.Start).
				Int("limit", r.parser.conf.MaxActiveAlternatives).
				Msg("too many active alternatives, dropping spawn")
			continue
		}
		r.seq++
		alt := newAlternative(r.seq, def, u.Start, r.parser.conf.ActivationThreshold)
		alt.OnAggregate = u.Aggregate
		r.state.NumSpawned++
		r.queue.add(alt)
		r.all = append(r.all, alt)
		r.state.record(alt, "", StatusPending)
		if err := r.advance(alt, u); err != nil {
			return ans, err
		}
		if alt.Status == StatusProgressing || alt.Status == StatusPending {
			ans = append(ans, alt)
		}
	}
	return ans, nil
}

func (r *run) step(pos int) error {
	r.state.Position = pos
	r.stepConfirmed = r.stepConfirmed[:0]
	r.advanced = make(map[int]bool)
	r.replayTo = pos - 1
	u := grammar.TokenUnit(r.sent.At(pos))

	if err := r.processLookahead(u); err != nil {
		return err
	}
	if err := r.resolve(); err != nil {
		return err
	}
	r.replayTo = pos

	for _, alt := range r.queue.ordered() {
		if alt.IsSuspended() || alt.End != pos-1 || !alt.CanAdvance(u) {
			continue
		}
		r.advanced[alt.Seq] = true
		if err := r.advance(alt, u); err != nil {
			return err
		}
	}

	if r.state.IsConsumed(pos) {
		log.Debug().Int("position", pos).Msg("position consumed by an MWE, not spawning")

	} else {
		spawned, err := r.spawn(u)
		if err != nil {
			return err
		}
		for _, alt := range spawned {
			r.advanced[alt.Seq] = true
		}
	}

	for _, alt := range r.queue {
		if r.advanced[alt.Seq] || alt.IsSuspended() || alt.End != pos-1 ||
			alt.Status != StatusPending && alt.Status != StatusProgressing {
			continue
		}
		if alt.Type == grammar.TypeMWE {
			continue
		}
		if mwe := r.liveMWEAt(pos, alt); mwe != nil {
			alt.suspendedOn = mwe.Seq
			log.Debug().
				Str("alternative", alt.String()).
				Str("mwe", mwe.String()).
				Msg("alternative suspended")
		}
	}

	if err := r.resolve(); err != nil {
		return err
	}
	if err := r.sweep(pos); err != nil {
		return err
	}
	if r.completed.Len() > 0 {
		return r.resolve()
	}
	return nil
}

// waits tells whether the alternative expects a construction some
// live alternative right after its end can still produce
func (r *run) waits(alt *AlternativeState) bool {
	for _, name := range alt.ExpectsConstruction() {
		for _, other := range r.queue {
			if other != alt && other.Start == alt.End+1 && other.Status.IsLive() &&
				r.parser.leadsTo(other.Name, name) {
				return true
			}
		}
	}
	return false
}

// sweep abandons alternatives which did not consume the current
// position and cannot continue anymore
func (r *run) sweep(pos int) error {
	for _, alt := range r.queue.ordered() {
		if alt.Status != StatusPending && alt.Status != StatusProgressing {
			continue
		}
		if alt.IsSuspended() || alt.End >= pos || r.waits(alt) {
			continue
		}
		if err := r.setStatus(alt, StatusAbandoned); err != nil {
			return err
		}
	}
	r.queue.retain(func(alt *AlternativeState) bool {
		return alt.Status.IsLive()
	})
	return nil
}

// conflicts tests the alternative against constructions confirmed
// in the current step and pending tentative ones. Identical and
// crossing spans conflict, within the same priority band any
// overlap does. A construction never conflicts with its own
// components.
func (r *run) conflicts(alt *AlternativeState) *AlternativeState {
	test := func(other *AlternativeState) bool {
		if other == alt || alt.contains(other.Name, other.Start, other.End) {
			return false
		}
		if other.Type.Rank() == alt.Type.Rank() &&
			alt.Start <= other.End && other.Start <= alt.End {
			return true
		}
		return other.Start == alt.Start && other.End == alt.End ||
			spansCross(alt.Start, alt.End, other.Start, other.End)
	}
	for _, other := range r.stepConfirmed {
		if test(other) {
			return other
		}
	}
	for _, other := range r.tentative {
		if test(other) {
			return other
		}
	}
	return nil
}

// mayClaim tells whether an unfinished alternative can still
// end with a span identical to or crossing [start, end]. Its final
// end will be past its current one.
func mayClaim(other *AlternativeState, start, end int) bool {
	switch {
	case other.Start > start:
		return other.Start <= end
	case other.Start == start:
		return other.End < end
	default:
		return other.End < end-1 && end-1 >= start
	}
}

// claimant finds an unfinished alternative of a higher band which
// can still produce a construction conflicting with the complete one.
// Alternatives expecting the complete construction do not count.
func (r *run) claimant(alt *AlternativeState) *AlternativeState {
	if r.finished {
		return nil
	}
	for _, other := range r.queue.ordered() {
		if other.Type.Rank() <= alt.Type.Rank() ||
			other.Status != StatusPending && other.Status != StatusProgressing {
			continue
		}
		if !mayClaim(other, alt.Start, alt.End) || r.expects(other, alt) {
			continue
		}
		return other
	}
	return nil
}

func (r *run) expects(alt, completed *AlternativeState) bool {
	if alt.End+1 != completed.Start {
		return false
	}
	for _, name := range alt.ExpectsConstruction() {
		if r.parser.leadsTo(completed.Name, name) {
			return true
		}
	}
	return false
}

// release returns complete alternatives held by the alternative
// with the seq (or all of them for zero) back to resolving
func (r *run) release(seq int) {
	kept := r.held[:0]
	for _, alt := range r.held {
		if seq == 0 || alt.heldBy == seq {
			alt.heldBy = 0
			r.completed.add(alt)
			continue
		}
		kept = append(kept, alt)
	}
	for i := len(kept); i < len(r.held); i++ {
		r.held[i] = nil
	}
	r.held = kept
}

// resolve processes completed alternatives, the highest priority
// first. Confirmations may produce further completions which
// are resolved in the same call. Held alternatives are tested
// again each time.
func (r *run) resolve() error {
	r.release(0)
	for r.completed.Len() > 0 {
		alt := r.completed.next()
		if alt.Status != StatusComplete {
			continue
		}
		if winner := r.conflicts(alt); winner != nil {
			log.Debug().
				Str("alternative", alt.String()).
				Str("winner", winner.String()).
				Msg("conflicting completion abandoned")
			if err := r.setStatus(alt, StatusAbandoned); err != nil {
				return err
			}
			continue
		}
		if holder := r.claimant(alt); holder != nil {
			log.Debug().
				Str("alternative", alt.String()).
				Str("holder", holder.String()).
				Msg("completion held")
			alt.heldBy = holder.Seq
			r.held = append(r.held, alt)
			continue
		}
		if alt.Def.HasLookahead() {
			if err := r.setStatus(alt, StatusTentativeComplete); err != nil {
				return err
			}
			alt.LookaheadCounter = 0
			r.tentative = append(r.tentative, alt)
			continue
		}
		if err := r.confirm(alt); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) removeTentative(alt *AlternativeState) {
	for i, t := range r.tentative {
		if t == alt {
			r.tentative = append(r.tentative[:i], r.tentative[i+1:]...)
			return
		}
	}
}

// processLookahead feeds the token to all tentative alternatives
// and resolves the ones with decisive evidence or with exhausted
// lookahead distance.
func (r *run) processLookahead(u grammar.Unit) error {
	for _, alt := range altQueue(r.tentative).ordered() {
		if alt.Status != StatusTentativeComplete {
			continue
		}
		alt.LookaheadCounter++
		alt.window = append(alt.window, u)
		la := &alt.Def.Lookahead
		switch {
		case la.Confirms(alt.window):
			log.Debug().Str("alternative", alt.String()).Msg("lookahead confirmed")
			if err := r.confirm(alt); err != nil {
				return err
			}
		case la.Invalidates(alt.window):
			log.Debug().Str("alternative", alt.String()).Msg("lookahead invalidated")
			r.removeTentative(alt)
			if err := r.setStatus(alt, StatusInvalidated); err != nil {
				return err
			}
		case alt.LookaheadCounter >= la.MaxDistance:
			log.Debug().
				Str("alternative", alt.String()).
				Str("policy", "exhaustedLookaheadConfirms").
				Int("distance", alt.LookaheadCounter).
				Msg("lookahead exhausted, confirming")
			if err := r.confirm(alt); err != nil {
				return err
			}
		}
	}
	return nil
}

// confirm creates a confirmed node for the alternative and passes
// the unit standing for it to other alternatives
func (r *run) confirm(alt *AlternativeState) error {
	r.removeTentative(alt)
	if err := r.setStatus(alt, StatusConfirmed); err != nil {
		return err
	}
	r.stepConfirmed = append(r.stepConfirmed, alt)
	r.release(alt.Seq)
	cc := analysis.NewConfirmed(alt.Def, alt.Start, alt.End, alt.Words())
	cc.Activation = alt.Activation
	cc.Threshold = alt.Threshold
	node := r.state.addConfirmed(alt.Seq, cc)
	unit := grammar.AggregateSpan(r.sent, alt.Start, alt.End, alt.Def.Aggregation, alt.Name)
	log.Debug().
		Str("construction", alt.Name).
		Int("start", alt.Start).
		Int("end", alt.End).
		Msg("construction confirmed")
	if alt.Type == grammar.TypeMWE {
		if err := r.aggregate(alt, node, unit); err != nil {
			return err
		}
	}
	return r.feed(unit)
}

// aggregate collapses a confirmed MWE into a single unit. Positions
// of the MWE are consumed and alternatives which matched tokens
// inside it are dropped.
func (r *run) aggregate(alt *AlternativeState, node ConfirmedNode, unit grammar.Unit) error {
	if err := r.setStatus(alt, StatusAggregated); err != nil {
		return err
	}
	r.state.consume(alt.Start, alt.End)
	r.state.AggregatedMWEs = append(r.state.AggregatedMWEs, AggregatedMWE{Node: node.ID, Unit: unit})
	for _, other := range r.queue.ordered() {
		if other == alt || !other.Status.IsLive() || !other.usesTokenIn(alt.Start, alt.End) {
			continue
		}
		to := StatusAbandoned
		if other.Status == StatusTentativeComplete {
			to = StatusInvalidated
			r.removeTentative(other)
		}
		if err := r.setStatus(other, to); err != nil {
			return err
		}
	}
	for _, other := range r.queue {
		if other.suspendedOn == alt.Seq {
			other.suspendedOn = 0
		}
	}
	return nil
}

// feed passes a unit of a confirmed construction to alternatives
// expecting it and spawns alternatives starting with it. Affected
// alternatives then replay the tokens following the unit in case
// the confirmation has been delayed by lookahead.
func (r *run) feed(u grammar.Unit) error {
	touched := make([]*AlternativeState, 0, 4)
	for _, alt := range r.queue.ordered() {
		if alt.IsSuspended() || alt.End != u.Start-1 || !alt.CanAdvance(u) {
			continue
		}
		if err := r.advance(alt, u); err != nil {
			return err
		}
		if u.End == r.state.Position {
			r.advanced[alt.Seq] = true
		}
		touched = append(touched, alt)
	}
	spawned, err := r.spawn(u)
	if err != nil {
		return err
	}
	for _, alt := range spawned {
		if u.End == r.state.Position {
			r.advanced[alt.Seq] = true
		}
	}
	touched = append(touched, spawned...)
	return r.replay(touched, u.End+1)
}

func (r *run) replay(alts []*AlternativeState, from int) error {
	for pos := from; pos <= r.replayTo; pos++ {
		u := grammar.TokenUnit(r.sent.At(pos))
		for _, alt := range alts {
			if alt.IsSuspended() || alt.End != pos-1 || !alt.CanAdvance(u) {
				continue
			}
			if err := r.advance(alt, u); err != nil {
				return err
			}
			if pos == r.state.Position {
				r.advanced[alt.Seq] = true
			}
		}
	}
	return nil
}

// finish resolves alternatives still waiting for lookahead at
// the end of the sentence
func (r *run) finish() error {
	r.replayTo = r.sent.Len()
	r.finished = true
	for _, alt := range altQueue(r.tentative).ordered() {
		log.Debug().
			Str("alternative", alt.String()).
			Str("policy", "exhaustedLookaheadConfirms").
			Msg("sentence ended within lookahead, confirming")
		if err := r.confirm(alt); err != nil {
			return err
		}
	}
	return r.resolve()
}

func (r *run) result() *Result {
	confirmed := r.state.Confirmed()
	analysis.SortConfirmed(confirmed)
	ans := &Result{
		SentenceID:      r.sent.ID,
		State:           r.state,
		Confirmed:       confirmed,
		Partial:         make([]analysis.PartialConstruction, 0, 8),
		Tree:            parsetree.FromSpans(r.sent, analysis.Spans(confirmed)),
		TotalConfidence: analysis.Confidence(confirmed),
	}
	for _, alt := range r.all {
		if alt.Status != StatusPending && alt.Status != StatusProgressing {
			continue
		}
		status := string(alt.Status)
		if alt.IsSuspended() {
			status = "suspended"
		}
		ans.Partial = append(ans.Partial, analysis.PartialConstruction{
			Name:       alt.Name,
			Type:       alt.Type,
			Position:   alt.Start,
			End:        alt.End,
			Activation: alt.Activation,
			Threshold:  alt.Threshold,
			Expected:   alt.Expected(),
			Status:     status,
		})
	}
	return ans
}
