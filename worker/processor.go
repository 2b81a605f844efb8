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

package worker

import (
	"fmt"
	"time"

	"cxparse/analysis"
	"cxparse/cln"
	"cxparse/flatsyntax"
	"cxparse/grammar"
	"cxparse/merror"
	"cxparse/monitoring"
	"cxparse/parser"
	"cxparse/parsetree"
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/seqgraph"
	"cxparse/token"

	"github.com/rs/zerolog/log"
)

// Processor runs the analyses of a single sentence. It holds only
// read-only data (grammar, configuration) so it can be shared
// by any number of goroutines.
type Processor struct {
	grammar *grammar.Grammar
	v4      *parser.Parser
	clnConf cln.Conf
	graph   *seqgraph.UnifiedGraph
}

func (p *Processor) Grammar() *grammar.Grammar {
	return p.grammar
}

func outcomeOf(err error) string {
	if err == nil {
		return monitoring.OutcomeOK
	}
	if merror.IsUserError(err) {
		return monitoring.OutcomeInvalidInput
	}
	return monitoring.OutcomeFailed
}

func logFailedSentence(fn string, sent *token.Sentence, err error) {
	var sentID, text string
	if sent != nil {
		sentID = sent.ID
		text = sent.Text()
	}
	evt := log.Error()
	if merror.IsUserError(err) {
		evt = log.Warn()
	}
	evt.Err(err).
		Str("func", fn).
		Str("sentenceId", sentID).
		Str("input", text).
		Msg("failed to process sentence")
}

// Parse runs the selected engine on a sentence. All the errors,
// including recovered panics, are reported via the result.
func (p *Processor) Parse(engine string, sent *token.Sentence) (ans *results.ParseResult) {
	t0 := time.Now()
	if engine == "" {
		engine = results.EngineV4
	}
	ans = &results.ParseResult{Engine: engine}
	defer func() {
		if r := recover(); r != nil {
			ans.Error = merror.RecoveredError{Msg: merror.PanicValueToErr(r).Error()}
			ans.V4 = nil
			ans.CLN = nil
			ans.SeqGraph = nil
		}
		if ans.Error != nil {
			logFailedSentence(rdb.FuncParse, sent, ans.Error)
		}
		monitoring.ObserveSentence(rdb.FuncParse, engine, outcomeOf(ans.Error), time.Since(t0))
	}()

	if err := token.Validate(sent); err != nil {
		ans.Error = err
		return
	}
	switch engine {
	case results.EngineV4:
		res, err := p.v4.Parse(sent)
		if err != nil {
			ans.Error = fmt.Errorf("failed to parse sentence %s: %w", sent.ID, err)
			return
		}
		ans.V4 = res
		monitoring.AddAlternatives(res.State.NumSpawned, res.State.DroppedSpawns)
		p.countConfirmed(res.Confirmed)
	case results.EngineCLN:
		res := cln.Parse(p.grammar, p.clnConf, sent)
		ans.CLN = res
		p.countConfirmed(res.Confirmed)
	case results.EngineSeqGraph:
		ans.SeqGraph = p.runGraph(sent)
		p.countCompleted(ans.SeqGraph.Completed)
	default:
		ans.Error = merror.InputError{Msg: fmt.Sprintf("unknown engine `%s`", engine)}
	}
	return
}

func (p *Processor) countConfirmed(items []analysis.ConfirmedConstruction) {
	byType := make(map[grammar.ConstructionType]int)
	for _, c := range items {
		byType[c.Type]++
	}
	for tp, num := range byType {
		monitoring.AddConfirmed(string(tp), num)
	}
}

func (p *Processor) countCompleted(items []seqgraph.Completion) {
	byType := make(map[grammar.ConstructionType]int)
	for _, c := range items {
		if def, ok := p.grammar.Get(c.Pattern); ok {
			byType[def.Type]++
		}
	}
	for tp, num := range byType {
		monitoring.AddConfirmed(string(tp), num)
	}
}

func (p *Processor) labelOf(pattern string) string {
	if def, ok := p.grammar.Get(pattern); ok {
		return def.Label()
	}
	return ""
}

// runGraph activates a fresh instance of the unified graph with
// the tokens of the sentence and rebuilds the tree of completed
// patterns from the recorded events
func (p *Processor) runGraph(sent *token.Sentence) *results.SeqGraphResult {
	inst := p.graph.NewInstance()
	steps := inst.Run(sent)
	ans := &results.SeqGraphResult{
		SentenceID: sent.ID,
		Steps:      steps,
		Completed:  make([]seqgraph.Completion, 0, 8),
		Tree:       parsetree.FromEvents(inst.Events(), p.labelOf),
	}
	for _, step := range steps {
		ans.Completed = append(ans.Completed, step.CompletedPatterns...)
	}
	covered := make(map[int]bool)
	for _, idx := range ans.Tree.Roots() {
		node := ans.Tree.Node(idx)
		for i := node.Start; i <= node.End; i++ {
			covered[i] = true
		}
	}
	if sent.Len() > 0 {
		ans.Coverage = float64(len(covered)) / float64(sent.Len())
	}
	return ans
}

// Annotate produces the flat-syntax rendering of a sentence
func (p *Processor) Annotate(sent *token.Sentence) (ans *results.AnnotateResult) {
	t0 := time.Now()
	ans = new(results.AnnotateResult)
	defer func() {
		if r := recover(); r != nil {
			ans.Error = merror.RecoveredError{Msg: merror.PanicValueToErr(r).Error()}
			ans.Flat = nil
		}
		if ans.Error != nil {
			logFailedSentence(rdb.FuncAnnotate, sent, ans.Error)
		}
		monitoring.ObserveSentence(rdb.FuncAnnotate, "", outcomeOf(ans.Error), time.Since(t0))
	}()
	if err := token.Validate(sent); err != nil {
		ans.Error = err
		return
	}
	ans.Flat = flatsyntax.Annotate(sent)
	return
}

// NewProcessor prepares all the engines for the grammar. The unified
// sequence graph is built here so grammars with cyclic completion
// propagation are rejected before any sentence is processed.
func NewProcessor(g *grammar.Grammar, parserConf parser.Conf, clnConf cln.Conf) (*Processor, error) {
	graph, err := seqgraph.FromGrammar(g)
	if err != nil {
		return nil, fmt.Errorf("failed to build sequence graph of grammar %s: %w", g.Name, err)
	}
	return &Processor{
		grammar: g,
		v4:      parser.New(g, parserConf),
		clnConf: clnConf,
		graph:   graph,
	}, nil
}
