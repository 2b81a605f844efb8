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
	"errors"
	"testing"

	"cxparse/merror"
	"cxparse/token"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefs() []*Definition {
	return []*Definition{
		{
			ID:      1,
			Name:    "ApesarDe",
			Type:    TypeMWE,
			Pattern: "apesar de",
			Enabled: true,
			Labels:  Labels{Phrasal: "Adp"},
			Lookahead: Lookahead{
				Enabled:              true,
				MaxDistance:          2,
				ConfirmationPatterns: []string{"{DET}"},
				InvalidationPatterns: []string{"{VERB}"},
			},
			Examples: []string{"apesar da chuva"},
		},
		{
			ID:          2,
			Name:        "NP",
			Type:        TypePhrasal,
			Pattern:     "{DET}? {ADJ}? {NOUN}",
			Priority:    60,
			Enabled:     true,
			Labels:      Labels{Phrasal: "Arg", Clausal: "Subj"},
			Constraints: Constraints{{Type: ConstraintAgree, Feature: "Number", Slots: []int{0, 2}}},
		},
		{
			ID:       3,
			Name:     "Clause",
			Type:     TypeClausal,
			Pattern:  "[NP] {VERB}",
			Priority: 30,
			Enabled:  true,
			Labels:   Labels{Clausal: "Pred"},
		},
	}
}

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern("o {noun} <correr>? [NP] @Number=Sing *")
	require.NoError(t, err)
	assert.Equal(t, Pattern{
		{Kind: SlotWord, Value: "o"},
		{Kind: SlotPOS, Value: "NOUN"},
		{Kind: SlotLemma, Value: "correr", Optional: true},
		{Kind: SlotConstruction, Value: "NP"},
		{Kind: SlotFeature, Key: "Number", Value: "Sing"},
		{Kind: SlotWildcard},
	}, p)
	assert.Equal(t, 5, p.Required())
	assert.Equal(t, []string{"NP"}, p.References())
	assert.Equal(t, "o {NOUN} <correr>? [NP] @Number=Sing *", p.String())
}

func TestCompilePatternErrors(t *testing.T) {
	for _, src := range []string{"", "   ", "{DET}? *?", "{NOUN", "[]", "@Number", "<lemma"} {
		_, err := CompilePattern(src)
		assert.Error(t, err, src)
	}
}

func TestCompilePatternQuestionMarkWord(t *testing.T) {
	p, err := CompilePattern("{VERB} ?")
	require.NoError(t, err)
	assert.Equal(t, Slot{Kind: SlotWord, Value: "?"}, p[1])
}

func TestPatternMatchWithOptionals(t *testing.T) {
	p, err := CompilePattern("{DET}? {ADJ}? {NOUN}")
	require.NoError(t, err)
	det := Unit{Word: "o", POS: "DET"}
	adj := Unit{Word: "grande", POS: "ADJ"}
	noun := Unit{Word: "gato", POS: "NOUN"}
	assert.True(t, p.Match([]Unit{det, adj, noun}))
	assert.True(t, p.Match([]Unit{det, noun}))
	assert.True(t, p.Match([]Unit{noun}))
	assert.False(t, p.Match([]Unit{adj, det, noun}))
	assert.False(t, p.Match([]Unit{det}))
	assert.True(t, p.MatchSuffix([]Unit{adj, adj, noun}))
	assert.Equal(t, []int{0, 1, 2}, p.Candidates(0))
	assert.Equal(t, []int{2}, p.Candidates(2))
}

func TestSlotMatchesCaseInsensitive(t *testing.T) {
	u := Unit{Word: "Gato", Lemma: "gato", POS: "NOUN", Feats: "Gender=Masc|Number=Sing"}
	assert.True(t, Slot{Kind: SlotWord, Value: "gATO"}.Matches(u))
	assert.True(t, Slot{Kind: SlotPOS, Value: "noun"}.Matches(u))
	assert.True(t, Slot{Kind: SlotFeature, Key: "number", Value: "sing"}.Matches(u))
	assert.False(t, Slot{Kind: SlotFeature, Key: "Number", Value: "Plur"}.Matches(u))
	assert.False(t, Slot{Kind: SlotConstruction, Value: "NP"}.Matches(u))
	u.Constructions = []string{"NP"}
	assert.True(t, Slot{Kind: SlotConstruction, Value: "NP"}.Matches(u))
}

func TestConstraintAgree(t *testing.T) {
	c := Constraint{Type: ConstraintAgree, Feature: "Number", Slots: []int{0, 2}}
	units := map[int]Unit{
		0: {Feats: "Number=Sing"},
		2: {Feats: "Number=Plur"},
	}
	lookup := func(s int) (Unit, bool) {
		u, ok := units[s]
		return u, ok
	}
	assert.False(t, c.Check(lookup))
	units[2] = Unit{Feats: "Number=sing"}
	assert.True(t, c.Check(lookup))
	delete(units, 0)
	assert.True(t, c.Check(lookup))
}

func TestConstraintRequire(t *testing.T) {
	c := Constraint{Type: ConstraintRequire, Feature: "VerbForm", Value: "Fin", Slots: []int{1}}
	assert.True(t, c.Check(func(s int) (Unit, bool) { return Unit{Feats: "VerbForm=Fin"}, true }))
	assert.False(t, c.Check(func(s int) (Unit, bool) { return Unit{Feats: "VerbForm=Inf"}, true }))
}

func TestNewGrammarDefaults(t *testing.T) {
	g, err := New("pt", testDefs())
	require.NoError(t, err)
	apesar, ok := g.Get("ApesarDe")
	require.True(t, ok)
	assert.Equal(t, 100, apesar.Priority)
	assert.Equal(t, AggregateCollapse, apesar.Aggregation)
	np, _ := g.Get("NP")
	assert.Equal(t, AggregateNone, np.Aggregation)
	assert.Equal(t, 1, np.Threshold())
	assert.Equal(t, "Arg", np.Label())
	names := make([]string, 0, 3)
	for _, def := range g.Enabled() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"ApesarDe", "NP", "Clause"}, names)
	require.Len(t, g.Referrers("NP"), 1)
	assert.Equal(t, "Clause", g.Referrers("NP")[0].Name)
}

func assertGrammarError(t *testing.T, err error) {
	var gErr merror.GrammarError
	assert.True(t, errors.As(err, &gErr), "expected GrammarError, got %v", err)
}

func TestNewGrammarPriorityBandMismatch(t *testing.T) {
	defs := testDefs()
	defs[1].Priority = 120
	_, err := New("pt", defs)
	assertGrammarError(t, err)
}

func TestNewGrammarUnknownType(t *testing.T) {
	defs := testDefs()
	defs[2].Type = "paragraph"
	_, err := New("pt", defs)
	assertGrammarError(t, err)
}

func TestNewGrammarUnknownReference(t *testing.T) {
	defs := testDefs()
	defs[2].Pattern = "[VP] {VERB}"
	_, err := New("pt", defs)
	assertGrammarError(t, err)
}

func TestNewGrammarDuplicateName(t *testing.T) {
	defs := testDefs()
	defs[2].Name = "NP"
	_, err := New("pt", defs)
	assertGrammarError(t, err)
}

func TestNewGrammarReferenceCycle(t *testing.T) {
	defs := []*Definition{
		{Name: "A", Type: TypePhrasal, Pattern: "[B] {NOUN}", Enabled: true},
		{Name: "B", Type: TypePhrasal, Pattern: "{DET} [C]", Enabled: true},
		{Name: "C", Type: TypePhrasal, Pattern: "[A]?  {ADJ}", Enabled: false},
	}
	_, err := New("cyclic", defs)
	assertGrammarError(t, err)
	assert.Contains(t, err.Error(), "cyclic construction references")
}

func TestNewGrammarLookaheadNeedsDistance(t *testing.T) {
	defs := testDefs()
	defs[0].Lookahead.MaxDistance = 0
	_, err := New("pt", defs)
	assertGrammarError(t, err)
}

func TestLookaheadWindow(t *testing.T) {
	g := MustNew("pt", testDefs()...)
	def, _ := g.Get("ApesarDe")
	det := Unit{Word: "a", POS: "DET"}
	verb := Unit{Word: "chover", POS: "VERB"}
	assert.True(t, def.Lookahead.Confirms([]Unit{det}))
	assert.False(t, def.Lookahead.Invalidates([]Unit{det}))
	assert.True(t, def.Lookahead.Invalidates([]Unit{det, verb}))
}

func TestDecodeJSONEnabledByDefault(t *testing.T) {
	data := `[{"name": "Det", "type": "Phrasal", "pattern": "{DET} {NOUN}"}]`
	g, err := Decode([]byte(data), FormatJSON)
	require.NoError(t, err)
	def, ok := g.Get("Det")
	require.True(t, ok)
	assert.True(t, def.Enabled)
	assert.Equal(t, TypePhrasal, def.Type)
	assert.Equal(t, 50, def.Priority)
}

func TestDecodeCompiledPatternMismatch(t *testing.T) {
	data := `{"name": "x", "constructions": [{"name": "Det", "type": "phrasal", "pattern": "{DET} {NOUN}",
		"compiledPattern": [{"kind": "pos", "value": "DET"}]}]}`
	_, err := Decode([]byte(data), FormatJSON)
	assertGrammarError(t, err)
}

func TestDecodeYAML(t *testing.T) {
	data := `
name: pt-mini
language: pt
constructions:
  - name: NP
    type: phrasal
    pattern: "{DET}? {NOUN}"
    labels:
      phrasal: Arg
  - name: Off
    type: clausal
    pattern: "[NP] {VERB}"
    enabled: false
`
	g, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "pt-mini", g.Name)
	assert.Equal(t, "pt", g.Language)
	assert.Len(t, g.Enabled(), 1)
	off, _ := g.Get("Off")
	assert.False(t, off.Enabled)
}

func TestJSONRoundTrip(t *testing.T) {
	g := MustNew("pt", testDefs()...)
	g.Language = "pt"
	data, err := g.ExportJSON()
	require.NoError(t, err)
	g2, err := Decode(data, FormatJSON)
	require.NoError(t, err)
	data2, err := g2.ExportJSON()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))
	diff := cmp.Diff(
		g.Definitions(), g2.Definitions(),
		cmpopts.IgnoreUnexported(Definition{}, Lookahead{}),
	)
	assert.Empty(t, diff)
}

func TestYAMLRoundTrip(t *testing.T) {
	g := MustNew("pt", testDefs()...)
	data, err := g.ExportYAML()
	require.NoError(t, err)
	g2, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	diff := cmp.Diff(
		g.Definitions(), g2.Definitions(),
		cmpopts.IgnoreUnexported(Definition{}, Lookahead{}),
	)
	assert.Empty(t, diff)
}

func TestAggregateSpan(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		token.New(1, "Ele", "ele", "PRON", "nsubj", 2, ""),
		token.New(2, "saiu", "sair", "VERB", "root", 0, ""),
		token.New(3, "apesar", "apesar", "ADV", "mark", 2, ""),
		token.New(4, "de", "de", "ADP", "fixed", 3, ""),
	)
	u := AggregateSpan(sent, 3, 4, AggregateCollapse, "ApesarDe")
	assert.Equal(t, "apesar_de", u.Word)
	assert.Equal(t, "ADV", u.POS)
	assert.Equal(t, 3, u.Head)
	assert.Equal(t, 2, u.Len())
	assert.True(t, u.HasConstruction("ApesarDe"))
	assert.True(t, u.IsLexical())
	h := AggregateSpan(sent, 3, 4, AggregateHead, "ApesarDe")
	assert.Equal(t, "apesar", h.Word)
	n := AggregateSpan(sent, 1, 2, AggregateNone, "Clause")
	assert.Equal(t, "VERB", n.POS)
	assert.False(t, n.IsLexical())
}
