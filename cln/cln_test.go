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
	"testing"

	"cxparse/grammar"
	"cxparse/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingGrammar() *grammar.Grammar {
	return grammar.MustNew(
		"test",
		&grammar.Definition{
			ID: 1, Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}",
			Priority: 60, Enabled: true, Labels: grammar.Labels{Phrasal: "Arg"},
		},
		&grammar.Definition{
			ID: 2, Name: "Rel", Type: grammar.TypePhrasal, Pattern: "{PRON} {VERB}",
			Priority: 55, Enabled: true,
		},
		&grammar.Definition{
			ID: 3, Name: "Clause", Type: grammar.TypeClausal, Pattern: "[NP] {VERB}",
			Priority: 30, Enabled: true, Labels: grammar.Labels{Clausal: "Pred"},
		},
	)
}

func embeddingSentence() *token.Sentence {
	return token.MustSentence(
		"s1",
		token.New(1, "o", "o", "DET", "det", 2, ""),
		token.New(2, "homem", "homem", "NOUN", "nsubj", 5, ""),
		token.New(3, "que", "que", "PRON", "nsubj", 4, ""),
		token.New(4, "saiu", "sair", "VERB", "acl:relcl", 2, ""),
		token.New(5, "correu", "correr", "VERB", "root", 0, ""),
	)
}

type span struct {
	name       string
	start, end int
}

func confirmedSpans(res *SequenceResult) []span {
	ans := make([]span, len(res.Confirmed))
	for i, c := range res.Confirmed {
		ans[i] = span{c.Name, c.Position, c.End}
	}
	return ans
}

func TestPredictionMatches(t *testing.T) {
	tok := token.New(1, "Gatos", "gato", "NOUN", "nsubj", 0, "Gender=Masc|Number=Plur")
	assert.True(t, Prediction{Type: PredictWord, Value: "gatos"}.Matches(tok))
	assert.True(t, Prediction{Type: PredictLemma, Value: "GATO"}.Matches(tok))
	assert.True(t, Prediction{Type: PredictPOS, Value: "noun"}.Matches(tok))
	assert.True(t, Prediction{Type: PredictFeature, Value: "number=plur"}.Matches(tok))
	assert.False(t, Prediction{Type: PredictFeature, Value: "Number=Sing"}.Matches(tok))
	assert.False(t, Prediction{Type: PredictFeature, Value: "Number"}.Matches(tok))
	assert.True(t, Prediction{Type: PredictAny}.Matches(tok))
	assert.False(t, Prediction{Type: PredictConstruction, Value: "NP"}.Matches(tok))
}

func TestPredictionFeatureOnEmptyFeats(t *testing.T) {
	tok := token.New(1, "e", "e", "CCONJ", "cc", 0, "")
	assert.False(t, Prediction{Type: PredictFeature, Value: "Number=Sing"}.Matches(tok))
}

func TestPredictionEntryExpiry(t *testing.T) {
	entry := &PredictionEntry{CreatedAt: 2, TTL: 3}
	assert.False(t, entry.IsExpired(5))
	assert.True(t, entry.IsExpired(6))
}

func TestRegistryLIFO(t *testing.T) {
	r := NewRegistry()
	r.Push(Prediction{GhostID: "A@1", Construction: "A", Type: PredictPOS, Value: "NOUN"}, 1, 2)
	r.Push(Prediction{GhostID: "B@2", Construction: "B", Type: PredictPOS, Value: "NOUN"}, 2, 2)
	r.Push(Prediction{GhostID: "A@3", Construction: "A", Type: PredictPOS, Value: "VERB"}, 3, 2)

	items := r.LIFO(3)
	require.Len(t, items, 3)
	assert.Equal(t, "A@3", items[0].GhostID)
	assert.Equal(t, "B@2", items[1].GhostID)
	assert.Equal(t, "A@1", items[2].GhostID)
	assert.Equal(t, "A@3", r.Top("A").GhostID)
	assert.Len(t, r.Stack("A"), 2)

	assert.Equal(t, 1, r.RemoveGhost("B@2"))
	assert.False(t, r.HasGhost("B@2"))

	expired := r.Sweep(4)
	require.Len(t, expired, 1)
	assert.Equal(t, "A@1", expired[0].GhostID)
	assert.Equal(t, 1, r.Len())
}

func TestConfirmationApply(t *testing.T) {
	g := grammar.MustNew("test", &grammar.Definition{
		Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}", Enabled: true,
	})
	def, _ := g.Get("NP")
	tok := token.New(1, "o", "o", "DET", "det", 0, "")
	ghost := newGhost(def, 0, grammar.TokenUnit(tok), 1, 1)
	layer := &L5Layer{Ghosts: []*Ghost{ghost}}
	ok := Confirmation{GhostID: ghost.ID, Boost: 0.5}.Apply(layer)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, ghost.Activation, 1e-9)
	assert.False(t, Confirmation{GhostID: "X@1", Boost: 1}.Apply(layer))
}

func TestSimplePhrase(t *testing.T) {
	g := grammar.MustNew("test", &grammar.Definition{
		ID: 1, Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}", Enabled: true,
	})
	sent := token.MustSentence(
		"s1",
		token.New(1, "O", "o", "DET", "det", 2, ""),
		token.New(2, "gato", "gato", "NOUN", "root", 0, ""),
	)
	res := Parse(g, DefaultConf(), sent)
	assert.Equal(t, []span{{"NP", 1, 2}}, confirmedSpans(res))
	assert.Equal(t, []string{"O", "gato"}, res.Confirmed[0].Words)
	assert.InDelta(t, 1.0, res.TotalConfidence, 1e-9)
	assert.Empty(t, res.Partial)
	require.Len(t, res.Columns, 2)
	assert.Len(t, res.Columns[0].Predictions, 1)
	assert.Len(t, res.Columns[1].MatchedPredictions, 1)
}

func TestColumnLayers(t *testing.T) {
	m := NewModel(embeddingGrammar(), DefaultConf())
	sent := embeddingSentence()
	m.ProcessInput(1, sent.At(1))
	col := m.Column(1)
	require.NotNil(t, col)
	assert.Len(t, col.L23.Active(), 3)
	require.Len(t, col.L23.Predicted(), 1)
	assert.Equal(t, "NOUN", col.L23.Predicted()[0].Value)
	require.Len(t, col.L5.Ghosts, 1)
	assert.Equal(t, "NP@1", col.L5.Ghosts[0].ID)
	assert.Nil(t, m.Column(2))
}

func TestCenterEmbedding(t *testing.T) {
	res := Parse(embeddingGrammar(), DefaultConf(), embeddingSentence())
	assert.Equal(
		t,
		[]span{{"Clause", 1, 5}, {"NP", 1, 2}, {"Rel", 3, 4}},
		confirmedSpans(res),
	)
	assert.Equal(t, "[Clause [NP o homem] [Rel que saiu] correu]", res.Tree.String())
	assert.InDelta(t, 1.0, res.TotalConfidence, 1e-9)
	assert.Empty(t, res.Partial)
}

func TestNonExclusiveMatching(t *testing.T) {
	conf := DefaultConf()
	exclusive := false
	conf.ExclusiveMatching = &exclusive
	res := Parse(embeddingGrammar(), conf, embeddingSentence())
	assert.Equal(
		t,
		[]span{{"Clause", 1, 4}, {"NP", 1, 2}, {"Rel", 3, 4}},
		confirmedSpans(res),
	)
}

func TestShortTTLLeavesPartial(t *testing.T) {
	conf := DefaultConf()
	conf.PredictionTTL = 1
	res := Parse(embeddingGrammar(), conf, embeddingSentence())
	assert.Equal(t, []span{{"NP", 1, 2}, {"Rel", 3, 4}}, confirmedSpans(res))
	require.Len(t, res.Partial, 1)
	assert.Equal(t, "Clause", res.Partial[0].Name)
	assert.Equal(t, "expired", res.Partial[0].Status)
	assert.Equal(t, []string{"{VERB}"}, res.Partial[0].Expected)
}

func TestAgreementBlocksMatch(t *testing.T) {
	g := grammar.MustNew("test", &grammar.Definition{
		Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}", Enabled: true,
		Constraints: grammar.Constraints{
			{Type: grammar.ConstraintAgree, Feature: "Number", Slots: []int{0, 1}},
		},
	})
	sent := token.MustSentence(
		"s1",
		token.New(1, "os", "o", "DET", "det", 2, "Number=Plur"),
		token.New(2, "gato", "gato", "NOUN", "root", 0, "Number=Sing"),
	)
	res := Parse(g, DefaultConf(), sent)
	assert.Empty(t, res.Confirmed)
	require.Len(t, res.Partial, 1)
	assert.Equal(t, "waiting", res.Partial[0].Status)
	assert.Equal(t, 0.0, res.TotalConfidence)
}

func TestConfDefaults(t *testing.T) {
	var conf Conf
	require.NoError(t, conf.ValidateAndDefaults())
	assert.Equal(t, DfltPredictionTTL, conf.PredictionTTL)
	assert.True(t, conf.IsExclusive())
	conf.PredictionTTL = -1
	assert.Error(t, conf.ValidateAndDefaults())
}
