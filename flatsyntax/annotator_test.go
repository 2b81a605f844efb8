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

package flatsyntax

import (
	"testing"

	"cxparse/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tk(id int, word, pos, rel string, parent int) *token.Token {
	return token.New(id, word, "", pos, rel, parent, "")
}

func TestSingleClause(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "O", "DET", "det", 2),
		tk(2, "gato", "NOUN", "nsubj", 3),
		tk(3, "correu", "VERB", "root", 0),
		tk(4, "rapidamente", "ADV", "advmod", 3),
		tk(5, ".", "PUNCT", "punct", 3),
	)
	res := Annotate(sent)
	assert.Equal(t, "O gato+ correu rapidamente.", res.Text)
	require.Len(t, res.Clauses, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Clauses[0].Tokens)
	assert.Equal(t, token.MarkerPhrase, res.Annotations[1].BoundaryAfter)
	assert.Equal(t, token.MarkerSentence, res.Annotations[3].BoundaryAfter)
}

func TestRelativeClauseInterruption(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "The", "DET", "det", 2),
		tk(2, "man", "NOUN", "nsubj", 6),
		tk(3, "who", "PRON", "nsubj", 4),
		tk(4, "left", "VERB", "acl:relcl", 2),
		tk(5, "is", "AUX", "cop", 6),
		tk(6, "here", "ADV", "root", 0),
		tk(7, ".", "PUNCT", "punct", 6),
	)
	res := Annotate(sent)
	assert.Equal(t, "The man {who left} is here.", res.Text)
	assert.NotContains(t, res.Text, "#")
	require.Len(t, res.Clauses, 2)
	// clauses are numbered by the position of their roots
	assert.True(t, res.Clauses[0].Embedded)
	assert.Equal(t, 4, res.Clauses[0].Root)
	assert.True(t, res.Annotations[2].InterruptionStart)
	assert.True(t, res.Annotations[3].InterruptionEnd)
	assert.Equal(t, 0, res.Annotations[3].Clause())
	assert.Equal(t, 1, res.Annotations[0].Clause())
}

func TestFixedMWEJoin(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "Ele", "PRON", "nsubj", 2),
		tk(2, "saiu", "VERB", "root", 0),
		tk(3, "apesar", "ADP", "case", 5),
		tk(4, "de", "ADP", "fixed", 3),
		tk(5, "chuva", "NOUN", "obl", 2),
		tk(6, ".", "PUNCT", "punct", 2),
	)
	res := Annotate(sent)
	assert.Contains(t, res.Text, "apesar^de")
	assert.Equal(t, "Ele saiu+ apesar^de chuva.", res.Text)
	require.NotNil(t, res.Annotations[2].MWEGroup)
	assert.Equal(t, *res.Annotations[2].MWEGroup, *res.Annotations[3].MWEGroup)
	assert.True(t, res.Annotations[2].JoinWithNext)
	assert.False(t, res.Annotations[3].JoinWithNext)
}

func TestCoordinatedClauses(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "Ele", "PRON", "nsubj", 2),
		tk(2, "saiu", "VERB", "root", 0),
		tk(3, ",", "PUNCT", "punct", 6),
		tk(4, "e", "CCONJ", "cc", 6),
		tk(5, "ela", "PRON", "nsubj", 6),
		tk(6, "ficou", "VERB", "conj", 2),
		tk(7, ".", "PUNCT", "punct", 2),
	)
	res := Annotate(sent)
	assert.Equal(t, "Ele saiu# e ela ficou.", res.Text)
	require.Len(t, res.Clauses, 2)
	assert.Equal(t, []int{1, 2, 7}, res.Clauses[0].Tokens)
	assert.Equal(t, []int{3, 4, 5, 6}, res.Clauses[1].Tokens)
}

func TestObjectAfterVerb(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "Maria", "PROPN", "nsubj", 2),
		tk(2, "viu", "VERB", "root", 0),
		tk(3, "o", "DET", "det", 4),
		tk(4, "gato", "NOUN", "obj", 2),
	)
	res := Annotate(sent)
	assert.Equal(t, "Maria+ viu+ o gato.", res.Text)
}

func TestNonVerbalConjunctIsNotClause(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "gatos", "NOUN", "root", 0),
		tk(2, "e", "CCONJ", "cc", 3),
		tk(3, "cães", "NOUN", "conj", 1),
	)
	res := Annotate(sent)
	assert.Len(t, res.Clauses, 1)
	assert.Equal(t, "gatos+ e cães.", res.Text)
}

func TestPunctuationAttachesToPreviousWord(t *testing.T) {
	sent := token.MustSentence(
		"s1",
		tk(1, "Olá", "INTJ", "root", 0),
		tk(2, ",", "PUNCT", "punct", 3),
		tk(3, "Maria", "PROPN", "vocative", 1),
	)
	res := Annotate(sent)
	assert.Equal(t, "Olá, Maria.", res.Text)
}
