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

package token

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cxparse/merror"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	maxLineSize = 16 * 1024 * 1024
)

// rawToken accepts both our own field names and the CoNLL-U-like
// ones some taggers produce (form, upos, deprel, head).
type rawToken struct {
	ID     int    `json:"id"`
	Word   string `json:"word"`
	Form   string `json:"form"`
	Lemma  string `json:"lemma"`
	POS    string `json:"pos"`
	UPOS   string `json:"upos"`
	Rel    string `json:"rel"`
	DepRel string `json:"deprel"`
	Parent *int   `json:"parent"`
	Head   *int   `json:"head"`
	Feats  string `json:"feats"`
}

func (rt rawToken) toToken() *Token {
	ans := &Token{
		ID:    rt.ID,
		Word:  rt.Word,
		Lemma: rt.Lemma,
		POS:   rt.POS,
		Rel:   rt.Rel,
		Feats: rt.Feats,
	}
	if ans.Word == "" {
		ans.Word = rt.Form
	}
	if ans.POS == "" {
		ans.POS = rt.UPOS
	}
	if ans.Rel == "" {
		ans.Rel = rt.DepRel
	}
	if rt.Parent != nil {
		ans.Parent = *rt.Parent

	} else if rt.Head != nil {
		ans.Parent = *rt.Head
	}
	return ans
}

// DecodeSentence reads a sentence encoded either as a plain JSON array
// of tokens or as an object {"id": ..., "tokens": [...]}. The result
// is normalized and validated.
func DecodeSentence(data []byte) (*Sentence, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, merror.TaggingError{Kind: merror.EmptyParseResult, Msg: "no input"}
	}
	var raw []rawToken
	sent := new(Sentence)
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, merror.NewMalformedToken("failed to decode tokens: %s", err)
		}

	} else {
		var obj struct {
			ID     string     `json:"id"`
			Tokens []rawToken `json:"tokens"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, merror.NewMalformedToken("failed to decode sentence: %s", err)
		}
		sent.ID = obj.ID
		raw = obj.Tokens
	}
	sent.Tokens = make([]*Token, len(raw))
	for i, rt := range raw {
		sent.Tokens[i] = rt.toToken()
	}
	if sent.ID == "" {
		sent.ID = uuid.New().String()
	}
	Normalize(sent)
	if err := Validate(sent); err != nil {
		return sent, err
	}
	return sent, nil
}

// ReadJSONLines reads one JSON-encoded sentence per line. Invalid
// sentences are reported via onError and skipped so a single broken
// line does not stop the whole input.
func ReadJSONLines(r io.Reader, onError func(lineNum int, err error)) ([]*Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	ans := make([]*Sentence, 0, 100)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		sent, err := DecodeSentence(line)
		if err != nil {
			if onError != nil {
				onError(lineNum, err)
			}
			continue
		}
		ans = append(ans, sent)
	}
	return ans, scanner.Err()
}

// Normalize applies NFC normalization to word forms and lemmas so
// composed and decomposed accents compare equal.
func Normalize(sent *Sentence) {
	for _, t := range sent.Tokens {
		t.Word = norm.NFC.String(strings.TrimSpace(t.Word))
		t.Lemma = norm.NFC.String(strings.TrimSpace(t.Lemma))
		t.POS = strings.ToUpper(strings.TrimSpace(t.POS))
		t.Rel = strings.TrimSpace(t.Rel)
		if t.Lemma == "" {
			t.Lemma = t.Word
		}
	}
}

// Validate checks the sentence is a well formed dependency tree.
func Validate(sent *Sentence) error {
	if sent == nil || len(sent.Tokens) == 0 {
		return merror.TaggingError{Kind: merror.EmptyParseResult}
	}
	n := len(sent.Tokens)
	for i, t := range sent.Tokens {
		if t == nil {
			return merror.NewMalformedToken("token at index %d is missing", i)
		}
		if t.ID != i+1 {
			return merror.NewMalformedToken("token `%s` has ID %d, expected %d", t.Word, t.ID, i+1)
		}
		if t.Word == "" {
			return merror.NewMalformedToken("token %d has an empty word", t.ID)
		}
		if t.Parent < 0 || t.Parent > n || t.Parent == t.ID {
			return merror.NewMalformedToken("token %d has an invalid parent %d", t.ID, t.Parent)
		}
		if _, err := ParseFeats(t.Feats); err != nil {
			return merror.NewMalformedToken("token %d: %s", t.ID, err)
		}
	}
	// each token must reach the root
	for _, t := range sent.Tokens {
		curr := t
		for steps := 0; curr.Parent != RootParent; steps++ {
			if steps > n {
				return merror.NewMalformedToken("dependency cycle at token %d", t.ID)
			}
			curr = sent.At(curr.Parent)
		}
	}
	return nil
}

// MustSentence builds a validated sentence from tokens, panicking on
// invalid input. It is meant for tests and static fixtures.
func MustSentence(id string, tokens ...*Token) *Sentence {
	sent := &Sentence{ID: id, Tokens: tokens}
	Normalize(sent)
	if err := Validate(sent); err != nil {
		panic(fmt.Sprintf("invalid sentence %s: %s", id, err))
	}
	return sent
}
