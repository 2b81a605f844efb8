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
	"fmt"
	"io"
	"strconv"
	"strings"

	"cxparse/merror"

	"github.com/google/uuid"
)

const (
	conlluNumFields   = 10
	conlluSentIDToken = "# sent_id"
)

// ConlluReader reads sentences in the CoNLL-U format as produced
// by UD taggers (UDPipe, Stanza). Multiword token ranges (`1-2`)
// and empty nodes (`1.1`) are skipped as the parser works with
// syntactic words only.
type ConlluReader struct {
	scanner *bufio.Scanner
	lineNum int
}

func parseConlluInt(value string) (int, error) {
	if value == EmptyField {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseConlluString(value string) string {
	if value == EmptyField {
		return ""
	}
	return value
}

func (cr *ConlluReader) parseRow(line string) (*Token, bool, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != conlluNumFields {
		return nil, false, merror.NewMalformedToken(
			"line %d: expected %d fields, found %d", cr.lineNum, conlluNumFields, len(fields))
	}
	if strings.ContainsAny(fields[0], "-.") {
		return nil, false, nil
	}
	id, err := parseConlluInt(fields[0])
	if err != nil {
		return nil, false, merror.NewMalformedToken("line %d: invalid ID `%s`", cr.lineNum, fields[0])
	}
	head, err := parseConlluInt(fields[6])
	if err != nil {
		return nil, false, merror.NewMalformedToken("line %d: invalid HEAD `%s`", cr.lineNum, fields[6])
	}
	feats := fields[5]
	if feats == EmptyField {
		feats = ""
	}
	return &Token{
		ID:     id,
		Word:   fields[1],
		Lemma:  parseConlluString(fields[2]),
		POS:    parseConlluString(fields[3]),
		Feats:  feats,
		Parent: head,
		Rel:    parseConlluString(fields[7]),
	}, true, nil
}

// Next returns the next sentence or io.EOF. A malformed sentence
// produces an error but the reader stays usable for the following ones.
func (cr *ConlluReader) Next() (*Sentence, error) {
	var curr *Sentence
	var currErr error
	for cr.scanner.Scan() {
		cr.lineNum++
		line := strings.TrimRight(cr.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if curr != nil {
				return cr.finish(curr, currErr)
			}
			continue
		}
		if curr == nil {
			curr = &Sentence{Tokens: make([]*Token, 0, 30)}
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, conlluSentIDToken) {
				if _, v, ok := strings.Cut(line, "="); ok {
					curr.ID = strings.TrimSpace(v)
				}
			}
			continue
		}
		tok, ok, err := cr.parseRow(line)
		if err != nil {
			if currErr == nil {
				currErr = err
			}
			continue
		}
		if ok {
			curr.Tokens = append(curr.Tokens, tok)
		}
	}
	if err := cr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CoNLL-U data: %w", err)
	}
	if curr != nil {
		return cr.finish(curr, currErr)
	}
	return nil, io.EOF
}

func (cr *ConlluReader) finish(sent *Sentence, err error) (*Sentence, error) {
	if sent.ID == "" {
		sent.ID = uuid.New().String()
	}
	if err != nil {
		return sent, err
	}
	Normalize(sent)
	return sent, Validate(sent)
}

// ReadAll reads all the sentences, invalid ones are reported
// via onError and skipped.
func (cr *ConlluReader) ReadAll(onError func(sent *Sentence, err error)) ([]*Sentence, error) {
	ans := make([]*Sentence, 0, 100)
	for {
		sent, err := cr.Next()
		if err == io.EOF {
			return ans, nil
		}
		if err != nil {
			if sent == nil {
				return ans, err
			}
			if onError != nil {
				onError(sent, err)
			}
			continue
		}
		ans = append(ans, sent)
	}
}

func NewConlluReader(r io.Reader) *ConlluReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ConlluReader{scanner: scanner}
}

// ParseConllu is a shortcut for parsing a single in-memory document
func ParseConllu(data string) ([]*Sentence, error) {
	rdr := NewConlluReader(strings.NewReader(data))
	var firstErr error
	ans, err := rdr.ReadAll(func(sent *Sentence, err error) {
		if firstErr == nil {
			firstErr = err
		}
	})
	if err != nil {
		return ans, err
	}
	return ans, firstErr
}
