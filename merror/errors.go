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

package merror

import (
	"encoding/json"
	"errors"
	"fmt"
)

type TaggingErrorKind string

const (
	EmptyParseResult TaggingErrorKind = "EmptyParseResult"
	MalformedToken   TaggingErrorKind = "MalformedToken"
)

// TaggingError reports unusable output of the external UD tagger.
// It is fatal for a single sentence only.
type TaggingError struct {
	Kind TaggingErrorKind
	Msg  string
}

func (err TaggingError) Error() string {
	if err.Msg == "" {
		return fmt.Sprintf("ParseError: %s", err.Kind)
	}
	return fmt.Sprintf("ParseError: %s: %s", err.Kind, err.Msg)
}

func (err TaggingError) MarshalJSON() ([]byte, error) {
	return json.Marshal(err.Error())
}

func NewMalformedToken(msg string, args ...any) TaggingError {
	return TaggingError{Kind: MalformedToken, Msg: fmt.Sprintf(msg, args...)}
}

// ----------------------------

// GrammarError is raised while loading/compiling a grammar. A grammar
// producing this error must never be used for parsing.
type GrammarError struct {
	Construction string
	Msg          string
}

func (err GrammarError) Error() string {
	if err.Construction == "" {
		return fmt.Sprintf("grammar error: %s", err.Msg)
	}
	return fmt.Sprintf("grammar error in construction `%s`: %s", err.Construction, err.Msg)
}

func (err GrammarError) MarshalJSON() ([]byte, error) {
	return json.Marshal(err.Error())
}

func NewGrammarError(cxName string, msg string, args ...any) GrammarError {
	return GrammarError{Construction: cxName, Msg: fmt.Sprintf(msg, args...)}
}

// ----------------------------

// MatchInvariantViolation signals an internal bug in the matching
// machinery (e.g. advancing a finished alternative).
type MatchInvariantViolation struct {
	Msg string
}

func (err MatchInvariantViolation) Error() string {
	return "match invariant violation: " + err.Msg
}

func (err MatchInvariantViolation) MarshalJSON() ([]byte, error) {
	return json.Marshal(err.Error())
}

func NewInvariantViolation(msg string, args ...any) MatchInvariantViolation {
	return MatchInvariantViolation{Msg: fmt.Sprintf(msg, args...)}
}

// ----------------------------

type InputError struct {
	Msg string
}

func (err InputError) Error() string {
	return err.Msg
}

func (err InputError) MarshalJSON() ([]byte, error) {
	if err.Msg != "" {
		return json.Marshal(err.Msg)
	}
	return json.Marshal(nil)
}

// ----------------------------

type InternalError struct {
	Msg string
}

func (err InternalError) Error() string {
	return err.Msg
}

func (err InternalError) MarshalJSON() ([]byte, error) {
	if err.Msg != "" {
		return json.Marshal(err.Msg)
	}
	return json.Marshal(nil)
}

// ---------------------------

type RecoveredError struct {
	Msg string
}

func (err RecoveredError) Error() string {
	return err.Msg
}

func (err RecoveredError) MarshalJSON() ([]byte, error) {
	if err.Msg != "" {
		return json.Marshal(err.Msg)
	}
	return json.Marshal(nil)
}

// ---------------------------

type TimeoutError struct {
	Msg string
}

func (err TimeoutError) Error() string {
	return err.Msg
}

func (err TimeoutError) MarshalJSON() ([]byte, error) {
	if err.Msg != "" {
		return json.Marshal(err.Msg)
	}
	return json.Marshal(nil)
}

// -----------------

// IsUserError tells whether the error was caused by invalid input
// (as opposed to an internal failure).
func IsUserError(err error) bool {
	var tErr TaggingError
	var iErr InputError
	var gErr GrammarError
	return errors.As(err, &tErr) || errors.As(err, &iErr) || errors.As(err, &gErr)
}

func PanicValueToErr(v any) (err error) {
	switch tr := v.(type) {
	case error:
		err = fmt.Errorf("recovered panic: %w", tr)
	case string:
		err = fmt.Errorf("recovered panic: %s", tr)
	default:
		err = fmt.Errorf("recovered panic from an error of type %T", v)
	}
	return
}
