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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaggingErrorMessage(t *testing.T) {
	err := TaggingError{Kind: EmptyParseResult}
	assert.Equal(t, "ParseError: EmptyParseResult", err.Error())
	err2 := NewMalformedToken("token %d has no word", 3)
	assert.Equal(t, "ParseError: MalformedToken: token 3 has no word", err2.Error())
}

func TestIsUserErrorWrapped(t *testing.T) {
	err := fmt.Errorf("sentence s1: %w", NewGrammarError("NP", "empty pattern"))
	assert.True(t, IsUserError(err))
	assert.False(t, IsUserError(errors.New("redis down")))
	assert.False(t, IsUserError(NewInvariantViolation("clause without tokens")))
}

func TestPanicValueToErrKeepsType(t *testing.T) {
	err := PanicValueToErr(NewInvariantViolation("advance from abandoned"))
	var miv MatchInvariantViolation
	assert.True(t, errors.As(err, &miv))
	assert.Equal(t, "recovered panic: foo", PanicValueToErr("foo").Error())
}
