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

package grammardb

import (
	"database/sql"
	"testing"

	"cxparse/grammar"
	"cxparse/merror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestRowToDefinition(t *testing.T) {
	row := constructionRow{
		ID:              7,
		Name:            "ApesarDe",
		Type:            "mwe",
		Pattern:         "apesar de",
		Enabled:         true,
		LabelPhrasal:    nullStr("Adp"),
		LookaheadJSON:   nullStr(`{"enabled": true, "maxDistance": 2, "confirmationPatterns": ["{NOUN}"]}`),
		ConstraintsJSON: nullStr(""),
		Examples:        nullStr("apesar da chuva | apesar de tudo"),
	}
	def, err := row.toDefinition()
	require.NoError(t, err)
	assert.Equal(t, 7, def.ID)
	assert.Equal(t, grammar.TypeMWE, def.Type)
	assert.Equal(t, "Adp", def.Labels.Phrasal)
	assert.True(t, def.Lookahead.Enabled)
	assert.Equal(t, 2, def.Lookahead.MaxDistance)
	assert.Equal(t, []string{"{NOUN}"}, def.Lookahead.ConfirmationPatterns)
	assert.Equal(t, []string{"apesar da chuva", "apesar de tudo"}, def.Examples)
	assert.Len(t, def.Constraints, 0)

	g, err := grammar.New("pt", []*grammar.Definition{def})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestRowToDefinitionInvalidConstraints(t *testing.T) {
	row := constructionRow{
		ID:              1,
		Name:            "NP",
		Type:            "phrasal",
		Pattern:         "{DET} {NOUN}",
		ConstraintsJSON: nullStr("{not json"),
	}
	_, err := row.toDefinition()
	var gErr merror.GrammarError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "NP", gErr.Construction)
}

func TestDBConfDefaults(t *testing.T) {
	var empty *DBConf
	assert.False(t, empty.IsConfigured())
	assert.Equal(t, "cx_construction", empty.SafeGetConstructionTable())

	conf := &DBConf{Host: "localhost:3306", Name: "cxparse"}
	require.NoError(t, conf.ValidateAndDefaults())
	assert.Equal(t, 4, conf.PoolSize)
	assert.Equal(t, "cx_construction", conf.ConstructionTable)

	assert.Error(t, (&DBConf{Host: "localhost:3306"}).ValidateAndDefaults())
}
