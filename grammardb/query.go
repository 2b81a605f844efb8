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
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cxparse/grammar"
	"cxparse/merror"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

/*
Expected table:

create table cx_construction (
  id_construction int not null primary key,
  grammar varchar(63) not null,
  name varchar(63) not null,
  cx_type varchar(15) not null,
  pattern text not null,
  priority int not null default 0,
  enabled tinyint not null default 1,
  label_phrasal varchar(63),
  label_clausal varchar(63),
  label_sentential varchar(63),
  aggregation varchar(15),
  constraints_json text,
  lookahead_json text,
  examples text,
  unique key (grammar, name)
);

Examples are separated by `|`.
*/

const (
	examplesSeparator = "|"
)

// constructionRow is a raw table row
type constructionRow struct {
	ID              int
	Name            string
	Type            string
	Pattern         string
	Priority        int
	Enabled         bool
	LabelPhrasal    sql.NullString
	LabelClausal    sql.NullString
	LabelSentential sql.NullString
	Aggregation     sql.NullString
	ConstraintsJSON sql.NullString
	LookaheadJSON   sql.NullString
	Examples        sql.NullString
}

func (row constructionRow) toDefinition() (*grammar.Definition, error) {
	def := &grammar.Definition{
		ID:       row.ID,
		Name:     row.Name,
		Type:     grammar.ConstructionType(row.Type),
		Pattern:  row.Pattern,
		Priority: row.Priority,
		Enabled:  row.Enabled,
		Labels: grammar.Labels{
			Phrasal:    row.LabelPhrasal.String,
			Clausal:    row.LabelClausal.String,
			Sentential: row.LabelSentential.String,
		},
		Aggregation: grammar.AggregationPolicy(row.Aggregation.String),
	}
	if row.ConstraintsJSON.Valid && strings.TrimSpace(row.ConstraintsJSON.String) != "" {
		if err := sonic.UnmarshalString(row.ConstraintsJSON.String, &def.Constraints); err != nil {
			return nil, merror.NewGrammarError(row.Name, "invalid constraints: %s", err)
		}
	}
	if row.LookaheadJSON.Valid && strings.TrimSpace(row.LookaheadJSON.String) != "" {
		if err := sonic.UnmarshalString(row.LookaheadJSON.String, &def.Lookahead); err != nil {
			return nil, merror.NewGrammarError(row.Name, "invalid lookahead: %s", err)
		}
	}
	if row.Examples.Valid && row.Examples.String != "" {
		for _, ex := range strings.Split(row.Examples.String, examplesSeparator) {
			if ex = strings.TrimSpace(ex); ex != "" {
				def.Examples = append(def.Examples, ex)
			}
		}
	}
	return def, nil
}

// GrammarDatabase loads construction definitions from MySQL
type GrammarDatabase struct {
	db    *sql.DB
	table string
	ctx   context.Context
}

func (gdb *GrammarDatabase) LoadDefinitions(grammarName string) ([]*grammar.Definition, error) {
	sql1 := "SELECT id_construction, name, cx_type, pattern, priority, enabled, " +
		"label_phrasal, label_clausal, label_sentential, aggregation, " +
		"constraints_json, lookahead_json, examples " +
		"FROM %s WHERE grammar = ? ORDER BY id_construction"
	log.Debug().Str("sql", sql1).Msgf("going to load constructions of %s", grammarName)
	rows, err := gdb.db.QueryContext(gdb.ctx, fmt.Sprintf(sql1, gdb.table), grammarName)
	if err != nil {
		return nil, fmt.Errorf("failed to load constructions: %w", err)
	}
	defer rows.Close()
	ans := make([]*grammar.Definition, 0, 50)
	for rows.Next() {
		var row constructionRow
		err := rows.Scan(
			&row.ID, &row.Name, &row.Type, &row.Pattern, &row.Priority, &row.Enabled,
			&row.LabelPhrasal, &row.LabelClausal, &row.LabelSentential, &row.Aggregation,
			&row.ConstraintsJSON, &row.LookaheadJSON, &row.Examples,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to read construction row: %w", err)
		}
		def, err := row.toDefinition()
		if err != nil {
			return nil, err
		}
		ans = append(ans, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load constructions: %w", err)
	}
	return ans, nil
}

// LoadGrammar loads and compiles a complete grammar
func (gdb *GrammarDatabase) LoadGrammar(grammarName string) (*grammar.Grammar, error) {
	defs, err := gdb.LoadDefinitions(grammarName)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, merror.NewGrammarError("", "no constructions found for grammar `%s`", grammarName)
	}
	g, err := grammar.New(grammarName, defs)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("grammar", g.Name).
		Int("constructions", g.Len()).
		Int("enabled", len(g.Enabled())).
		Msg("loaded grammar from database")
	return g, nil
}

func NewGrammarDatabase(ctx context.Context, db *sql.DB, table string) *GrammarDatabase {
	return &GrammarDatabase{
		db:    db,
		table: table,
		ctx:   ctx,
	}
}
