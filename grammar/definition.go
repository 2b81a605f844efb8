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
	"encoding/json"
	"fmt"
	"strings"

	"cxparse/merror"

	"gopkg.in/yaml.v3"
)

// Definition describes a single construction. Definitions are loaded
// once, compiled and then shared read-only by all the parsers.
type Definition struct {
	ID          int               `json:"idConstruction" yaml:"idConstruction"`
	Name        string            `json:"name" yaml:"name"`
	Type        ConstructionType  `json:"type" yaml:"type"`
	Pattern     string            `json:"pattern" yaml:"pattern"`
	Compiled    Pattern           `json:"compiledPattern,omitempty" yaml:"compiledPattern,omitempty"`
	Priority    int               `json:"priority" yaml:"priority"`
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	Labels      Labels            `json:"labels" yaml:"labels"`
	Constraints Constraints       `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Lookahead   Lookahead         `json:"lookahead" yaml:"lookahead"`
	Aggregation AggregationPolicy `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Examples    []string          `json:"examples,omitempty" yaml:"examples,omitempty"`

	compiled bool
}

// UnmarshalJSON makes missing `enabled` mean true
func (def *Definition) UnmarshalJSON(data []byte) error {
	type rawDef Definition
	tmp := rawDef{Enabled: true}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*def = Definition(tmp)
	return nil
}

func (def *Definition) UnmarshalYAML(value *yaml.Node) error {
	type rawDef Definition
	tmp := rawDef{Enabled: true}
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*def = Definition(tmp)
	return nil
}

// Compile validates the definition, compiles its pattern and fills
// in defaults (priority, aggregation). If the definition already
// contains a compiled pattern (e.g. from an export), it must be
// identical to the one compiled from the pattern source.
func (def *Definition) Compile() error {
	if def.compiled {
		return nil
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return merror.NewGrammarError("", "construction %d has no name", def.ID)
	}
	tp, err := ParseConstructionType(string(def.Type))
	if err != nil {
		return merror.NewGrammarError(def.Name, "%s", err)
	}
	def.Type = tp
	ptrn, err := CompilePattern(def.Pattern)
	if err != nil {
		return merror.NewGrammarError(def.Name, "%s", err)
	}
	if len(def.Compiled) > 0 {
		if def.Compiled.String() != ptrn.String() {
			return merror.NewGrammarError(
				def.Name, "compiled pattern `%s` does not match pattern `%s`",
				def.Compiled.String(), def.Pattern,
			)
		}
	}
	def.Compiled = ptrn
	lo, hi := def.Type.PriorityBand()
	if def.Priority == 0 {
		def.Priority = lo
	}
	if def.Priority < lo || def.Priority > hi {
		return merror.NewGrammarError(
			def.Name, "priority %d outside of the %s band %d-%d", def.Priority, def.Type, lo, hi)
	}
	if def.Aggregation == "" {
		def.Aggregation = def.Type.DefaultAggregation()
	}
	if err := def.Aggregation.Validate(); err != nil {
		return merror.NewGrammarError(def.Name, "%s", err)
	}
	if def.Type == TypeMWE && def.Aggregation == AggregateNone {
		return merror.NewGrammarError(def.Name, "MWE constructions must aggregate")
	}
	for _, c := range def.Constraints {
		if err := c.validate(ptrn); err != nil {
			return merror.NewGrammarError(def.Name, "%s", err)
		}
	}
	if err := def.Lookahead.compile(); err != nil {
		return merror.NewGrammarError(def.Name, "%s", err)
	}
	def.compiled = true
	return nil
}

func (def *Definition) IsCompiled() bool {
	return def.compiled
}

// Threshold is the activation a match needs to be complete
func (def *Definition) Threshold() int {
	return def.Compiled.Required()
}

func (def *Definition) HasLookahead() bool {
	return def.Lookahead.Enabled
}

// Label returns the CE label at the natural level of the construction
// or, if not defined, the first defined one.
func (def *Definition) Label() string {
	if v := def.Labels.At(def.Type.NaturalLevel()); v != "" {
		return v
	}
	if levs := def.Labels.Levels(); len(levs) > 0 {
		return def.Labels.At(levs[0])
	}
	return ""
}

func (def *Definition) String() string {
	return fmt.Sprintf("%s(%s, %d): %s", def.Name, def.Type, def.Priority, def.Pattern)
}
