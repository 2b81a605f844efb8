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
	"sort"
	"strings"

	"cxparse/merror"

	"github.com/rs/zerolog/log"
)

// Grammar is a validated, compiled set of construction definitions.
// Once created, it is read-only and can be shared by any number
// of concurrently running parsers.
type Grammar struct {
	Name     string
	Language string

	defs   []*Definition
	byName map[string]*Definition

	// enabled contains enabled definitions ordered by priority
	// (desc.) and then by the original order
	enabled []*Definition

	// referrers maps a construction name to enabled constructions
	// referring to it via `[Name]`
	referrers map[string][]*Definition
}

// New compiles all the definitions and validates the grammar as
// a whole. Any problem is reported as merror.GrammarError and such
// a grammar must not be used.
func New(name string, defs []*Definition) (*Grammar, error) {
	ans := &Grammar{
		Name:      name,
		defs:      defs,
		byName:    make(map[string]*Definition, len(defs)),
		referrers: make(map[string][]*Definition),
	}
	for _, def := range defs {
		if err := def.Compile(); err != nil {
			return nil, err
		}
		if _, ok := ans.byName[def.Name]; ok {
			return nil, merror.NewGrammarError(def.Name, "duplicate construction name")
		}
		ans.byName[def.Name] = def
	}
	for _, def := range defs {
		for _, ref := range def.Compiled.References() {
			target, ok := ans.byName[ref]
			if !ok {
				return nil, merror.NewGrammarError(def.Name, "reference to an unknown construction `%s`", ref)
			}
			if def.Enabled && !target.Enabled {
				log.Warn().
					Str("construction", def.Name).
					Str("reference", ref).
					Msg("construction refers to a disabled construction, it will never complete")
			}
			if def.Enabled {
				ans.referrers[ref] = append(ans.referrers[ref], def)
			}
		}
		if def.Enabled {
			ans.enabled = append(ans.enabled, def)
		}
	}
	if cycle := ans.findReferenceCycle(); len(cycle) > 0 {
		return nil, merror.NewGrammarError(
			cycle[0], "cyclic construction references: %s", strings.Join(cycle, " -> "))
	}
	sort.SliceStable(ans.enabled, func(i, j int) bool {
		return ans.enabled[i].Priority > ans.enabled[j].Priority
	})
	return ans, nil
}

// findReferenceCycle searches the graph where A -> B means "completion
// of A can complete B". Completions are propagated within a single
// token step so such graph must be acyclic.
func (g *Grammar) findReferenceCycle() []string {
	const (
		white = iota
		grey
		black
	)
	colors := make(map[string]int, len(g.defs))
	stack := make([]string, 0, 8)
	var visit func(name string) []string
	visit = func(name string) []string {
		colors[name] = grey
		stack = append(stack, name)
		for _, ref := range g.allReferrers(name) {
			switch colors[ref.Name] {
			case grey:
				for i, v := range stack {
					if v == ref.Name {
						return append(append([]string{}, stack[i:]...), ref.Name)
					}
				}
			case white:
				if c := visit(ref.Name); len(c) > 0 {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[name] = black
		return nil
	}
	for _, def := range g.defs {
		if colors[def.Name] == white {
			if c := visit(def.Name); len(c) > 0 {
				return c
			}
		}
	}
	return nil
}

// allReferrers includes also disabled constructions so enabling
// one later cannot introduce a cycle
func (g *Grammar) allReferrers(name string) []*Definition {
	ans := make([]*Definition, 0, 4)
	for _, def := range g.defs {
		for _, ref := range def.Compiled.References() {
			if ref == name {
				ans = append(ans, def)
				break
			}
		}
	}
	return ans
}

// Definitions returns all the definitions in their original order
func (g *Grammar) Definitions() []*Definition {
	return g.defs
}

// Enabled returns enabled definitions, the higher priority first
func (g *Grammar) Enabled() []*Definition {
	return g.enabled
}

func (g *Grammar) Get(name string) (*Definition, bool) {
	def, ok := g.byName[name]
	return def, ok
}

func (g *Grammar) Len() int {
	return len(g.defs)
}

// Referrers returns enabled constructions with a `[name]` slot
func (g *Grammar) Referrers(name string) []*Definition {
	return g.referrers[name]
}

// MustNew is New for static fixtures, it panics on an invalid grammar
func MustNew(name string, defs ...*Definition) *Grammar {
	g, err := New(name, defs)
	if err != nil {
		panic(err.Error())
	}
	return g
}
