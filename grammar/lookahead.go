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

import "fmt"

// Lookahead configures deferred resolution of a completed match.
// A tentatively complete match is confirmed as soon as any of the
// confirmation patterns matches the tokens following it and it is
// invalidated when any of the invalidation patterns matches.
// Patterns are tested against contiguous runs of following tokens
// ending at the current token. With neither of them matching within
// MaxDistance tokens, the match is confirmed.
type Lookahead struct {
	Enabled              bool     `json:"enabled" yaml:"enabled"`
	MaxDistance          int      `json:"maxDistance" yaml:"maxDistance"`
	ConfirmationPatterns []string `json:"confirmationPatterns,omitempty" yaml:"confirmationPatterns,omitempty"`
	InvalidationPatterns []string `json:"invalidationPatterns,omitempty" yaml:"invalidationPatterns,omitempty"`

	confirmation []Pattern
	invalidation []Pattern
}

func (la *Lookahead) compile() error {
	if !la.Enabled {
		return nil
	}
	if la.MaxDistance < 1 {
		return fmt.Errorf("lookahead maxDistance must be at least 1")
	}
	la.confirmation = make([]Pattern, 0, len(la.ConfirmationPatterns))
	for _, src := range la.ConfirmationPatterns {
		p, err := CompilePattern(src)
		if err != nil {
			return fmt.Errorf("invalid confirmation pattern: %w", err)
		}
		la.confirmation = append(la.confirmation, p)
	}
	la.invalidation = make([]Pattern, 0, len(la.InvalidationPatterns))
	for _, src := range la.InvalidationPatterns {
		p, err := CompilePattern(src)
		if err != nil {
			return fmt.Errorf("invalid invalidation pattern: %w", err)
		}
		la.invalidation = append(la.invalidation, p)
	}
	return nil
}

// Confirms tests the window (tokens following the match up to
// the current one) against the confirmation patterns.
func (la *Lookahead) Confirms(window []Unit) bool {
	for _, p := range la.confirmation {
		if p.MatchSuffix(window) {
			return true
		}
	}
	return false
}

// Invalidates tests the window against the invalidation patterns.
func (la *Lookahead) Invalidates(window []Unit) bool {
	for _, p := range la.invalidation {
		if p.MatchSuffix(window) {
			return true
		}
	}
	return false
}
