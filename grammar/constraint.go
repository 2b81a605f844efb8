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
	"fmt"
	"strings"
)

type ConstraintType string

const (
	// ConstraintAgree requires all the referred slots to share
	// a value of a morphological feature
	ConstraintAgree ConstraintType = "agree"

	// ConstraintRequire requires the referred slots to have
	// a feature with a specific value
	ConstraintRequire ConstraintType = "require"
)

type Constraint struct {
	Type    ConstraintType `json:"type" yaml:"type"`
	Feature string         `json:"feature" yaml:"feature"`
	Value   string         `json:"value,omitempty" yaml:"value,omitempty"`
	Slots   []int          `json:"slots" yaml:"slots"`
}

func (c Constraint) validate(ptrn Pattern) error {
	if c.Feature == "" {
		return fmt.Errorf("constraint without a feature")
	}
	for _, s := range c.Slots {
		if s < 0 || s >= len(ptrn) {
			return fmt.Errorf("constraint refers to a non-existing slot %d", s)
		}
	}
	switch c.Type {
	case ConstraintAgree:
		if len(c.Slots) < 2 {
			return fmt.Errorf("agreement constraint needs at least two slots")
		}
	case ConstraintRequire:
		if c.Value == "" || len(c.Slots) == 0 {
			return fmt.Errorf("require constraint needs a value and at least one slot")
		}
	default:
		return fmt.Errorf("unknown constraint type `%s`", c.Type)
	}
	return nil
}

// Check evaluates the constraint over the units matched so far.
// Slots without a matched unit (not reached yet or skipped optional
// ones) are not considered so a partial match is rejected as soon
// as the constraint is violated.
func (c Constraint) Check(matched func(slot int) (Unit, bool)) bool {
	switch c.Type {
	case ConstraintAgree:
		var ref string
		var hasRef bool
		for _, s := range c.Slots {
			u, ok := matched(s)
			if !ok {
				continue
			}
			v, _ := u.Feature(c.Feature)
			if !hasRef {
				ref = v
				hasRef = true

			} else if !strings.EqualFold(ref, v) {
				return false
			}
		}
	case ConstraintRequire:
		for _, s := range c.Slots {
			u, ok := matched(s)
			if !ok {
				continue
			}
			if v, _ := u.Feature(c.Feature); !strings.EqualFold(v, c.Value) {
				return false
			}
		}
	}
	return true
}

type Constraints []Constraint

func (cs Constraints) Check(matched func(slot int) (Unit, bool)) bool {
	for _, c := range cs {
		if !c.Check(matched) {
			return false
		}
	}
	return true
}
