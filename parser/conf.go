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

package parser

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	DfltMaxActiveAlternatives = 512
	DfltActivationThreshold   = 1.0
)

type Conf struct {

	// MaxActiveAlternatives limits the number of simultaneously
	// live alternatives. Spawns beyond the limit are dropped.
	MaxActiveAlternatives int `json:"maxActiveAlternatives"`

	// ActivationThreshold is a ratio applied to the number of required
	// slots of a construction to obtain its completion threshold
	ActivationThreshold float64 `json:"activationThreshold"`
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf.MaxActiveAlternatives == 0 {
		conf.MaxActiveAlternatives = DfltMaxActiveAlternatives
		log.Warn().
			Int("value", conf.MaxActiveAlternatives).
			Msg("missing or zero `parser.maxActiveAlternatives`, using default")
	}
	if conf.MaxActiveAlternatives < 0 {
		return fmt.Errorf("invalid `parser.maxActiveAlternatives` %d", conf.MaxActiveAlternatives)
	}
	if conf.ActivationThreshold == 0 {
		conf.ActivationThreshold = DfltActivationThreshold
		log.Warn().
			Float64("value", conf.ActivationThreshold).
			Msg("missing or zero `parser.activationThreshold`, using default")
	}
	if conf.ActivationThreshold < 0 || conf.ActivationThreshold > 1 {
		return fmt.Errorf(
			"`parser.activationThreshold` must be from the (0, 1] interval, found %01.2f",
			conf.ActivationThreshold,
		)
	}
	return nil
}

func DefaultConf() Conf {
	return Conf{
		MaxActiveAlternatives: DfltMaxActiveAlternatives,
		ActivationThreshold:   DfltActivationThreshold,
	}
}
