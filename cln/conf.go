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

package cln

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	DfltPredictionTTL      = 8
	DfltPredictionStrength = 1.0
	DfltThresholdRatio     = 1.0
)

type Conf struct {

	// PredictionTTL is a number of columns a prediction stays alive
	PredictionTTL int `json:"predictionTTL"`

	// PredictionStrength is the boost a confirmed prediction
	// adds to its ghost construction
	PredictionStrength float64 `json:"predictionStrength"`

	// ThresholdRatio multiplied by the number of required slots gives
	// the activation a ghost needs to be confirmed
	ThresholdRatio float64 `json:"thresholdRatio"`

	// ExclusiveMatching lets a single input item confirm only the
	// most recent matching prediction (default true)
	ExclusiveMatching *bool `json:"exclusiveMatching"`
}

func (conf *Conf) IsExclusive() bool {
	return conf.ExclusiveMatching == nil || *conf.ExclusiveMatching
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf.PredictionTTL == 0 {
		conf.PredictionTTL = DfltPredictionTTL
		log.Warn().
			Int("value", conf.PredictionTTL).
			Msg("missing or zero `cln.predictionTTL`, using default")
	}
	if conf.PredictionTTL < 0 {
		return fmt.Errorf("invalid `cln.predictionTTL` %d", conf.PredictionTTL)
	}
	if conf.PredictionStrength == 0 {
		conf.PredictionStrength = DfltPredictionStrength
		log.Warn().
			Float64("value", conf.PredictionStrength).
			Msg("missing or zero `cln.predictionStrength`, using default")
	}
	if conf.ThresholdRatio == 0 {
		conf.ThresholdRatio = DfltThresholdRatio
		log.Warn().
			Float64("value", conf.ThresholdRatio).
			Msg("missing or zero `cln.thresholdRatio`, using default")
	}
	if conf.PredictionStrength < 0 || conf.ThresholdRatio < 0 {
		return fmt.Errorf("`cln.predictionStrength` and `cln.thresholdRatio` must be positive")
	}
	return nil
}

// DefaultConf returns configuration with all the default values
func DefaultConf() Conf {
	return Conf{
		PredictionTTL:      DfltPredictionTTL,
		PredictionStrength: DfltPredictionStrength,
		ThresholdRatio:     DfltThresholdRatio,
	}
}
