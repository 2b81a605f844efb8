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

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalidInput"
	OutcomeFailed       = "failed"
)

var (
	sentencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cxparse_sentences_total",
		Help: "Processed sentences by function, engine and outcome",
	}, []string{"func", "engine", "outcome"})

	parseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cxparse_sentence_duration_seconds",
		Help:    "Time spent processing a single sentence",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"func", "engine"})

	alternativesSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cxparse_alternatives_spawned_total",
		Help: "Alternatives spawned by the incremental matcher",
	})

	alternativesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cxparse_alternatives_dropped_total",
		Help: "Alternatives dropped because of the active alternatives limit",
	})

	confirmedConstructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cxparse_confirmed_constructions_total",
		Help: "Confirmed constructions by construction type",
	}, []string{"type"})
)

// ObserveSentence records a single processed sentence
func ObserveSentence(fn, engine, outcome string, dur time.Duration) {
	sentencesTotal.WithLabelValues(fn, engine, outcome).Inc()
	parseDuration.WithLabelValues(fn, engine).Observe(dur.Seconds())
}

func AddAlternatives(spawned, dropped int) {
	alternativesSpawned.Add(float64(spawned))
	alternativesDropped.Add(float64(dropped))
}

func AddConfirmed(cxType string, num int) {
	confirmedConstructions.WithLabelValues(cxType).Add(float64(num))
}
