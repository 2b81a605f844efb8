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

	"cxparse/results"

	"github.com/bytedance/sonic"
)

// WorkerLoad aggregates processed jobs of a worker (or of all workers)
type WorkerLoad struct {
	NumJobs       int
	NumTokens     int
	TotalTimeSecs float64
	NumErrors     int
	FirstUpdate   time.Time
	LastUpdate    time.Time
	NumWorkers    int
}

// addJob accounts a single job. Jobs are expected to arrive
// roughly in the order of their end.
func (wl *WorkerLoad) addJob(rec results.JobLog) {
	if wl.NumJobs == 0 || rec.Begin.Before(wl.FirstUpdate) {
		wl.FirstUpdate = rec.Begin
	}
	if rec.End.After(wl.LastUpdate) {
		wl.LastUpdate = rec.End
	}
	if rec.Err != nil {
		wl.NumErrors++
	}
	wl.NumJobs++
	wl.NumTokens += rec.NumTokens
	wl.TotalTimeSecs += rec.TimeSpent().Seconds()
}

// TotalSpan returns time span covered by the load info
func (wl WorkerLoad) TotalSpan() time.Duration {
	return wl.LastUpdate.Sub(wl.FirstUpdate)
}

func (wl WorkerLoad) AvgLoad() float64 {
	if wl.TotalTimeSecs == 0 || wl.TotalSpan() <= 0 || wl.NumWorkers == 0 {
		return 0
	}
	return wl.TotalTimeSecs / wl.TotalSpan().Seconds() / float64(wl.NumWorkers)
}

// TokensPerSec is the parsing throughput while actually working
func (wl WorkerLoad) TokensPerSec() float64 {
	if wl.TotalTimeSecs == 0 {
		return 0
	}
	return float64(wl.NumTokens) / wl.TotalTimeSecs
}

func (wl WorkerLoad) MarshalJSON() ([]byte, error) {
	var t0, t1 *time.Time
	if !wl.FirstUpdate.IsZero() {
		t0 = &wl.FirstUpdate
	}
	if !wl.LastUpdate.IsZero() {
		t1 = &wl.LastUpdate
	}
	return sonic.Marshal(
		struct {
			NumJobs       int        `json:"numJobs"`
			NumTokens     int        `json:"numTokens"`
			TotalTimeSecs float64    `json:"totalTimeSecs"`
			NumErrors     int        `json:"numErrors"`
			FirstUpdate   *time.Time `json:"firstUpdate,omitempty"`
			LastUpdate    *time.Time `json:"lastUpdate,omitempty"`
			AvgLoad       float64    `json:"avgLoad"`
			TokensPerSec  float64    `json:"tokensPerSec"`
		}{
			NumJobs:       wl.NumJobs,
			NumTokens:     wl.NumTokens,
			TotalTimeSecs: wl.TotalTimeSecs,
			NumErrors:     wl.NumErrors,
			FirstUpdate:   t0,
			LastUpdate:    t1,
			AvgLoad:       wl.AvgLoad(),
			TokensPerSec:  wl.TokensPerSec(),
		},
	)
}

// ---

// WorkersLoad maps worker IDs to their load
type WorkersLoad map[string]WorkerLoad

// SumLoad merges loads of all the workers
func (wl WorkersLoad) SumLoad(tz *time.Location) WorkerLoad {
	var ans WorkerLoad
	for _, v := range wl {
		ans.NumJobs += v.NumJobs
		ans.NumTokens += v.NumTokens
		ans.NumErrors += v.NumErrors
		ans.TotalTimeSecs += v.TotalTimeSecs
		if ans.FirstUpdate.IsZero() || v.FirstUpdate.Before(ans.FirstUpdate) {
			ans.FirstUpdate = v.FirstUpdate.In(tz)
		}
		if v.LastUpdate.After(ans.LastUpdate) {
			ans.LastUpdate = v.LastUpdate.In(tz)
		}
	}
	ans.NumWorkers = len(wl)
	return ans
}

func (wl WorkersLoad) cleanOldRecords() {
	limit := time.Now().Add(-StaleWorkerLoadTTL)
	for k, v := range wl {
		if v.LastUpdate.Before(limit) {
			delete(wl, k)
		}
	}
}
