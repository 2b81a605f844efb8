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

package results

import (
	"math"
	"time"

	"github.com/bytedance/sonic"
)

const (
	ResultWorkerPerformance = "workerPerformance"
)

// JobLog describes a single job processed by a worker
// (either a Redis worker or a batch worker)
type JobLog struct {
	WorkerID   string    `json:"workerId"`
	Func       string    `json:"func"`
	SentenceID string    `json:"sentenceId,omitempty"`
	NumTokens  int       `json:"numTokens"`
	Begin      time.Time `json:"begin"`
	End        time.Time `json:"end"`
	Err        error     `json:"error"`
}

func (jl JobLog) TimeSpent() time.Duration {
	return jl.End.Sub(jl.Begin)
}

func (jl *JobLog) ToJSON() (string, error) {
	var errStr string
	if jl.Err != nil {
		errStr = jl.Err.Error()
	}
	ans, err := sonic.MarshalString(struct {
		WorkerID   string    `json:"workerId"`
		Func       string    `json:"func"`
		SentenceID string    `json:"sentenceId,omitempty"`
		NumTokens  int       `json:"numTokens"`
		Begin      time.Time `json:"begin"`
		End        time.Time `json:"end"`
		Err        string    `json:"error,omitempty"`
	}{
		WorkerID:   jl.WorkerID,
		Func:       jl.Func,
		SentenceID: jl.SentenceID,
		NumTokens:  jl.NumTokens,
		Begin:      jl.Begin,
		End:        jl.End,
		Err:        errStr,
	})
	if err != nil {
		return "", err
	}
	return ans, nil
}

// NormRound performs a normalized rounding to
// the three decimal places so we can provide
// consistent rounding across all the results
func NormRound(val float64) float64 {
	return math.Round(val*1000) / 1000
}
