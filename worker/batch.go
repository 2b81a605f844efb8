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

package worker

import (
	"context"
	"fmt"
	"time"

	"cxparse/merror"
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchWorkers = 4
)

// BatchStats summarizes a batch run. Sentences which could not
// even be read are counted as parse errors too.
type BatchStats struct {
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	ParseErrors int           `json:"parseErrors"`
	Duration    time.Duration `json:"-"`
}

func (bs BatchStats) String() string {
	return fmt.Sprintf(
		"processed: %d, failed: %d, parse errors: %d", bs.Processed, bs.Failed, bs.ParseErrors)
}

func (bs *BatchStats) add(err error) {
	bs.Processed++
	if err == nil {
		return
	}
	if merror.IsUserError(err) {
		bs.ParseErrors++

	} else {
		bs.Failed++
	}
}

// BatchProcessor runs a batch of sentences in parallel. Results
// are emitted in the input order.
type BatchProcessor struct {
	ID         string
	processor  *Processor
	numWorkers int
	jobLogger  jobLogger
}

func (bp *BatchProcessor) process(fn, engine string, sent *token.Sentence) results.SerializableResult {
	switch fn {
	case rdb.FuncAnnotate:
		return bp.processor.Annotate(sent)
	default:
		return bp.processor.Parse(engine, sent)
	}
}

// Run processes all the sentences using `fn` (parse or annotate).
// Emitting stops the batch on the first error returned by `emit`.
func (bp *BatchProcessor) Run(
	ctx context.Context,
	fn string,
	engine string,
	sents []*token.Sentence,
	emit func(sent *token.Sentence, res results.SerializableResult) error,
) (BatchStats, error) {
	var stats BatchStats
	t0 := time.Now()
	out := make([]results.SerializableResult, len(sents))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(bp.numWorkers)
	for i, sent := range sents {
		if grpCtx.Err() != nil {
			break
		}
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			jl := results.JobLog{
				WorkerID:   bp.ID,
				Func:       fn,
				SentenceID: sent.ID,
				NumTokens:  sent.Len(),
				Begin:      time.Now(),
			}
			out[i] = bp.process(fn, engine, sent)
			jl.End = time.Now()
			jl.Err = out[i].Err()
			if bp.jobLogger != nil {
				bp.jobLogger.Log(jl)
			}
			return nil
		})
	}
	err := grp.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		stats.Duration = time.Since(t0)
		return stats, err
	}
	for i, res := range out {
		stats.add(res.Err())
		if err := emit(sents[i], res); err != nil {
			stats.Duration = time.Since(t0)
			return stats, fmt.Errorf("failed to emit result of sentence %s: %w", sents[i].ID, err)
		}
	}
	stats.Duration = time.Since(t0)
	log.Info().
		Str("batchId", bp.ID).
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Int("parseErrors", stats.ParseErrors).
		Float64("durationSecs", stats.Duration.Seconds()).
		Msg("batch finished")
	return stats, nil
}

func NewBatchProcessor(processor *Processor, numWorkers int, jobLogger jobLogger) *BatchProcessor {
	if numWorkers <= 0 {
		numWorkers = DefaultBatchWorkers
	}
	return &BatchProcessor{
		ID:         "batch-" + uuid.New().String(),
		processor:  processor,
		numWorkers: numWorkers,
		jobLogger:  jobLogger,
	}
}
