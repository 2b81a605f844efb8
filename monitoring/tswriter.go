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
	"context"
	"time"

	"cxparse/results"

	"github.com/czcorpus/hltscl"
	"github.com/rs/zerolog/log"
)

/*
Expected tables:

create table cxparse_sentence_stats (
  "time" timestamp with time zone NOT NULL,
  worker_id text,
  func text,
  num_tokens int,
  num_errors int,
  duration_secs float
);
select create_hypertable('cxparse_sentence_stats', 'time');

create table cxparse_failed_sentences (
  "time" timestamp with time zone NOT NULL,
  worker_id text,
  func text,
  sentence_id text,
  error text
);
select create_hypertable('cxparse_failed_sentences', 'time');
*/

const (
	statsTableName    = "cxparse_sentence_stats"
	failuresTableName = "cxparse_failed_sentences"
	tsWriteTimeout    = 20 * time.Second
)

type tsTable struct {
	name   string
	writer *hltscl.TableWriter
	data   chan<- hltscl.Entry
	errs   <-chan hltscl.WriteError
}

func activateTable(ctx context.Context, name string, writer *hltscl.TableWriter) *tsTable {
	ans := &tsTable{
		name:   name,
		writer: writer,
	}
	ans.data, ans.errs = writer.Activate(ctx, hltscl.WithTimeout(tsWriteTimeout))
	return ans
}

// TimescaleDBWriter stores per-sentence statistics and failed
// sentences in TimescaleDB
type TimescaleDBWriter struct {
	stats    *tsTable
	failures *tsTable
	location *time.Location
}

func (sw *TimescaleDBWriter) logWriteError(table string, err hltscl.WriteError) {
	log.Error().
		Err(err.Err).
		Str("entry", err.Entry.String()).
		Str("table", table).
		Msg("error writing data to TimescaleDB")
}

func (sw *TimescaleDBWriter) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("about to close TimescaleDB status writer")
				return
			case err := <-sw.stats.errs:
				sw.logWriteError(sw.stats.name, err)
			case err := <-sw.failures.errs:
				sw.logWriteError(sw.failures.name, err)
			}
		}
	}()
}

func (sw *TimescaleDBWriter) Stop(ctx context.Context) error {
	log.Warn().Msg("stopping TimescaleDB status writer")
	return nil
}

func (sw *TimescaleDBWriter) Write(item results.JobLog) {
	now := time.Now().In(sw.location)
	var numErr int
	if item.Err != nil {
		numErr = 1
		sw.failures.data <- *sw.failures.writer.NewEntry(now).
			Str("worker_id", item.WorkerID).
			Str("func", item.Func).
			Str("sentence_id", item.SentenceID).
			Str("error", item.Err.Error())
	}
	sw.stats.data <- *sw.stats.writer.NewEntry(now).
		Str("worker_id", item.WorkerID).
		Str("func", item.Func).
		Int("num_tokens", item.NumTokens).
		Int("num_errors", numErr).
		Float("duration_secs", item.TimeSpent().Seconds())
}

func NewTimescaleDBWriter(
	ctx context.Context,
	conf hltscl.PgConf,
	tz *time.Location,
) (*TimescaleDBWriter, error) {
	conn, err := hltscl.CreatePool(conf)
	if err != nil {
		return nil, err
	}
	return &TimescaleDBWriter{
		stats: activateTable(
			ctx, statsTableName, hltscl.NewTableWriter(conn, statsTableName, "time", tz)),
		failures: activateTable(
			ctx, failuresTableName, hltscl.NewTableWriter(conn, failuresTableName, "time", tz)),
		location: tz,
	}, nil
}
