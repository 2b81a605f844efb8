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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"cxparse/cnf"
	"cxparse/rdb"
	"cxparse/results"
	"cxparse/token"
	"cxparse/worker"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

const (
	inputFormatJSONL  = "jsonl"
	inputFormatConllu = "conllu"
)

func guessInputFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".conllu", ".conll":
		return inputFormatConllu
	default:
		return inputFormatJSONL
	}
}

// readBatchInput reads all the sentences from a file (or stdin
// for an empty path or `-`). Unreadable sentences are logged
// and counted.
func readBatchInput(path, format string) ([]*token.Sentence, int, error) {
	var src io.Reader
	if path == "" || path == "-" {
		src = os.Stdin

	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		src = f
	}
	if format == "" {
		format = guessInputFormat(path)
	}
	var numFailed int
	switch format {
	case inputFormatConllu:
		sents, err := token.NewConlluReader(src).ReadAll(func(sent *token.Sentence, err error) {
			log.Warn().Err(err).Str("sentenceId", sent.ID).Msg("skipping invalid sentence")
			numFailed++
		})
		return sents, numFailed, err
	case inputFormatJSONL:
		sents, err := token.ReadJSONLines(src, func(lineNum int, err error) {
			log.Warn().Err(err).Int("line", lineNum).Msg("skipping invalid sentence")
			numFailed++
		})
		return sents, numFailed, err
	}
	return nil, 0, fmt.Errorf("unknown input format `%s`", format)
}

func writeBatchItem(out *bufio.Writer, fn string, sent *token.Sentence, res results.SerializableResult) error {
	if fn == rdb.FuncAnnotate {
		ares, ok := res.(*results.AnnotateResult)
		if ok && ares.Flat != nil && ares.Error == nil {
			_, err := fmt.Fprintln(out, ares.Flat.Text)
			return err
		}
		_, err := fmt.Fprintf(out, "# %s: %s\n", sent.ID, res.Err())
		return err
	}
	data, err := sonic.Marshal(res)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	return out.WriteByte('\n')
}

// runBatch processes a whole input file locally and writes results
// to stdout, one sentence per line.
func runBatch(conf *cnf.Conf, fn, engine, inputPath, format string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := loadGrammar(ctx, conf)
	if err != nil {
		return fmt.Errorf("failed to load grammar: %w", err)
	}
	sents, numInvalid, err := readBatchInput(inputPath, format)
	if err != nil {
		return err
	}
	jobLogger := createJobLogger(ctx, conf)
	jobLogger.Start(ctx)
	defer jobLogger.Stop(context.Background())

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	processor, err := worker.NewProcessor(g, conf.Parser, conf.CLN)
	if err != nil {
		return err
	}
	bp := worker.NewBatchProcessor(
		processor,
		conf.Batch.NumWorkers,
		jobLogger,
	)
	stats, err := bp.Run(
		ctx,
		fn,
		engine,
		sents,
		func(sent *token.Sentence, res results.SerializableResult) error {
			return writeBatchItem(out, fn, sent, res)
		},
	)
	stats.Processed += numInvalid
	stats.ParseErrors += numInvalid
	fmt.Fprintf(os.Stderr, "%s, time: %01.2fs\n", stats, stats.Duration.Seconds())
	return err
}
