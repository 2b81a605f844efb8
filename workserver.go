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
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cxparse/cnf"
	"cxparse/rdb"
	"cxparse/worker"

	"github.com/rs/zerolog/log"
)

func getWorkerID() (workerID string) {
	workerID = getEnv("WORKER_ID")
	if workerID == "" {
		workerID = strconv.Itoa(os.Getpid())
	}
	return
}

func runWorker(conf *cnf.Conf) {
	workerID := getWorkerID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !conf.Redis.IsConfigured() {
		log.Fatal().Msg("worker requires Redis to be configured")
		return
	}

	g, err := loadGrammar(ctx, conf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load grammar")
		return
	}

	radapter := rdb.NewAdapter(conf.Redis, ctx)
	if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	processor, err := worker.NewProcessor(g, conf.Parser, conf.CLN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare parsing engines")
		return
	}
	jobLogger := createJobLogger(ctx, conf)
	ch := radapter.Subscribe()
	wrk := worker.NewWorker(
		workerID,
		radapter,
		ch,
		processor,
		jobLogger,
	)
	runServices(ctx, []service{jobLogger, wrk})
}
