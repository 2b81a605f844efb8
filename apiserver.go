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
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cxparse/cnf"
	"cxparse/handlers"
	"cxparse/monitoring"
	"cxparse/openapi"
	"cxparse/rdb"
	"cxparse/tagger"
	"cxparse/worker"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type apiServer struct {
	server    *http.Server
	conf      *cnf.Conf
	version   VersionInfo
	radapter  *rdb.Adapter
	processor *worker.Processor
	jobLogger *monitoring.WorkerJobLogger
}

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(additionalLogEvents())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(CORSMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	var tg *tagger.Client
	if api.conf.Tagger.IsConfigured() {
		tg = tagger.NewClient(api.conf.Tagger)
		log.Info().Str("url", api.conf.Tagger.URL).Msg("enabling remote tagger for plain text input")

	} else {
		log.Info().Msg("tagger not configured - plain text input will be rejected")
	}

	cxActions := handlers.NewActions(api.processor, api.radapter, tg, api.jobLogger)

	engine.GET("/", func(ctx *gin.Context) {
		uniresp.WriteJSONResponse(ctx.Writer, map[string]any{
			"name":          "CXPARSE",
			"version":       api.version,
			"grammar":       api.processor.Grammar().Name,
			"constructions": api.processor.Grammar().Len(),
			"distributed":   api.radapter != nil,
		})
	})

	engine.GET("/openapi", openapi.MkHandleRequest(api.conf.PublicURLs, api.version.Version))

	engine.POST("/parse", cxActions.Parse)

	engine.POST("/annotate", cxActions.Annotate)

	engine.GET("/grammar", cxActions.Grammar)

	engine.GET("/grammar/:name", cxActions.Construction)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	monActions := monitoring.NewActions(api.jobLogger, api.conf.TimezoneLocation())
	protected := engine.Group("/monitoring").Use(AuthRequired(api.conf))
	protected.GET("/workers-load", monActions.WorkersLoad)
	protected.GET("/worker-load/:workerId", monActions.SingleWorkerLoad)
	protected.GET("/recent-records", monActions.RecentRecords)

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down CXPARSE HTTP API server")
	return api.server.Shutdown(ctx)
}

// createJobLogger creates a job logger writing to TimescaleDB
// if configured
func createJobLogger(ctx context.Context, conf *cnf.Conf) *monitoring.WorkerJobLogger {
	var statusWriter monitoring.StatusWriter
	if conf.Monitoring.HasDB() {
		tsw, err := monitoring.NewTimescaleDBWriter(ctx, *conf.Monitoring.DB, conf.TimezoneLocation())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize monitoring database")
		}
		statusWriter = tsw

	} else {
		log.Info().Msg("monitoring database not configured, job statistics kept in memory only")
	}
	return monitoring.NewWorkerJobLogger(statusWriter, conf.TimezoneLocation())
}

func runApiServer(conf *cnf.Conf, version VersionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := loadGrammar(ctx, conf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load grammar")
		return
	}
	log.Info().Str("grammar", g.Name).Int("constructions", g.Len()).Msg("grammar loaded")
	processor, err := worker.NewProcessor(g, conf.Parser, conf.CLN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare parsing engines")
		return
	}

	var radapter *rdb.Adapter
	if conf.Redis.IsConfigured() {
		radapter = rdb.NewAdapter(conf.Redis, ctx)
		if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
			return
		}
	}
	jobLogger := createJobLogger(ctx, conf)
	server := &apiServer{
		conf:      conf,
		version:   version,
		radapter:  radapter,
		processor: processor,
		jobLogger: jobLogger,
	}
	runServices(ctx, []service{jobLogger, server})
}
