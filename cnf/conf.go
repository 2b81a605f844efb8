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

package cnf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cxparse/cln"
	"cxparse/grammardb"
	"cxparse/monitoring"
	"cxparse/parser"
	"cxparse/rdb"
	"cxparse/tagger"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerWriteTimeoutSecs = 30
	dfltServerReadTimeoutSecs  = 10
	dfltListenPort             = 8090
	dfltTimeZone               = "Europe/Prague"
	dfltBatchNumWorkers        = 4
)

// GrammarConf specifies where to load the grammar from. A file
// has precedence over the database.
type GrammarConf struct {
	Path string            `json:"path"`
	DB   *grammardb.DBConf `json:"db"`
}

type BatchConf struct {
	NumWorkers int `json:"numWorkers"`
}

// Conf is a global configuration of the app
type Conf struct {
	ListenAddress          string           `json:"listenAddress"`
	ListenPort             int              `json:"listenPort"`
	PublicURLs             []string         `json:"publicUrls"`
	ServerReadTimeoutSecs  int              `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int              `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string         `json:"corsAllowedOrigins"`
	AuthHeaderName         string           `json:"authHeaderName"`
	AuthTokens             []string         `json:"authTokens"`
	LogFile                string           `json:"logFile"`
	LogLevel               logging.LogLevel `json:"logLevel"`
	TimeZone               string           `json:"timeZone"`
	Redis                  *rdb.Conf        `json:"redis"`
	Grammar                GrammarConf      `json:"grammar"`
	Parser                 parser.Conf      `json:"parser"`
	CLN                    cln.Conf         `json:"cln"`
	Batch                  BatchConf        `json:"batch"`
	Tagger                 *tagger.Conf     `json:"tagger"`
	Monitoring             *monitoring.Conf `json:"monitoring"`

	srcPath string
}

func (conf *Conf) IsDebugMode() bool {
	return conf.LogLevel == "debug"
}

func (conf *Conf) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call c.Validate()
	// first (which also tries to load the location and report possible
	// error)
	loc, _ := time.LoadLocation(conf.TimeZone)
	return loc
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	var cwd string
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

// GrammarPath returns the grammar file path. A relative path
// is resolved against the directory of the config file.
func (conf *Conf) GrammarPath() string {
	if conf.Grammar.Path == "" || filepath.IsAbs(conf.Grammar.Path) {
		return conf.Grammar.Path
	}
	return filepath.Join(filepath.Dir(conf.GetSourcePath()), conf.Grammar.Path)
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

// Validate checks the configuration and fills in defaults. Warnings are
// logged for each defaulted value.
func Validate(conf *Conf) error {
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
		log.Warn().Int("value", conf.ListenPort).Msg("missing or zero `listenPort`, using default")
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().
			Int("value", conf.ServerWriteTimeoutSecs).
			Msg("missing or zero `serverWriteTimeoutSecs`, using default")
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
		log.Warn().
			Int("value", conf.ServerReadTimeoutSecs).
			Msg("missing or zero `serverReadTimeoutSecs`, using default")
	}
	if conf.TimeZone == "" {
		conf.TimeZone = dfltTimeZone
		log.Warn().
			Str("timeZone", dfltTimeZone).
			Msg("time zone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone: %w", err)
	}

	// grammar source
	if conf.Grammar.Path != "" {
		if isf, _ := fs.IsFile(conf.GrammarPath()); !isf {
			return fmt.Errorf("grammar file `%s` not found", conf.GrammarPath())
		}

	} else if !conf.Grammar.DB.IsConfigured() {
		return fmt.Errorf("missing grammar source, either `grammar.path` or `grammar.db` must be set")
	}
	if err := conf.Grammar.DB.ValidateAndDefaults(); err != nil {
		return err
	}

	if err := conf.Parser.ValidateAndDefaults(); err != nil {
		return err
	}
	if err := conf.CLN.ValidateAndDefaults(); err != nil {
		return err
	}
	if conf.Batch.NumWorkers == 0 {
		conf.Batch.NumWorkers = dfltBatchNumWorkers
		log.Warn().
			Int("value", conf.Batch.NumWorkers).
			Msg("missing or zero `batch.numWorkers`, using default")
	}
	if err := conf.Tagger.ValidateAndDefaults(); err != nil {
		return err
	}
	if !conf.Redis.IsConfigured() {
		log.Warn().Msg("Redis not configured, API server will process requests in-process")
	}
	return nil
}

func ValidateAndDefaults(conf *Conf) {
	if err := Validate(conf); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
}
