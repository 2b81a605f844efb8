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

package grammardb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

const (
	dfltConstructionTable = "cx_construction"
	dfltPoolSize          = 4
)

type DBConf struct {
	Host              string `json:"host"`
	Name              string `json:"name"`
	User              string `json:"user"`
	Password          string `json:"password"`
	PoolSize          int    `json:"poolSize"`
	ConstructionTable string `json:"constructionTable"`

	// Grammar selects rows of a single grammar in case
	// the table contains more of them
	Grammar string `json:"grammar"`
}

func (dbc *DBConf) IsConfigured() bool {
	return dbc != nil && dbc.Host != ""
}

func (dbc *DBConf) SafeGetConstructionTable() string {
	if dbc == nil || dbc.ConstructionTable == "" {
		return dfltConstructionTable
	}
	return dbc.ConstructionTable
}

func (dbc *DBConf) ValidateAndDefaults() error {
	if !dbc.IsConfigured() {
		return nil
	}
	if dbc.Name == "" {
		return fmt.Errorf("missing `grammar.db.name`")
	}
	if dbc.PoolSize == 0 {
		dbc.PoolSize = dfltPoolSize
		log.Warn().
			Int("value", dbc.PoolSize).
			Msg("missing or zero `grammar.db.poolSize`, using default")
	}
	if dbc.ConstructionTable == "" {
		dbc.ConstructionTable = dfltConstructionTable
		log.Warn().
			Str("value", dbc.ConstructionTable).
			Msg("missing `grammar.db.constructionTable`, using default")
	}
	return nil
}

func Open(conf *DBConf) (*sql.DB, error) {
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Name
	mconf.ParseTime = true
	mconf.Loc = time.Local
	mconf.Params = map[string]string{"autocommit": "true"}
	db, err := sql.Open("mysql", mconf.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(conf.PoolSize)
	return db, nil
}
