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

	"cxparse/results"

	"github.com/czcorpus/hltscl"
)

type Conf struct {
	DB *hltscl.PgConf `json:"db"`
}

func (conf *Conf) HasDB() bool {
	return conf != nil && conf.DB != nil
}

// StatusWriter exports job logs to an external storage
type StatusWriter interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Write(rec results.JobLog)
}

type NullStatusWriter struct{}

func (n *NullStatusWriter) Start(ctx context.Context) {}

func (n *NullStatusWriter) Stop(ctx context.Context) error {
	return nil
}

func (n *NullStatusWriter) Write(rec results.JobLog) {}
