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
	"encoding/json"

	"cxparse/merror"
	"cxparse/rdb"
	"cxparse/results"

	"github.com/bytedance/sonic"
)

func (w *Worker) parse(rawArgs json.RawMessage) *results.ParseResult {
	var args rdb.ParseArgs
	if err := sonic.Unmarshal(rawArgs, &args); err != nil {
		return &results.ParseResult{
			Engine: args.Engine,
			Error:  merror.InputError{Msg: "invalid parse arguments: " + err.Error()},
		}
	}
	w.noteSentence(args.Sentence)
	return w.processor.Parse(args.Engine, args.Sentence)
}

func (w *Worker) annotate(rawArgs json.RawMessage) *results.AnnotateResult {
	var args rdb.AnnotateArgs
	if err := sonic.Unmarshal(rawArgs, &args); err != nil {
		return &results.AnnotateResult{
			Error: merror.InputError{Msg: "invalid annotate arguments: " + err.Error()},
		}
	}
	w.noteSentence(args.Sentence)
	return w.processor.Annotate(args.Sentence)
}
