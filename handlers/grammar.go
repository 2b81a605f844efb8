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

package handlers

import (
	"fmt"
	"net/http"

	"cxparse/grammar"
	"cxparse/merror"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

func unknownEngineError(engine string) error {
	return merror.InputError{Msg: fmt.Sprintf("unknown engine `%s`", engine)}
}

// Grammar exports the loaded grammar (`format=json|yaml`)
func (a *Actions) Grammar(ctx *gin.Context) {
	g := a.processor.Grammar()
	switch grammar.Format(ctx.DefaultQuery("format", string(grammar.FormatJSON))) {
	case grammar.FormatJSON:
		data, err := g.ExportJSON()
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
			return
		}
		uniresp.WriteRawJSONResponse(ctx.Writer, data)
	case grammar.FormatYAML:
		data, err := g.ExportYAML()
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
			return
		}
		ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", data)
	default:
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("unsupported format `%s`", ctx.Query("format")), http.StatusBadRequest)
	}
}

type constructionResponse struct {
	*grammar.Definition
	Referrers []string `json:"referrers"`
}

// Construction returns a single construction definition
func (a *Actions) Construction(ctx *gin.Context) {
	g := a.processor.Grammar()
	def, ok := g.Get(ctx.Param("name"))
	if !ok {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("construction `%s` not found", ctx.Param("name")), http.StatusNotFound)
		return
	}
	ans := constructionResponse{Definition: def, Referrers: []string{}}
	for _, ref := range g.Referrers(def.Name) {
		ans.Referrers = append(ans.Referrers, ref.Name)
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}
