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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cxparse/cln"
	"cxparse/grammar"
	"cxparse/parser"
	"cxparse/results"
	"cxparse/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catSentenceJSON = `[
	{"id": 1, "word": "O", "lemma": "o", "pos": "DET", "rel": "det", "parent": 2},
	{"id": 2, "word": "gato", "lemma": "gato", "pos": "NOUN", "rel": "nsubj", "parent": 3},
	{"id": 3, "word": "correu", "lemma": "correr", "pos": "VERB", "rel": "root", "parent": 0}
]`

const twoSentencesConllu = "1\tO\to\tDET\t_\t_\t2\tdet\t_\t_\n" +
	"2\tgato\tgato\tNOUN\t_\t_\t3\tnsubj\t_\t_\n" +
	"3\tcorreu\tcorrer\tVERB\t_\t_\t0\troot\t_\t_\n" +
	"\n" +
	"1\tEla\tela\tPRON\t_\t_\t2\tnsubj\t_\t_\n" +
	"2\tsaiu\tsair\tVERB\t_\t_\t0\troot\t_\t_\n"

type recordingLogger struct {
	records []results.JobLog
}

func (rl *recordingLogger) Log(rec results.JobLog) {
	rl.records = append(rl.records, rec)
}

func testEngine() *gin.Engine {
	return testEngineWithLogger(nil)
}

func testEngineWithLogger(jl jobLogger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := grammar.MustNew(
		"test",
		&grammar.Definition{
			ID: 1, Name: "NP", Type: grammar.TypePhrasal, Pattern: "{DET} {NOUN}",
			Priority: 60, Enabled: true,
		},
		&grammar.Definition{
			ID: 2, Name: "Clause", Type: grammar.TypeClausal, Pattern: "[NP] {VERB}",
			Priority: 30, Enabled: true,
		},
	)
	processor, err := worker.NewProcessor(g, parser.DefaultConf(), cln.DefaultConf())
	if err != nil {
		panic(err)
	}
	actions := NewActions(processor, nil, nil, jl)
	engine := gin.New()
	engine.POST("/parse", actions.Parse)
	engine.POST("/annotate", actions.Annotate)
	engine.GET("/grammar", actions.Grammar)
	engine.GET("/grammar/:name", actions.Construction)
	return engine
}

func doRequest(engine *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestParseV4(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse", catSentenceJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Engine string `json:"engine"`
		Result struct {
			Confirmed []struct {
				Name string `json:"name"`
			} `json:"confirmed"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v4", resp.Engine)
	assert.Len(t, resp.Result.Confirmed, 2)
}

func TestParseCLN(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse?engine=cln", catSentenceJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"engine":"cln"`)
	assert.Contains(t, rec.Body.String(), `"columns"`)
}

func TestParseSeqGraph(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse?engine=seqgraph", catSentenceJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Engine string `json:"engine"`
		Result struct {
			Completed []struct {
				Pattern string `json:"pattern"`
			} `json:"completed"`
			Steps []json.RawMessage `json:"steps"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "seqgraph", resp.Engine)
	assert.NotEmpty(t, resp.Result.Completed)
	assert.NotEmpty(t, resp.Result.Steps)
}

func TestParseUnknownEngine(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse?engine=v5", catSentenceJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseEmptySentence(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse", "[]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTextWithoutTagger(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/parse?format=text", "O gato correu.")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnotateConllu(t *testing.T) {
	rec := doRequest(testEngine(), http.MethodPost, "/annotate?format=conllu", twoSentencesConllu)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []struct {
			Text string `json:"text"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "O gato+ correu.", resp.Results[0].Text)
	assert.Equal(t, "Ela saiu.", resp.Results[1].Text)
}

func TestGrammarConstruction(t *testing.T) {
	engine := testEngine()
	rec := doRequest(engine, http.MethodGet, "/grammar/NP", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Name      string   `json:"name"`
		Referrers []string `json:"referrers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NP", resp.Name)
	assert.Equal(t, []string{"Clause"}, resp.Referrers)

	rec = doRequest(engine, http.MethodGet, "/grammar/VP", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrammarExport(t *testing.T) {
	engine := testEngine()
	rec := doRequest(engine, http.MethodGet, "/grammar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"constructions"`)

	rec = doRequest(engine, http.MethodGet, "/grammar?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "constructions:")

	rec = doRequest(engine, http.MethodGet, "/grammar?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalJobsAreLogged(t *testing.T) {
	jl := new(recordingLogger)
	rec := doRequest(testEngineWithLogger(jl), http.MethodPost, "/annotate?format=conllu", twoSentencesConllu)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, jl.records, 2)
	assert.Equal(t, "api", jl.records[0].WorkerID)
	assert.Equal(t, "annotate", jl.records[0].Func)
	assert.Equal(t, 3, jl.records[0].NumTokens)
	assert.Equal(t, 2, jl.records[1].NumTokens)
	assert.NoError(t, jl.records[1].Err)
}
