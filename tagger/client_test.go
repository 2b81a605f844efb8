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

package tagger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cxparse/merror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "portuguese-bosque", r.PostForm.Get("model"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestTagReadsConllu(t *testing.T) {
	body := `{"model": "portuguese-bosque", "result": "# sent_id = 1\n1\tO\to\tDET\t_\t_\t2\tdet\t_\t_\n2\tgato\tgato\tNOUN\t_\t_\t3\tnsubj\t_\t_\n3\tcorreu\tcorrer\tVERB\t_\t_\t0\troot\t_\t_\n\n"}`
	srv := testServer(t, http.StatusOK, body)
	defer srv.Close()
	conf := &Conf{URL: srv.URL, Model: "portuguese-bosque"}
	require.NoError(t, conf.ValidateAndDefaults())
	sents, err := NewClient(conf).Tag(context.Background(), "O gato correu")
	require.NoError(t, err)
	require.Len(t, sents, 1)
	assert.Equal(t, "O gato correu", sents[0].Text())
	assert.Equal(t, "1", sents[0].ID)
}

func TestTagEmptyResult(t *testing.T) {
	srv := testServer(t, http.StatusOK, `{"model": "portuguese-bosque", "result": ""}`)
	defer srv.Close()
	conf := &Conf{URL: srv.URL, Model: "portuguese-bosque", RequestTimeoutSecs: 5}
	_, err := NewClient(conf).Tag(context.Background(), "O gato correu")
	var tErr merror.TaggingError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, merror.EmptyParseResult, tErr.Kind)
}

func TestTagServerError(t *testing.T) {
	srv := testServer(t, http.StatusInternalServerError, "model not loaded")
	defer srv.Close()
	conf := &Conf{URL: srv.URL, Model: "portuguese-bosque", RequestTimeoutSecs: 5}
	_, err := NewClient(conf).Tag(context.Background(), "O gato correu")
	assert.Error(t, err)
	assert.False(t, merror.IsUserError(err))
}

func TestTagEmptyText(t *testing.T) {
	conf := &Conf{URL: "http://localhost:1", RequestTimeoutSecs: 1}
	_, err := NewClient(conf).Tag(context.Background(), "  ")
	assert.True(t, merror.IsUserError(err))
}
