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

// Package tagger is a client of an external UD tagging service
// exposing the UDPipe-compatible `/process` REST endpoint.
package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cxparse/merror"
	"cxparse/token"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/httpclient"
	"github.com/rs/zerolog/log"
)

const (
	dfltRequestTimeoutSecs  = 30
	dfltIdleConnTimeoutSecs = 60
)

type Conf struct {
	URL                string `json:"url"`
	Model              string `json:"model"`
	RequestTimeoutSecs int    `json:"requestTimeoutSecs"`
}

func (conf *Conf) IsConfigured() bool {
	return conf != nil && conf.URL != ""
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf == nil || conf.URL == "" {
		return nil
	}
	if _, err := url.Parse(conf.URL); err != nil {
		return fmt.Errorf("invalid `tagger.url`: %w", err)
	}
	if conf.RequestTimeoutSecs == 0 {
		conf.RequestTimeoutSecs = dfltRequestTimeoutSecs
		log.Warn().
			Int("value", conf.RequestTimeoutSecs).
			Msg("missing or zero `tagger.requestTimeoutSecs`, using default")
	}
	return nil
}

type processResponse struct {
	Model  string `json:"model"`
	Result string `json:"result"`
}

// Client sends raw text to the tagger and reads back
// sentences in the CoNLL-U format
type Client struct {
	conf   *Conf
	client *http.Client
}

// Tag tokenizes, tags and parses the text. An unusable
// tagger output produces merror.TaggingError.
func (c *Client) Tag(ctx context.Context, text string) ([]*token.Sentence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, merror.TaggingError{Kind: merror.EmptyParseResult, Msg: "empty text"}
	}
	form := url.Values{}
	form.Set("data", text)
	form.Set("tokenizer", "")
	form.Set("tagger", "")
	form.Set("parser", "")
	if c.conf.Model != "" {
		form.Set("model", c.conf.Model)
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, strings.TrimRight(c.conf.URL, "/")+"/process",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create tagger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tagger request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tagger response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tagger responded with status %d: %s", resp.StatusCode, string(body))
	}
	var pr processResponse
	if err := sonic.Unmarshal(body, &pr); err != nil {
		return nil, merror.NewMalformedToken("failed to decode tagger response: %s", err)
	}
	sents, err := token.ParseConllu(pr.Result)
	if err != nil {
		return nil, err
	}
	if len(sents) == 0 {
		return nil, merror.TaggingError{Kind: merror.EmptyParseResult, Msg: "tagger returned no sentences"}
	}
	log.Debug().
		Str("model", pr.Model).
		Int("sentences", len(sents)).
		Msg("text tagged")
	return sents, nil
}

func NewClient(conf *Conf) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = httpclient.TransportMaxIdleConns
	transport.MaxConnsPerHost = httpclient.TransportMaxConnsPerHost
	transport.MaxIdleConnsPerHost = httpclient.TransportMaxIdleConnsPerHost
	transport.IdleConnTimeout = time.Duration(dfltIdleConnTimeoutSecs) * time.Second
	return &Client{
		conf: conf,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Timeout:   time.Duration(conf.RequestTimeoutSecs) * time.Second,
			Transport: transport,
		},
	}
}
