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

package openapi

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

func findHTTPProtocol(req *http.Request) string {
	if prot := req.Header.Get("x-forwarded-proto"); prot != "" {
		return prot
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

func findHTTPServer(req *http.Request) string {
	if serv := req.Header.Get("x-forwarded-host"); serv != "" {
		return serv
	}
	return req.Host
}

func findPath(req *http.Request) string {
	if path := req.Header.Get("x-original-path"); path != "" {
		return path
	}
	return req.URL.Path
}

// findCurrentPublicURL returns the longest configured public URL
// the current request URL starts with. With no public URLs
// configured, the request's own server is used.
func findCurrentPublicURL(publicURLs []string, req *http.Request) (string, error) {
	proto := findHTTPProtocol(req)
	host := findHTTPServer(req)
	server := fmt.Sprintf("%s://%s", proto, host)
	if len(publicURLs) == 0 {
		return server, nil
	}
	curr, err := url.JoinPath(server, findPath(req))
	if err != nil {
		return "", fmt.Errorf("cannot find current public url: %w", err)
	}
	sorted := slices.Clone(publicURLs)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	for _, addr := range sorted {
		if strings.HasPrefix(curr, addr) {
			return addr, nil
		}
	}
	return "", nil
}

func MkHandleRequest(publicURLs []string, ver string) func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		publicURL, err := findCurrentPublicURL(publicURLs, ctx.Request)
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
			return
		}
		uniresp.WriteJSONResponse(ctx.Writer, NewResponse(ver, publicURL))
	}
}
