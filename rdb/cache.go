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

package rdb

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

func (a *Adapter) cacheFilePath(query Query) string {
	hashKey := sha1.Sum(append([]byte(query.Func+"#"), query.Args...))
	return filepath.Join(a.cachePath, query.Func+hex.EncodeToString(hashKey[:]))
}

func (a *Adapter) readCached(path string) (*WorkerResult, bool) {
	if isf, _ := fs.IsFile(path); !isf {
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read cache file")
		return nil, false
	}
	result := new(WorkerResult)
	if err := sonic.Unmarshal(content, result); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to decode cache file")
		return nil, false
	}
	return result, true
}

func (a *Adapter) writeCached(path string, result *WorkerResult) {
	data, err := sonic.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to encode cached result")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to write cache file")
	}
}

// CacheResult wraps a query publishing function so identical
// queries (same function and arguments) are answered from a file
// cache. Only results without errors are cached.
func (a *Adapter) CacheResult(fn func(Query) (<-chan *WorkerResult, error), query Query) (<-chan *WorkerResult, error) {
	if len(a.cachePath) == 0 {
		return fn(query)
	}
	path := a.cacheFilePath(query)
	if cached, ok := a.readCached(path); ok {
		ans := make(chan *WorkerResult, 1)
		ans <- cached
		close(ans)
		return ans, nil
	}
	wr, err := fn(query)
	if err != nil {
		return nil, err
	}
	ans := make(chan *WorkerResult)
	go func() {
		defer close(ans)
		rawResult, ok := <-wr
		if !ok {
			return
		}
		if rawResult.Error == "" {
			a.writeCached(path, rawResult)
		}
		ans <- rawResult
	}()
	return ans, nil
}
