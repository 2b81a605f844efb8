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

package grammar

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cxparse/merror"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension,
// JSON is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// File is the import/export representation of a grammar
type File struct {
	Name          string        `json:"name" yaml:"name"`
	Language      string        `json:"language,omitempty" yaml:"language,omitempty"`
	Constructions []*Definition `json:"constructions" yaml:"constructions"`
}

// Decode reads a grammar file. For JSON, a plain array of
// definitions is accepted too.
func Decode(data []byte, format Format) (*Grammar, error) {
	var file File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, merror.NewGrammarError("", "failed to decode YAML grammar: %s", err)
		}
	case FormatJSON:
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '[' {
			if err := sonic.Unmarshal(data, &file.Constructions); err != nil {
				return nil, merror.NewGrammarError("", "failed to decode JSON grammar: %s", err)
			}

		} else if err := sonic.Unmarshal(data, &file); err != nil {
			return nil, merror.NewGrammarError("", "failed to decode JSON grammar: %s", err)
		}
	default:
		return nil, fmt.Errorf("unsupported grammar format `%s`", format)
	}
	if len(file.Constructions) == 0 {
		return nil, merror.NewGrammarError("", "grammar contains no constructions")
	}
	g, err := New(file.Name, file.Constructions)
	if err != nil {
		return nil, err
	}
	g.Language = file.Language
	return g, nil
}

// LoadFile loads a JSON or YAML grammar file
func LoadFile(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar: %w", err)
	}
	g, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar %s: %w", path, err)
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	log.Info().
		Str("path", path).
		Str("grammar", g.Name).
		Int("constructions", g.Len()).
		Int("enabled", len(g.Enabled())).
		Msg("loaded grammar")
	return g, nil
}

func (g *Grammar) File() File {
	return File{
		Name:          g.Name,
		Language:      g.Language,
		Constructions: g.defs,
	}
}

// ExportJSON writes the grammar including compiled patterns.
// Decoding the result produces identical definitions.
func (g *Grammar) ExportJSON() ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(g.File(), "", "  ")
}

func (g *Grammar) ExportYAML() ([]byte, error) {
	return yaml.Marshal(g.File())
}
