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

func schemaRef(name string) ObjectProperty {
	return ObjectProperty{Ref: "#/components/schemas/" + name}
}

func createSchemas() ObjectProperties {
	ans := make(ObjectProperties)
	ans["ConfirmedConstruction"] = ObjectProperty{
		Type:        "object",
		Description: "a confirmed construction covering tokens position..end (1-based, inclusive)",
		Properties: ObjectProperties{
			"idConstruction": {Type: "integer"},
			"name":           {Type: "string"},
			"type":           {Type: "string", Enum: []string{"mwe", "phrasal", "clausal", "sentential"}},
			"position":       {Type: "integer"},
			"end":            {Type: "integer"},
			"pattern":        {Type: "string"},
			"words":          {Type: "array", Items: &arrayItem{Type: "string"}},
			"activation":     {Type: "number"},
			"threshold":      {Type: "number"},
		},
	}
	ans["ParseResult"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"engine": {Type: "string", Enum: []string{"v4", "cln", "seqgraph"}},
			"result": {
				Type:        "object",
				Description: "v4 and cln provide confirmed constructions and a parse tree, cln adds per-token `columns`, seqgraph provides activation `steps`, `completed` patterns and a tree rebuilt from parse events",
				Properties: ObjectProperties{
					"confirmed": {Type: "array", Items: &arrayItem{Ref: "#/components/schemas/ConfirmedConstruction"}},
					"tree":      {Type: "object"},
				},
			},
			"confidence": {Type: "number"},
			"resultType": {Type: "string", Enum: []string{"parse"}},
			"error":      {Type: "string"},
		},
	}
	ans["AnnotateResult"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"sentenceId": {Type: "string"},
			"text": {
				Type:        "string",
				Description: "flat syntax rendering using the `+`, `#`, `.`, `^` and `{ }` markers",
			},
			"annotations": {Type: "array", Items: &arrayItem{Type: "object"}},
			"clauses":     {Type: "array", Items: &arrayItem{Type: "object"}},
			"resultType":  {Type: "string", Enum: []string{"annotate"}},
			"error":       {Type: "string"},
		},
	}
	ans["MultiResult"] = ObjectProperty{
		Type:        "object",
		Description: "returned when the request contains more than one sentence",
		Properties: ObjectProperties{
			"results": {Type: "array", Items: &arrayItem{Type: "object"}},
		},
	}
	ans["Error"] = ObjectProperty{
		Type:        "object",
		Description: "user errors (invalid input, unknown engine) produce status 400, other errors 500",
	}
	return ans
}
