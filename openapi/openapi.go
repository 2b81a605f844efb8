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

const (
	contentJSON   = "application/json"
	contentConllu = "text/x-conllu"
	contentText   = "text/plain"
)

func jsonResponse(description string, schema ObjectProperty) MethodResponse {
	return MethodResponse{
		Description: description,
		Content: map[string]MethodResponseContent{
			contentJSON: {Schema: schema},
		},
	}
}

func errorResponses(ans MethodResponses) MethodResponses {
	ans["400"] = jsonResponse("invalid input", schemaRef("Error"))
	ans["500"] = jsonResponse("processing failed", schemaRef("Error"))
	return ans
}

func sentenceInputParams() []Parameter {
	return []Parameter{
		{
			Name: "format",
			In:   "query",
			Description: "Input format. `json` is a single sentence (an array of tokens or an object " +
				"with `id` and `tokens`), `conllu` may contain multiple sentences, `text` is sent " +
				"to a configured tagger first.",
			Required: false,
			Schema: ParamSchema{
				Type:    "string",
				Enum:    []string{"json", "conllu", "text"},
				Default: "json",
			},
		},
	}
}

func sentenceInputBody() *RequestBody {
	return &RequestBody{
		Description: "dependency-tagged sentence(s) or raw text",
		Required:    true,
		Content: map[string]struct{}{
			contentJSON:   {},
			contentConllu: {},
			contentText:   {},
		},
	}
}

// NewResponse creates an OpenAPI 3.1 description of the HTTP API
func NewResponse(ver, url string) *APIResponse {
	paths := make(map[string]Methods)

	paths["/parse"] = Methods{
		Post: &Method{
			Description: "Parses sentence(s) into confirmed constructions and a constructional parse tree.",
			OperationID: "Parse",
			Parameters: append(
				sentenceInputParams(),
				Parameter{
					Name:        "engine",
					In:          "query",
					Description: "Parsing engine. `v4` is the alternative matcher, `cln` the columnar predictive layer, `seqgraph` the unified sequence graph.",
					Required:    false,
					Schema: ParamSchema{
						Type:    "string",
						Enum:    []string{"v4", "cln", "seqgraph"},
						Default: "v4",
					},
				},
			),
			RequestBody: sentenceInputBody(),
			Responses: errorResponses(MethodResponses{
				"200": jsonResponse("parse result", schemaRef("ParseResult")),
			}),
		},
	}

	paths["/annotate"] = Methods{
		Post: &Method{
			Description: "Creates a flat syntax annotation of sentence(s) (phrase, clause and sentence boundaries, MWE joins).",
			OperationID: "Annotate",
			Parameters:  sentenceInputParams(),
			RequestBody: sentenceInputBody(),
			Responses: errorResponses(MethodResponses{
				"200": jsonResponse("annotation result", schemaRef("AnnotateResult")),
			}),
		},
	}

	paths["/grammar"] = Methods{
		Get: &Method{
			Description: "Exports the loaded grammar.",
			OperationID: "Grammar",
			Parameters: []Parameter{
				{
					Name:        "format",
					In:          "query",
					Description: "Export format",
					Required:    false,
					Schema: ParamSchema{
						Type:    "string",
						Enum:    []string{"json", "yaml"},
						Default: "json",
					},
				},
			},
			Responses: MethodResponses{
				"200": {Description: "grammar file"},
				"400": jsonResponse("unknown format", schemaRef("Error")),
			},
		},
	}

	paths["/grammar/{name}"] = Methods{
		Get: &Method{
			Description: "Shows a construction definition along with constructions referring to it.",
			OperationID: "Construction",
			Parameters: []Parameter{
				{
					Name:        "name",
					In:          "path",
					Description: "construction name",
					Required:    true,
					Schema: ParamSchema{
						Type: "string",
					},
				},
			},
			Responses: MethodResponses{
				"200": {Description: "construction definition"},
				"404": jsonResponse("construction not found", schemaRef("Error")),
			},
		},
	}

	return &APIResponse{
		OpenAPI: "3.1.0",
		Info: Info{
			Title:       "CXPARSE - incremental constructional parser",
			Description: "Identifies lexical, phrasal and clausal constructions in dependency-tagged sentences",
			Version:     ver,
		},
		Servers: []Server{
			{URL: url},
		},
		Paths:      paths,
		Components: Components{Schemas: createSchemas()},
	}
}
