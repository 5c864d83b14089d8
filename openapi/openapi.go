// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of COLLASSOC.
//
//  COLLASSOC is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COLLASSOC is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COLLASSOC.  If not, see <https://www.gnu.org/licenses/>.

package openapi

import (
	"net/http"
)

const (
	openAPIVersion = "3.1.0"
	jsonContent    = "application/json"
)

func schemaRef(name string) string {
	return "#/components/schemas/" + name
}

func jsonResponse(desc, schema string) MethodResponse {
	return MethodResponse{
		Description: desc,
		Content: map[string]MethodResponseContent{
			jsonContent: {Schema: MethodResponseSchema{Ref: schemaRef(schema)}},
		},
	}
}

func errorResponse(desc string) MethodResponse {
	return jsonResponse(desc, "Error")
}

func scoringBody(withFishersOpts bool) *RequestBody {
	schema := "ScoringArgs"
	if withFishersOpts {
		schema = "FishersArgs"
	}
	return &RequestBody{
		Required: true,
		Content: map[string]MethodResponseContent{
			jsonContent: {Schema: MethodResponseSchema{Ref: schemaRef(schema)}},
		},
	}
}

func scoringResponses(resultSchema string) MethodResponses {
	return MethodResponses{
		http.StatusOK:                  jsonResponse("computed result", resultSchema),
		http.StatusBadRequest:          errorResponse("invalid axes or other invalid input"),
		http.StatusUnprocessableEntity: errorResponse("malformed matrix"),
		http.StatusGatewayTimeout:      errorResponse("no worker answered in time"),
		http.StatusInternalServerError: errorResponse("processing failed"),
	}
}

func tableSchema(desc string) ObjectProperty {
	return ObjectProperty{Ref: schemaRef("Table"), Description: desc}
}

func createSchemas() ObjectProperties {
	axis := func(dflt int, desc string) ObjectProperty {
		return ObjectProperty{Type: "integer", Enum: []any{0, 1}, Default: dflt, Description: desc}
	}
	scoringArgs := ObjectProperties{
		"matrix":      tableSchema("co-occurrence counts"),
		"sampleAxis":  axis(0, "axis holding samples (0 = rows, 1 = columns)"),
		"featureAxis": axis(1, "axis holding features (0 = rows, 1 = columns)"),
	}
	fishersArgs := make(ObjectProperties)
	for k, v := range scoringArgs {
		fishersArgs[k] = v
	}
	fishersArgs["logTransform"] = ObjectProperty{
		Type: "boolean", Default: true, Description: "output log10 transformed p-values"}
	fishersArgs["signed"] = ObjectProperty{
		Type: "boolean", Default: true, Description: "mark negative associations by sign"}

	summary := ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"numCells":  {Type: "integer"},
			"numFinite": {Type: "integer"},
			"numNaN":    {Type: "integer"},
			"numPosInf": {Type: "integer"},
			"numNegInf": {Type: "integer"},
			"min":       {Type: "number"},
			"max":       {Type: "number"},
			"mean":      {Type: "number"},
			"median":    {Type: "number"},
		},
	}

	return ObjectProperties{
		"Table": {
			Type:        "object",
			Description: "labeled matrix; non-finite values are encoded as strings \"NaN\", \"+Inf\" and \"-Inf\"",
			Properties: ObjectProperties{
				"rows": {Type: "array", Items: &arrayItem{Type: "string"}},
				"cols": {Type: "array", Items: &arrayItem{Type: "string"}},
				"data": {Type: "array", Items: &arrayItem{Type: "array", Items: &arrayItem{}}},
			},
		},
		"ScoringArgs": {Type: "object", Properties: scoringArgs},
		"FishersArgs": {Type: "object", Properties: fishersArgs},
		"Fishers": {
			Type: "object",
			Properties: ObjectProperties{
				"scores":       tableSchema("association strengths"),
				"oddsRatios":   tableSchema("sample odds ratios"),
				"summary":      summary,
				"logTransform": {Type: "boolean"},
				"signed":       {Type: "boolean"},
				"resultType":   {Type: "string", Enum: []any{"fishers"}},
			},
		},
		"DeltaP": {
			Type: "object",
			Properties: ObjectProperties{
				"scores":     tableSchema("ΔP values"),
				"summary":    summary,
				"resultType": {Type: "string", Enum: []any{"deltaP"}},
			},
		},
		"Contingency": {
			Type: "object",
			Properties: ObjectProperties{
				"a":          tableSchema("co-occurrences of a sample and a feature"),
				"b":          tableSchema("the sample without the feature"),
				"c":          tableSchema("the feature without the sample"),
				"d":          tableSchema("neither the sample nor the feature"),
				"e":          tableSchema("expected co-occurrences under independence"),
				"total":      {Type: "number"},
				"resultType": {Type: "string", Enum: []any{"contingency"}},
			},
		},
		"Error": {
			Type: "object",
			Properties: ObjectProperties{
				"error": {Type: "string"},
			},
		},
	}
}

func NewResponse(ver, url string) *APIResponse {
	paths := make(map[string]Methods)

	paths["/fishers"] = Methods{
		Post: &Method{
			Description: "Calculates association strength of each (sample, feature) pair " +
				"using Fisher's exact test.",
			OperationID: "Fishers",
			RequestBody: scoringBody(true),
			Responses:   scoringResponses("Fishers"),
		},
	}

	paths["/delta-p"] = Methods{
		Post: &Method{
			Description: "Calculates directional association ΔP = a/(a+b) - c/(c+d) " +
				"of each (sample, feature) pair.",
			OperationID: "DeltaP",
			RequestBody: scoringBody(false),
			Responses:   scoringResponses("DeltaP"),
		},
	}

	paths["/contingency"] = Methods{
		Post: &Method{
			Description: "Returns per-cell 2x2 contingency tables and expected co-occurrences.",
			OperationID: "Contingency",
			RequestBody: scoringBody(false),
			Responses:   scoringResponses("Contingency"),
		},
	}

	paths["/monitoring/jobs"] = Methods{
		Get: &Method{
			Description: "Shows recently processed jobs of all the workers.",
			OperationID: "RecentJobs",
			Parameters: []Parameter{
				{
					Name:        "limit",
					In:          "query",
					Description: "max. number of returned jobs",
					Schema:      ParamSchema{Type: "integer"},
				},
			},
			Responses: MethodResponses{
				http.StatusOK: {
					Description: "recent jobs and their aggregated load",
					Content: map[string]MethodResponseContent{
						jsonContent: {Schema: MethodResponseSchema{Type: "object"}},
					},
				},
			},
		},
	}

	return &APIResponse{
		OpenAPI: openAPIVersion,
		Info: Info{
			Title:       "COLLASSOC",
			Description: "Association strength between samples and features of co-occurrence tables",
			Version:     ver,
		},
		Servers:    []Server{{URL: url}},
		Paths:      paths,
		Components: Components{Schemas: createSchemas()},
	}
}
