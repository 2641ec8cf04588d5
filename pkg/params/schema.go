// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package params

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gitlab.com/tozd/go/errors"
)

// documentSchema accepts either a flat mapping of scalars or the same
// mapping nested under "parameters".
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "scalars": {
      "type": "object",
      "additionalProperties": { "type": ["string", "number", "boolean"] }
    }
  },
  "oneOf": [
    {
      "type": "object",
      "required": ["parameters"],
      "additionalProperties": false,
      "properties": { "parameters": { "$ref": "#/definitions/scalars" } }
    },
    {
      "allOf": [
        { "$ref": "#/definitions/scalars" },
        { "not": { "required": ["parameters"] } }
      ]
    }
  ]
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks a decoded YAML or JSON document against
// documentSchema and returns its flattened string values.
func validateDocument(doc any) (map[string]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.Errorf("validating parameters document: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, errors.Errorf("%w: %s", ErrUnsupportedFormat, strings.Join(msgs, "; "))
	}

	values, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.Errorf("%w: expected a mapping", ErrUnsupportedFormat)
	}
	if nested, ok := values["parameters"].(map[string]any); ok {
		values = nested
	}

	out := make(map[string]string, len(values))
	for name, v := range values {
		out[name] = scalarString(v)
	}
	return out, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
