// Package sigtransport adapts the interactor boundary (pkg/interactor) onto
// an HTTP client talking to a remote process — a companion app, a hardware
// wallet bridge, a desktop helper — over JSON, validating every response
// against a JSON Schema before it is trusted, the way a policy firewall
// validates tool-call parameters before dispatch.
package sigtransport

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "signed": {
      "type": "object",
      "properties": {
        "signatures": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "intent_hash": { "type": "string" },
              "entity": { "type": "string" },
              "factor_source_id": { "type": "string" },
              "derivation_path": { "type": "string" },
              "signature_hex": { "type": "string" }
            },
            "required": ["intent_hash", "entity", "factor_source_id", "derivation_path", "signature_hex"]
          }
        }
      },
      "required": ["signatures"]
    },
    "skipped": {
      "type": "object",
      "properties": {
        "factor_source_ids": {
          "type": "array",
          "items": { "type": "string" }
        }
      },
      "required": ["factor_source_ids"]
    }
  },
  "minProperties": 1,
  "maxProperties": 1
}`

func compileResponseSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://sigcollector.local/sigtransport/response.schema.json"
	if err := c.AddResource(url, strings.NewReader(responseSchemaJSON)); err != nil {
		return nil, fmt.Errorf("sigtransport: loading response schema: %w", err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("sigtransport: compiling response schema: %w", err)
	}
	return schema, nil
}
