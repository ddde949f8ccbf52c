package azureread

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const pollSchemaJSON = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string", "enum": ["notStarted", "running", "succeeded", "failed"]},
    "analyzeResult": {
      "type": "object",
      "properties": {
        "readResults": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "lines": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["text"],
                  "properties": {"text": {"type": "string"}}
                }
              }
            }
          }
        }
      }
    }
  }
}`

func compilePollSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("read_operation.json", strings.NewReader(pollSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("read_operation.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// decodePoll validates the poll body against the contract before decoding it.
func decodePoll(schema *jsonschema.Schema, body []byte) (*readOperation, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("unmarshal poll body: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("poll body does not match contract: %w", err)
	}
	var op readOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("decode poll body: %w", err)
	}
	return &op, nil
}
