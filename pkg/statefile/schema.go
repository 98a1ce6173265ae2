package statefile

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema describes the accepted shape of a state file. Unknown keys are
// allowed so that files written by newer builds still load.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "SessionState",
  "type": "object",
  "properties": {
    "Version":        { "type": ["integer", "null"] },
    "SessionId":      { "type": ["string", "null"] },
    "MessagesJson":   { "type": ["string", "null"] },
    "LastUpdatedUtc": { "type": ["string", "null"] }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// validateSchema checks data against Schema.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("state file does not match schema: %s", strings.Join(msgs, "; "))
	}

	return nil
}
