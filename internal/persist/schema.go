package persist

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskFileSchemaURL = "todo://schema/tasks.json"

// taskFileSchema accepts the canonical array form, null, and the wrapped
// {"tasks": [...]} form. Every listed field may be missing or null; present
// values must have the right JSON type. Extra fields are allowed.
const taskFileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "task": {
      "type": "object",
      "properties": {
        "id":          {"type": ["string", "null"]},
        "title":       {"type": ["string", "null"]},
        "tags":        {"type": ["string", "null"]},
        "dueDate":     {"type": ["string", "null"]},
        "isCompleted": {"type": ["boolean", "null"]}
      }
    },
    "taskList": {
      "type": "array",
      "items": {"$ref": "#/$defs/task"}
    }
  },
  "type": ["array", "object", "null"],
  "items": {"$ref": "#/$defs/task"},
  "properties": {
    "tasks": {"anyOf": [{"$ref": "#/$defs/taskList"}, {"type": "null"}]}
  }
}`

var schema = jsonschema.MustCompileString(taskFileSchemaURL, taskFileSchema)

// validateDocument checks a decoded JSON document against the task file
// schema and flattens schema failures into a single readable error.
func validateDocument(doc any) error {
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	return fmt.Errorf("schema mismatch: %s", strings.Join(msgs, "; "))
}

func collectSchemaErrors(err *jsonschema.ValidationError, msgs *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, msgs)
	}
}
