package resultstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// runResultSchemaJSON describes the RunResult shape of §6: the fields a
// consumer of the results directory (status command, CI dashboards) can
// rely on being present and correctly typed.
const runResultSchemaJSON = `{
  "type": "object",
  "required": ["repo_url", "team_name", "leader_name", "status", "score"],
  "properties": {
    "repo_url": {"type": "string"},
    "team_name": {"type": "string"},
    "leader_name": {"type": "string"},
    "branch_name": {"type": "string"},
    "status": {"type": "string"},
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "total_failures_detected": {"type": "integer", "minimum": 0},
    "total_fixes_applied": {"type": "integer", "minimum": 0}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func runResultSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("run-result.json", strings.NewReader(runResultSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add run result schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("run-result.json")
	})
	return compiledSchema, schemaErr
}

// validateAgainstSchema checks data (a marshaled RunResult) against
// runResultSchema before it is ever written to disk.
func validateAgainstSchema(data []byte) error {
	schema, err := runResultSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode for schema validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("run result failed schema validation: %w", err)
	}
	return nil
}
