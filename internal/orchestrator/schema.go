package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxRequestBytes bounds a JSON RunRequest decode, mirroring the result
// store's own bounded-decode discipline.
const maxRequestBytes = 1 << 20

const runRequestSchemaJSON = `{
  "type": "object",
  "required": ["repo_url", "team_name", "leader_name"],
  "properties": {
    "repo_url": {"type": "string", "minLength": 1},
    "team_name": {"type": "string", "minLength": 1},
    "leader_name": {"type": "string", "minLength": 1},
    "push_token": {"type": "string"},
    "push": {"type": "boolean"},
    "create_pr": {"type": "boolean"},
    "auto_merge_on_ci": {"type": "boolean"},
    "generate_tests": {"type": "boolean"}
  }
}`

var (
	requestSchemaOnce sync.Once
	requestSchema     *jsonschema.Schema
	requestSchemaErr  error
)

func compiledRunRequestSchema() (*jsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("run-request.json", strings.NewReader(runRequestSchemaJSON)); err != nil {
			requestSchemaErr = fmt.Errorf("add run request schema: %w", err)
			return
		}
		requestSchema, requestSchemaErr = c.Compile("run-request.json")
	})
	return requestSchema, requestSchemaErr
}

// LoadRunRequestJSON decodes and schema-validates a RunRequest submitted
// as JSON (§6: "from the enclosing service"), the programmatic
// alternative to assembling one from CLI flags.
func LoadRunRequestJSON(r io.Reader) (RunRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRequestBytes))
	if err != nil {
		return RunRequest{}, fmt.Errorf("read run request: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return RunRequest{}, fmt.Errorf("decode run request: %w", err)
	}
	schema, err := compiledRunRequestSchema()
	if err != nil {
		return RunRequest{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return RunRequest{}, fmt.Errorf("run request failed schema validation: %w", err)
	}

	var req RunRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return RunRequest{}, fmt.Errorf("unmarshal run request: %w", err)
	}
	return req, nil
}
