package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.schema.json
var scenarioSchemaJSON string

const scenarioSchemaURL = "https://gridcleaner.local/scenario.schema.json"

var (
	scenarioSchema     *jsonschema.Schema
	scenarioSchemaErr  error
	scenarioSchemaOnce sync.Once
)

func compiledSchema() (*jsonschema.Schema, error) {
	scenarioSchemaOnce.Do(func() {
		scenarioSchema, scenarioSchemaErr = jsonschema.CompileString(scenarioSchemaURL, scenarioSchemaJSON)
	})
	return scenarioSchema, scenarioSchemaErr
}

// ValidateDocument checks a raw JSON scenario document against the embedded schema
func ValidateDocument(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return nil
}

// yamlToJSON converts a YAML document to JSON so both formats share one decode path
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return out, nil
}
