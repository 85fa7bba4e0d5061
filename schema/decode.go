package schema

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"go.yaml.in/yaml/v4"
)

// Decode parses a raw schema from YAML or JSON.
func Decode(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	return &s, nil
}

// DecodeDefinitions parses a name to schema mapping from YAML or JSON.
func DecodeDefinitions(data []byte) (map[string]*Schema, error) {
	var defs map[string]*Schema
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("schema: decode definitions: %w", err)
	}
	return defs, nil
}

// FromType reflects the Go type of v into a raw schema. Nested types are
// inlined, so the result holds no references. Struct fields are required
// unless tagged omitempty, and extra properties are rejected unless
// allowAdditional is set.
func FromType(v any, allowAdditional bool) (*Schema, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: allowAdditional,
	}
	reflected := r.Reflect(v)
	if reflected == nil {
		return nil, fmt.Errorf("schema: cannot reflect %T", v)
	}
	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("schema: encode reflected %T: %w", v, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.SchemaURI = ""
	return s, nil
}
