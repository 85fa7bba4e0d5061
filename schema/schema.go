package schema

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"go.yaml.in/yaml/v4"
)

// Type names accepted by the "type" keyword.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// Schema is one node of a schema tree.
//
// Exported fields mirror the keywords as written. A compiled node (see
// [Compiler.Compile]) also carries normalized state read through methods:
// [Schema.Types], [Schema.Regexp], [Schema.ExclusiveMin] and friends.
type Schema struct {
	Ref       string `yaml:"$ref,omitempty"`
	SchemaURI string `yaml:"$schema,omitempty"`

	// Metadata
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`

	// Type validation
	Type     any   `yaml:"type,omitempty"` // string or list of strings
	Enum     []any `yaml:"enum,omitempty"`
	Const    any   `yaml:"const,omitempty"`
	Nullable bool  `yaml:"nullable,omitempty"`

	// Numeric validation
	MultipleOf       *float64 `yaml:"multipleOf,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty"`
	ExclusiveMaximum any      `yaml:"exclusiveMaximum,omitempty"` // number, or bool modifier of maximum
	Minimum          *float64 `yaml:"minimum,omitempty"`
	ExclusiveMinimum any      `yaml:"exclusiveMinimum,omitempty"` // number, or bool modifier of minimum

	// String validation
	MaxLength   *int   `yaml:"maxLength,omitempty"`
	MinLength   *int   `yaml:"minLength,omitempty"`
	Pattern     string `yaml:"pattern,omitempty"`
	Format      string `yaml:"format,omitempty"`
	UUIDVersion any    `yaml:"uuidVersion,omitempty"` // "4" or 4

	// Array validation
	Items       *Schema `yaml:"items,omitempty"`
	MaxItems    *int    `yaml:"maxItems,omitempty"`
	MinItems    *int    `yaml:"minItems,omitempty"`
	UniqueItems bool    `yaml:"uniqueItems,omitempty"`
	Separator   string  `yaml:"separator,omitempty"`

	// Object validation
	Properties           map[string]*Schema    `yaml:"properties,omitempty"`
	AdditionalProperties *AdditionalProperties `yaml:"additionalProperties,omitempty"`
	Required             []string              `yaml:"required,omitempty"`
	MaxProperties        *int                  `yaml:"maxProperties,omitempty"`
	MinProperties        *int                  `yaml:"minProperties,omitempty"`
	Dependencies         map[string][]string   `yaml:"dependencies,omitempty"`
	DependentRequired    map[string][]string   `yaml:"dependentRequired,omitempty"`

	// Composition
	AllOf []*Schema `yaml:"allOf,omitempty"`
	AnyOf []*Schema `yaml:"anyOf,omitempty"`
	OneOf []*Schema `yaml:"oneOf,omitempty"`
	Not   *Schema   `yaml:"not,omitempty"`

	// Embedded definitions
	Definitions map[string]*Schema `yaml:"definitions,omitempty"`
	Defs        map[string]*Schema `yaml:"$defs,omitempty"`

	// Parameter extensions
	Source     string `yaml:"source,omitempty"`     // path, query, header or cookie
	Annotation string `yaml:"annotation,omitempty"` // informational

	propertyOrder []string
	hasDefault    bool
	hasConst      bool

	compiled    bool
	types       []string
	pattern     *regexp.Regexp
	uuidVersion int
}

// AdditionalProperties is the bool-or-schema value of "additionalProperties".
type AdditionalProperties struct {
	// Allowed is false only for "additionalProperties: false".
	Allowed bool
	// Schema constrains extra properties when set.
	Schema *Schema
}

// UnmarshalYAML accepts a boolean or a schema.
func (a *AdditionalProperties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("additionalProperties must be a boolean or a schema: %w", err)
		}
		a.Allowed = b
		return nil
	}
	var s Schema
	if err := node.Decode(&s); err != nil {
		return err
	}
	a.Allowed = true
	a.Schema = &s
	return nil
}

// UnmarshalYAML decodes a schema node, recording the declaration order of
// "properties" and whether "default" and "const" were present.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: schema must be a mapping", node.Line)
	}
	type alias Schema
	if err := node.Decode((*alias)(s)); err != nil {
		return err
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "default":
			s.hasDefault = true
		case "const":
			s.hasConst = true
		case "properties":
			props := node.Content[i+1]
			s.propertyOrder = make([]string, 0, len(props.Content)/2)
			for j := 0; j+1 < len(props.Content); j += 2 {
				s.propertyOrder = append(s.propertyOrder, props.Content[j].Value)
			}
		}
	}
	return nil
}

// HasDefault reports whether a default was declared, including "default: null".
func (s *Schema) HasDefault() bool {
	return s.hasDefault || s.Default != nil
}

// HasConst reports whether a const was declared, including "const: null".
func (s *Schema) HasConst() bool {
	return s.hasConst || s.Const != nil
}

// SetDefault sets the default and marks it present.
func (s *Schema) SetDefault(v any) {
	s.Default = v
	s.hasDefault = true
}

// SetConst sets the const and marks it present.
func (s *Schema) SetConst(v any) {
	s.Const = v
	s.hasConst = true
}

// SetProperty adds or replaces a property, appending new names to the
// declaration order.
func (s *Schema) SetProperty(name string, prop *Schema) {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	if _, exists := s.Properties[name]; !exists {
		s.propertyOrder = append(s.PropertyNames(), name)
	}
	s.Properties[name] = prop
}

// PropertyNames returns property names in declaration order. Properties
// without a recorded position follow in sorted order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.propertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	if len(names) == len(s.Properties) {
		return names
	}
	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// IsCompiled reports whether the node came out of a Compiler.
func (s *Schema) IsCompiled() bool {
	return s.compiled
}

// Types returns the declared type names. Nullable nodes include "null".
// On an uncompiled node the raw "type" value is interpreted on the fly.
func (s *Schema) Types() []string {
	if s.compiled {
		return s.types
	}
	types, _ := parseTypes(s.Type)
	if s.Nullable && len(types) > 0 && !slices.Contains(types, TypeNull) {
		types = append(types, TypeNull)
	}
	return types
}

// HasType reports whether t is one of the declared types.
func (s *Schema) HasType(t string) bool {
	return slices.Contains(s.Types(), t)
}

// AllowsNull reports whether null satisfies the node's type.
func (s *Schema) AllowsNull() bool {
	return s.HasType(TypeNull)
}

// PrimaryType returns the first declared non-null type, or "" when the node
// does not constrain the type.
func (s *Schema) PrimaryType() string {
	for _, t := range s.Types() {
		if t != TypeNull {
			return t
		}
	}
	return ""
}

// Regexp returns the anchored, compiled pattern, or nil.
func (s *Schema) Regexp() *regexp.Regexp {
	return s.pattern
}

// RequiredUUIDVersion returns the UUID version demanded by "uuidVersion",
// or 0 when any version is accepted.
func (s *Schema) RequiredUUIDVersion() int {
	return s.uuidVersion
}

// ExclusiveMin returns the strict lower bound of a compiled node.
func (s *Schema) ExclusiveMin() (float64, bool) {
	f, ok := s.ExclusiveMinimum.(float64)
	return f, ok && s.compiled
}

// ExclusiveMax returns the strict upper bound of a compiled node.
func (s *Schema) ExclusiveMax() (float64, bool) {
	f, ok := s.ExclusiveMaximum.(float64)
	return f, ok && s.compiled
}

// ExtraAllowed reports whether properties not named in Properties are accepted.
func (s *Schema) ExtraAllowed() bool {
	return s.AdditionalProperties == nil || s.AdditionalProperties.Allowed
}

// DependencyTriggers returns the keys of Dependencies in sorted order.
func (s *Schema) DependencyTriggers() []string {
	triggers := make([]string, 0, len(s.Dependencies))
	for k := range s.Dependencies {
		triggers = append(triggers, k)
	}
	sort.Strings(triggers)
	return triggers
}

func parseTypes(raw any) ([]string, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return slices.Clone(t), nil
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("type list entries must be strings, got %T", v)
			}
			types = append(types, name)
		}
		return types, nil
	default:
		return nil, fmt.Errorf("type must be a string or a list of strings, got %T", raw)
	}
}

func validTypeName(name string) bool {
	switch name {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeNull:
		return true
	}
	return false
}
