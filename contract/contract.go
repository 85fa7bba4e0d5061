package contract

import (
	"fmt"
	"slices"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/filepolicy"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

// Definition is the declarative form of a route contract.
type Definition struct {
	Name   string `yaml:"name"`
	Method string `yaml:"method,omitempty"`
	Path   string `yaml:"path,omitempty"`
	// ParameterSchema is an object schema whose properties are the route's
	// parameters. Each property names its location with "source"; the
	// default is query. The object's "required" list marks required
	// parameters.
	ParameterSchema *schema.Schema `yaml:"parameter_schema,omitempty"`
	// RequestSchema describes the body.
	RequestSchema *schema.Schema `yaml:"request_schema,omitempty"`
	// BodyOptional accepts requests without a body.
	BodyOptional bool       `yaml:"body_optional,omitempty"`
	FileParams   FileParams `yaml:"file_params,omitempty"`
}

// FileParams lists file upload policies in declaration order. It decodes
// from a mapping of field name to policy or from a list of named policies.
type FileParams []filepolicy.FileSpec

// UnmarshalYAML accepts a mapping or a sequence.
func (f *FileParams) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []filepolicy.FileSpec
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = list
		return nil
	case yaml.MappingNode:
		out := make(FileParams, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var spec filepolicy.FileSpec
			if err := node.Content[i+1].Decode(&spec); err != nil {
				return fmt.Errorf("file_params.%s: %w", node.Content[i].Value, err)
			}
			spec.Name = node.Content[i].Value
			out = append(out, spec)
		}
		*f = out
		return nil
	default:
		return fmt.Errorf("file_params must be a mapping or a list")
	}
}

// ParameterSpec is one compiled parameter.
type ParameterSpec struct {
	Location report.Location
	// Name is the wire name. Header names match case-insensitively.
	Name       string
	Schema     *schema.Schema
	Required   bool
	Default    any
	HasDefault bool
}

// RouteContract is the compiled, immutable contract of one route.
type RouteContract struct {
	Name   string
	Method string
	Path   string
	// Params are ordered by declaration.
	Params       []ParameterSpec
	Body         *schema.Schema
	BodyRequired bool
	Files        []filepolicy.FileSpec

	pattern *pathPattern
}

// MatchPath matches path against the route's template and returns the
// captured path parameters.
func (rc *RouteContract) MatchPath(path string) (map[string]string, bool) {
	if rc.pattern == nil {
		return nil, false
	}
	return rc.pattern.match(path)
}

// ParamsAt returns the parameters bound from loc, in declaration order.
func (rc *RouteContract) ParamsAt(loc report.Location) []ParameterSpec {
	var out []ParameterSpec
	for _, p := range rc.Params {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// Param looks up a parameter by location and name.
func (rc *RouteContract) Param(loc report.Location, name string) (ParameterSpec, bool) {
	for _, p := range rc.Params {
		if p.Location != loc {
			continue
		}
		if p.Name == name || (loc == report.LocationHeader && strings.EqualFold(p.Name, name)) {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Compile compiles def against definitions.
func Compile(def Definition, definitions map[string]*schema.Schema, opts ...schema.Option) (*RouteContract, error) {
	c, err := schema.NewCompiler(definitions, opts...)
	if err != nil {
		return nil, err
	}
	return compileWith(c, def)
}

func compileWith(c *schema.Compiler, def Definition) (*RouteContract, error) {
	if def.Name == "" {
		return nil, &binderrors.ConfigError{Option: "name", Message: "route has no name"}
	}
	rc := &RouteContract{
		Name:   def.Name,
		Method: strings.ToUpper(def.Method),
		Path:   def.Path,
	}

	if def.Path != "" {
		p, err := compilePattern(def.Path)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", def.Name, &binderrors.SchemaError{
				Kind:    binderrors.InvalidSchema,
				Path:    "path",
				Message: err.Error(),
			})
		}
		rc.pattern = p
	}

	params, err := compileParams(c, def.ParameterSchema)
	if err != nil {
		return nil, fmt.Errorf("route %q: parameter_schema: %w", def.Name, err)
	}
	if rc.pattern != nil {
		for _, p := range params {
			if p.Location == report.LocationPath && !slices.Contains(rc.pattern.names, p.Name) {
				return nil, fmt.Errorf("route %q: %w", def.Name, &binderrors.SchemaError{
					Kind:    binderrors.InvalidSchema,
					Path:    "schema.properties." + p.Name,
					Message: fmt.Sprintf("path parameter is not captured by %q", def.Path),
				})
			}
		}
	}
	rc.Params = params

	body, err := c.Compile(def.RequestSchema)
	if err != nil {
		return nil, fmt.Errorf("route %q: request_schema: %w", def.Name, err)
	}
	rc.Body = body
	rc.BodyRequired = body != nil && !def.BodyOptional

	seen := make(map[string]bool, len(def.FileParams))
	for _, spec := range def.FileParams {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: file_params: %w", def.Name, &binderrors.SchemaError{
				Kind:    binderrors.InvalidSchema,
				Path:    "file_params." + spec.Name,
				Message: err.Error(),
			})
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("route %q: file_params: duplicate field %q", def.Name, spec.Name)
		}
		seen[spec.Name] = true
		rc.Files = append(rc.Files, spec)
	}
	return rc, nil
}

func compileParams(c *schema.Compiler, raw *schema.Schema) ([]ParameterSpec, error) {
	if raw == nil {
		return nil, nil
	}
	compiled, err := c.Compile(raw)
	if err != nil {
		return nil, err
	}

	required := make(map[string]bool, len(compiled.Required))
	for _, name := range compiled.Required {
		required[name] = true
	}

	// "source" and "default" are read from the raw property when present,
	// since a "$ref" property compiles to the referenced node.
	names := compiled.PropertyNames()
	params := make([]ParameterSpec, 0, len(names))
	for _, name := range names {
		prop := compiled.Properties[name]
		rawProp := raw.Properties[name]

		loc, err := location(rawProp, prop)
		if err != nil {
			return nil, &binderrors.SchemaError{
				Kind:    binderrors.InvalidSchema,
				Path:    "schema.properties." + name,
				Message: err.Error(),
			}
		}
		spec := ParameterSpec{
			Location: loc,
			Name:     name,
			Schema:   prop,
			// path segments always exist when the route matched
			Required: required[name] || loc == report.LocationPath,
		}
		switch {
		case rawProp != nil && rawProp.Ref == "" && rawProp.HasDefault():
			spec.Default, spec.HasDefault = schema.NormalizeValue(rawProp.Default), true
		case prop != nil && prop.HasDefault():
			spec.Default, spec.HasDefault = prop.Default, true
		}
		params = append(params, spec)
	}
	return params, nil
}

func location(raw, compiled *schema.Schema) (report.Location, error) {
	source := ""
	if raw != nil {
		source = raw.Source
	}
	if source == "" && compiled != nil {
		source = compiled.Source
	}
	switch report.Location(strings.ToLower(source)) {
	case "", report.LocationQuery:
		return report.LocationQuery, nil
	case report.LocationPath:
		return report.LocationPath, nil
	case report.LocationHeader, "headers":
		return report.LocationHeader, nil
	case report.LocationCookie, "cookies":
		return report.LocationCookie, nil
	}
	return "", fmt.Errorf("unknown parameter source %q", source)
}
