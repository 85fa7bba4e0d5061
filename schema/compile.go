package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/internal/fieldpath"
)

// Compiler resolves and compiles schemas against one definitions table.
// Definitions are compiled at most once per Compiler and shared by every
// node that references them. A Compiler is not safe for concurrent use; the
// nodes it returns are.
type Compiler struct {
	cfg         *config
	definitions map[string]*Schema
	resolved    map[string]*Schema
	resolving   map[string]bool
	chain       []string
}

// NewCompiler returns a compiler for the given definitions.
func NewCompiler(definitions map[string]*Schema, opts ...Option) (*Compiler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	defs := make(map[string]*Schema, len(definitions))
	for name, def := range definitions {
		defs[name] = def
	}
	return &Compiler{
		cfg:         cfg,
		definitions: defs,
		resolved:    make(map[string]*Schema),
		resolving:   make(map[string]bool),
	}, nil
}

// Compile resolves and compiles raw using the given definitions.
// It is shorthand for NewCompiler followed by [Compiler.Compile].
func Compile(raw *Schema, definitions map[string]*Schema, opts ...Option) (*Schema, error) {
	c, err := NewCompiler(definitions, opts...)
	if err != nil {
		return nil, err
	}
	return c.Compile(raw)
}

// Compile returns the compiled form of raw. Definitions embedded in raw under
// "definitions" or "$defs" are added to the table unless a definition of the
// same name was supplied to NewCompiler. A nil raw schema compiles to nil.
func (c *Compiler) Compile(raw *Schema) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}
	c.absorb(raw.Definitions)
	c.absorb(raw.Defs)
	return c.compile(raw, fieldpath.New("schema"))
}

// CompileDefinition compiles the named definition, or returns its memoized
// compiled form.
func (c *Compiler) CompileDefinition(name string) (*Schema, error) {
	return c.resolve(name, "#/definitions/"+name, fieldpath.New("definitions", name))
}

func (c *Compiler) absorb(defs map[string]*Schema) {
	for name, def := range defs {
		if _, exists := c.definitions[name]; !exists {
			c.definitions[name] = def
		}
	}
}

// refName extracts a definition name from a reference. Accepted forms are
// "#/definitions/Name", "#/$defs/Name", "#/components/schemas/Name" and a
// bare "Name".
func refName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "#") {
		return ref, ref != "" && !strings.Contains(ref, "/")
	}
	for _, prefix := range []string{"#/definitions/", "#/$defs/", "#/components/schemas/"} {
		if name, ok := strings.CutPrefix(ref, prefix); ok && name != "" && !strings.Contains(name, "/") {
			// JSON Pointer escapes
			name = strings.ReplaceAll(name, "~1", "/")
			name = strings.ReplaceAll(name, "~0", "~")
			return name, true
		}
	}
	return "", false
}

func (c *Compiler) resolveRef(ref string, at fieldpath.Path) (*Schema, error) {
	name, ok := refName(ref)
	if !ok {
		return nil, &binderrors.SchemaError{
			Kind:    binderrors.UnresolvedReference,
			Path:    at.String(),
			Ref:     ref,
			Message: "unsupported reference form",
		}
	}
	return c.resolve(name, ref, at)
}

func (c *Compiler) resolve(name, ref string, at fieldpath.Path) (*Schema, error) {
	if s, ok := c.resolved[name]; ok {
		return s, nil
	}
	if c.resolving[name] {
		start := slices.Index(c.chain, name)
		chain := append(slices.Clone(c.chain[start:]), name)
		return nil, &binderrors.SchemaError{
			Kind:  binderrors.CyclicReference,
			Path:  at.String(),
			Ref:   ref,
			Chain: chain,
		}
	}
	def, ok := c.definitions[name]
	if !ok || def == nil {
		return nil, &binderrors.SchemaError{
			Kind: binderrors.UnresolvedReference,
			Path: at.String(),
			Ref:  ref,
		}
	}

	c.resolving[name] = true
	c.chain = append(c.chain, name)
	c.cfg.logger.Debug("resolving reference", "ref", ref, "depth", len(c.chain))

	compiled, err := c.compile(def, fieldpath.New("definitions", name))

	c.chain = c.chain[:len(c.chain)-1]
	delete(c.resolving, name)
	if err != nil {
		return nil, err
	}
	c.resolved[name] = compiled
	return compiled, nil
}

func invalid(at fieldpath.Path, format string, args ...any) error {
	return &binderrors.SchemaError{
		Kind:    binderrors.InvalidSchema,
		Path:    at.String(),
		Message: fmt.Sprintf(format, args...),
	}
}

// compile builds a new node from raw. Keywords next to "$ref" are ignored.
func (c *Compiler) compile(raw *Schema, at fieldpath.Path) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}
	if raw.Ref != "" {
		return c.resolveRef(raw.Ref, at)
	}

	out := *raw
	out.Definitions = nil
	out.Defs = nil

	types, err := parseTypes(raw.Type)
	if err != nil {
		return nil, invalid(at.Child("type"), "%v", err)
	}
	for _, t := range types {
		if !validTypeName(t) {
			return nil, invalid(at.Child("type"), "unknown type %q", t)
		}
	}
	if raw.Nullable && len(types) > 0 && !slices.Contains(types, TypeNull) {
		types = append(types, TypeNull)
	}
	out.types = types

	if err := checkCounts(raw, at); err != nil {
		return nil, err
	}
	if raw.MultipleOf != nil && *raw.MultipleOf <= 0 {
		return nil, invalid(at.Child("multipleOf"), "must be greater than 0")
	}

	if raw.Pattern != "" {
		re, err := regexp.Compile("^(?:" + raw.Pattern + ")$")
		if err != nil {
			return nil, &binderrors.SchemaError{
				Kind:    binderrors.InvalidSchema,
				Path:    at.Child("pattern").String(),
				Message: "invalid pattern",
				Cause:   err,
			}
		}
		out.pattern = re
	}

	if raw.Format != "" && !c.cfg.formats.Known(raw.Format) {
		return nil, &binderrors.SchemaError{
			Kind:    binderrors.UnknownFormat,
			Path:    at.Child("format").String(),
			Message: fmt.Sprintf("format %q is not registered", raw.Format),
		}
	}

	if out.uuidVersion, err = parseUUIDVersion(raw.UUIDVersion); err != nil {
		return nil, invalid(at.Child("uuidVersion"), "%v", err)
	}

	if err := normalizeBounds(&out, at); err != nil {
		return nil, err
	}

	if len(raw.DependentRequired) > 0 {
		deps := make(map[string][]string, len(raw.Dependencies)+len(raw.DependentRequired))
		for k, v := range raw.Dependencies {
			deps[k] = slices.Clone(v)
		}
		for k, v := range raw.DependentRequired {
			deps[k] = append(deps[k], v...)
		}
		out.Dependencies = deps
		out.DependentRequired = nil
	}

	out.Default = normalizeValue(raw.Default)
	out.Const = normalizeValue(raw.Const)
	if raw.Enum != nil {
		out.Enum = make([]any, len(raw.Enum))
		for i, v := range raw.Enum {
			out.Enum[i] = normalizeValue(v)
		}
	}

	if err := c.compileChildren(raw, &out, at); err != nil {
		return nil, err
	}

	out.compiled = true
	return &out, nil
}

func (c *Compiler) compileChildren(raw, out *Schema, at fieldpath.Path) error {
	var err error
	if out.Items, err = c.compile(raw.Items, at.Child("items")); err != nil {
		return err
	}
	if out.Not, err = c.compile(raw.Not, at.Child("not")); err != nil {
		return err
	}

	if raw.Properties != nil {
		names := raw.PropertyNames()
		out.Properties = make(map[string]*Schema, len(names))
		out.propertyOrder = names
		for _, name := range names {
			prop, err := c.compile(raw.Properties[name], at.Child("properties").Child(name))
			if err != nil {
				return err
			}
			out.Properties[name] = prop
		}
	}

	if raw.AdditionalProperties != nil && raw.AdditionalProperties.Schema != nil {
		extra, err := c.compile(raw.AdditionalProperties.Schema, at.Child("additionalProperties"))
		if err != nil {
			return err
		}
		out.AdditionalProperties = &AdditionalProperties{Allowed: true, Schema: extra}
	}

	for _, group := range []struct {
		keyword string
		src     []*Schema
		dst     *[]*Schema
	}{
		{"allOf", raw.AllOf, &out.AllOf},
		{"anyOf", raw.AnyOf, &out.AnyOf},
		{"oneOf", raw.OneOf, &out.OneOf},
	} {
		if group.src == nil {
			continue
		}
		compiled := make([]*Schema, len(group.src))
		for i, sub := range group.src {
			if compiled[i], err = c.compile(sub, at.Child(group.keyword).Index(i)); err != nil {
				return err
			}
		}
		*group.dst = compiled
	}
	return nil
}

func checkCounts(s *Schema, at fieldpath.Path) error {
	for _, kw := range []struct {
		name string
		v    *int
	}{
		{"minLength", s.MinLength},
		{"maxLength", s.MaxLength},
		{"minItems", s.MinItems},
		{"maxItems", s.MaxItems},
		{"minProperties", s.MinProperties},
		{"maxProperties", s.MaxProperties},
	} {
		if kw.v != nil && *kw.v < 0 {
			return invalid(at.Child(kw.name), "must not be negative")
		}
	}
	return nil
}

// normalizeBounds folds the boolean form of exclusiveMinimum/exclusiveMaximum
// into numeric strict bounds, leaving Minimum/Maximum inclusive only.
func normalizeBounds(out *Schema, at fieldpath.Path) error {
	fold := func(keyword string, excl *any, inclusive **float64) error {
		switch v := (*excl).(type) {
		case nil:
			return nil
		case bool:
			if !v {
				*excl = nil
				return nil
			}
			if *inclusive == nil {
				return invalid(at.Child(keyword), "boolean form requires the matching inclusive bound")
			}
			*excl = **inclusive
			*inclusive = nil
			return nil
		default:
			f, ok := toFloat(v)
			if !ok {
				return invalid(at.Child(keyword), "must be a number or a boolean, got %T", v)
			}
			*excl = f
			return nil
		}
	}
	if err := fold("exclusiveMinimum", &out.ExclusiveMinimum, &out.Minimum); err != nil {
		return err
	}
	return fold("exclusiveMaximum", &out.ExclusiveMaximum, &out.Maximum)
}

func parseUUIDVersion(raw any) (int, error) {
	var v int
	switch t := raw.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("uuidVersion %q is not a number", t)
		}
		v = n
	default:
		f, ok := toFloat(t)
		if !ok || f != float64(int(f)) {
			return 0, fmt.Errorf("uuidVersion must be an integer, got %v", raw)
		}
		v = int(f)
	}
	if v < 1 || v > 8 {
		return 0, fmt.Errorf("uuidVersion %d is out of range 1-8", v)
	}
	return v, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

// normalizeValue converts literal values decoded from a document into the
// shapes bound values use: int64, float64, string, bool, nil, []any and
// map[string]any.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// NormalizeValue exposes the literal normalization applied to defaults,
// enums and consts during compilation.
func NormalizeValue(v any) any {
	return normalizeValue(v)
}
