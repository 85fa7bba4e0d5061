package contract

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/reqbind/schema"
)

// Document is the on-disk form of a contract set.
type Document struct {
	Definitions map[string]*schema.Schema `yaml:"definitions,omitempty"`
	Routes      []Definition              `yaml:"routes"`
}

// Set is a compiled collection of route contracts.
type Set struct {
	routes      []*RouteContract
	byName      map[string]*RouteContract
	byPrecision []*RouteContract
}

// NewSet compiles every route of doc. Definitions are resolved once and
// shared between routes. The first failing route aborts compilation.
func NewSet(doc Document, opts ...schema.Option) (*Set, error) {
	c, err := schema.NewCompiler(doc.Definitions, opts...)
	if err != nil {
		return nil, err
	}
	s := &Set{byName: make(map[string]*RouteContract, len(doc.Routes))}
	for _, def := range doc.Routes {
		if _, dup := s.byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate route %q", def.Name)
		}
		rc, err := compileWith(c, def)
		if err != nil {
			return nil, err
		}
		s.routes = append(s.routes, rc)
		s.byName[rc.Name] = rc
		if rc.pattern != nil {
			s.byPrecision = append(s.byPrecision, rc)
		}
	}
	slices.SortStableFunc(s.byPrecision, func(a, b *RouteContract) int {
		return morePrecise(a.pattern, b.pattern)
	})
	return s, nil
}

// ParseSet decodes a YAML or JSON contract document and compiles it.
func ParseSet(data []byte, opts ...schema.Option) (*Set, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse contract document: %w", err)
	}
	return NewSet(doc, opts...)
}

// LoadFile reads and compiles the contract document at path.
func LoadFile(path string, opts ...schema.Option) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract file: %w", err)
	}
	s, err := ParseSet(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Routes returns the compiled routes in document order.
func (s *Set) Routes() []*RouteContract {
	out := make([]*RouteContract, len(s.routes))
	copy(out, s.routes)
	return out
}

// Len returns the number of routes.
func (s *Set) Len() int {
	return len(s.routes)
}

// Route returns the contract with the given name.
func (s *Set) Route(name string) (*RouteContract, bool) {
	rc, ok := s.byName[name]
	return rc, ok
}

// Match finds the route whose method and path template match a request,
// returning the captured path parameters. Literal segments take precedence
// over captures, so "/items/new" wins over "/items/{id}". Routes without a
// method match any method; routes without a path never match.
func (s *Set) Match(method, path string) (*RouteContract, map[string]string, bool) {
	for _, rc := range s.byPrecision {
		if rc.Method != "" && !strings.EqualFold(rc.Method, method) {
			continue
		}
		if params, ok := rc.pattern.match(path); ok {
			return rc, params, true
		}
	}
	return nil, nil, false
}
