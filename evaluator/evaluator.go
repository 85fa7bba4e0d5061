package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/erraggy/reqbind/formats"
	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

// Evaluator validates values against compiled schemas.
type Evaluator struct {
	formats *formats.Registry

	// redactValues keeps offending values out of reported errors. Use it for
	// data that may carry credentials, such as headers and cookies.
	redactValues bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFormats sets the registry used for "format" checks.
func WithFormats(r *formats.Registry) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.formats = r
		}
	}
}

// WithRedaction sets whether offending values are withheld from errors.
func WithRedaction(redact bool) Option {
	return func(e *Evaluator) {
		e.redactValues = redact
	}
}

// New returns an Evaluator using the default format registry.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{formats: formats.Default}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Redacting returns a copy of e that withholds offending values.
func (e *Evaluator) Redacting() *Evaluator {
	c := *e
	c.redactValues = true
	return &c
}

var defaultEvaluator = New()

// Validate checks value against s with the default evaluator.
func Validate(value any, s *schema.Schema, path fieldpath.Path) []report.Error {
	return defaultEvaluator.Validate(value, s, path)
}

// Validate returns every violation of s by value. The first segment of path
// names the request location. A nil schema accepts anything.
func (e *Evaluator) Validate(value any, s *schema.Schema, path fieldpath.Path) []report.Error {
	v := &visit{ev: e, loc: report.Location(path.Root())}
	v.node(value, s, path)
	return v.errs
}

// Matches reports whether value satisfies s.
func (e *Evaluator) Matches(value any, s *schema.Schema) bool {
	v := &visit{ev: e}
	v.node(value, s, fieldpath.Path{})
	return len(v.errs) == 0
}

// visit accumulates the errors of one Validate call.
type visit struct {
	ev   *Evaluator
	loc  report.Location
	errs []report.Error
}

func (v *visit) add(at fieldpath.Path, code report.Code, value any, ctx map[string]any, format string, args ...any) {
	err := report.Error{
		Location: v.loc,
		Path:     at,
		Kind:     code.Kind(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Context:  ctx,
		Severity: report.SeverityError,
	}
	if v.ev.redactValues {
		err.Redacted = true
	} else {
		err.Value = value
	}
	v.errs = append(v.errs, err)
}

// sub validates value against s in a fresh visit and returns its errors.
func (v *visit) sub(value any, s *schema.Schema, at fieldpath.Path) []report.Error {
	inner := &visit{ev: v.ev, loc: v.loc}
	inner.node(value, s, at)
	return inner.errs
}

func (v *visit) node(value any, s *schema.Schema, at fieldpath.Path) {
	if s == nil {
		return
	}

	types := s.Types()
	if value == nil && len(types) > 0 {
		// a nullable node accepts null outright
		if !s.AllowsNull() {
			v.add(at, report.CodeNullNotAllowed, nil, nil, "Input should not be null")
		}
		return
	}
	if len(types) > 0 && !typeMatches(value, types) {
		expected := s.PrimaryType()
		v.add(at, report.CodeTypeMismatch, value,
			map[string]any{"expected": expected, "actual": typeOf(value)},
			"Input should be a valid %s", strings.Join(nonNull(types), " or "))
		return
	}

	switch val := value.(type) {
	case string:
		v.checkString(val, s, at)
	case []any:
		v.checkArray(val, s, at)
	case map[string]any:
		v.checkObject(val, s, at)
	case bool, nil:
	default:
		if n, ok := toFloat(val); ok {
			v.checkNumber(n, value, s, at)
		}
	}

	v.checkEnumConst(value, s, at)
	v.checkComposition(value, s, at)
}

func nonNull(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t != schema.TypeNull {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return types
	}
	return out
}

// typeOf returns the schema type name of a bound value.
func typeOf(value any) string {
	switch val := value.(type) {
	case nil:
		return schema.TypeNull
	case string:
		return schema.TypeString
	case bool:
		return schema.TypeBoolean
	case []any:
		return schema.TypeArray
	case map[string]any:
		return schema.TypeObject
	case float64, float32:
		return schema.TypeNumber
	default:
		if _, ok := toFloat(val); ok {
			return schema.TypeInteger
		}
		return fmt.Sprintf("%T", value)
	}
}

func typeMatches(value any, types []string) bool {
	actual := typeOf(value)
	for _, t := range types {
		switch {
		case t == actual:
			return true
		case t == schema.TypeNumber && actual == schema.TypeInteger:
			return true
		case t == schema.TypeInteger && actual == schema.TypeNumber:
			f, _ := toFloat(value)
			if f == math.Trunc(f) && !math.IsInf(f, 0) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
