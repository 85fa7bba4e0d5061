package evaluator

import (
	"reflect"

	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

func (v *visit) checkComposition(value any, s *schema.Schema, at fieldpath.Path) {
	// allOf contributes the union of its branches' errors
	for _, branch := range s.AllOf {
		v.node(value, branch, at)
	}

	if len(s.AnyOf) > 0 {
		matched := false
		for _, branch := range s.AnyOf {
			if len(v.sub(value, branch, at)) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			indices := make([]int, len(s.AnyOf))
			for i := range indices {
				indices[i] = i
			}
			v.add(at, report.CodeNoneMatched, value, map[string]any{"indices": indices},
				"Input should match at least one of %d schemas", len(s.AnyOf))
		}
	}

	if len(s.OneOf) > 0 {
		var matched []int
		for i, branch := range s.OneOf {
			if len(v.sub(value, branch, at)) == 0 {
				matched = append(matched, i)
			}
		}
		switch len(matched) {
		case 0:
			v.add(at, report.CodeNoMatch, value, map[string]any{"branches": len(s.OneOf)},
				"Input should match exactly one of %d schemas, matched none", len(s.OneOf))
		case 1:
		default:
			v.add(at, report.CodeMultipleMatch, value, map[string]any{"matched": matched},
				"Input should match exactly one of %d schemas, matched %d", len(s.OneOf), len(matched))
		}
	}

	if s.Not != nil && len(v.sub(value, s.Not, at)) == 0 {
		v.add(at, report.CodeUnexpectedMatch, value, nil, "Input should not match the excluded schema")
	}
}

// Equal reports whether two bound values are equal as JSON values. Numbers
// compare by magnitude regardless of their Go type; two integers compare
// exactly.
func Equal(a, b any) bool {
	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			return ia == ib
		}
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, present := bv[k]
			if !present || !Equal(x, y) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
