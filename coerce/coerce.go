package coerce

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"

	"github.com/erraggy/reqbind/schema"
)

// MismatchError reports a raw value that cannot become the expected type.
type MismatchError struct {
	// Expected is the target type name.
	Expected string
	// Raw is the offending input.
	Raw string
	// Index is the array element index, or -1 for a scalar.
	Index int
	// Reason is an optional detail such as "out of range".
	Reason string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("cannot parse %q as %s", e.Raw, e.Expected)
	if e.Index >= 0 {
		msg = fmt.Sprintf("item %d: %s", e.Index, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// MismatchErrors holds one MismatchError per failing array element.
type MismatchErrors []*MismatchError

func (m MismatchErrors) Error() string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Mismatches flattens err into its individual mismatches.
func Mismatches(err error) []*MismatchError {
	var many MismatchErrors
	if errors.As(err, &many) {
		return many
	}
	var one *MismatchError
	if errors.As(err, &one) {
		return []*MismatchError{one}
	}
	return nil
}

// Coerce converts raw occurrences of one parameter into a typed value for s.
//
// Arrays take one element per occurrence, or split a single occurrence on the
// node's separator. Scalars take the last occurrence. A nil or untyped node
// yields the raw string.
func Coerce(raw []string, s *schema.Schema) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if s == nil {
		return raw[len(raw)-1], nil
	}
	if s.PrimaryType() == schema.TypeArray {
		return coerceArray(raw, s)
	}
	return Value(raw[len(raw)-1], s)
}

// Value converts a single raw string for s. Union types are tried in
// declaration order. A literal "null" becomes nil when the node allows null
// and its primary type is not string.
func Value(raw string, s *schema.Schema) (any, error) {
	if s == nil {
		return raw, nil
	}
	if raw == "null" && s.AllowsNull() && s.PrimaryType() != schema.TypeString {
		return nil, nil
	}
	var first error
	for _, t := range s.Types() {
		if t == schema.TypeNull {
			continue
		}
		v, err := scalar(raw, t, s)
		if err == nil {
			return v, nil
		}
		if first == nil {
			first = err
		}
	}
	if first != nil {
		return nil, first
	}
	return raw, nil
}

// Scalar converts raw to the named type. Array and object targets are
// decoded from JSON text.
func Scalar(raw, typeName string) (any, error) {
	return scalar(raw, typeName, nil)
}

func scalar(raw, typeName string, s *schema.Schema) (any, error) {
	switch typeName {
	case schema.TypeInteger:
		return parseInteger(raw)
	case schema.TypeNumber:
		return parseNumber(raw)
	case schema.TypeBoolean:
		return parseBoolean(raw)
	case schema.TypeString:
		return raw, nil
	case schema.TypeObject:
		return parseJSON[map[string]any](raw, typeName)
	case schema.TypeArray:
		if s != nil {
			return coerceArray([]string{raw}, s)
		}
		return parseJSON[[]any](raw, typeName)
	default:
		return raw, nil
	}
}

func coerceArray(raw []string, s *schema.Schema) (any, error) {
	elems := raw
	if len(raw) == 1 && s.Separator != "" {
		elems = strings.Split(raw[0], s.Separator)
	}
	out := make([]any, len(elems))
	var errs MismatchErrors
	for i, e := range elems {
		v, err := Value(e, s.Items)
		if err != nil {
			var m *MismatchError
			if errors.As(err, &m) {
				m.Index = i
				errs = append(errs, m)
				continue
			}
			return nil, err
		}
		out[i] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func mismatch(raw, expected, reason string) *MismatchError {
	return &MismatchError{Expected: expected, Raw: raw, Index: -1, Reason: reason}
}

func parseInteger(raw string) (any, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return nil, mismatch(raw, schema.TypeInteger, "out of range")
	}
	// scientific notation such as 1e3
	f, ferr := strconv.ParseFloat(raw, 64)
	if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, mismatch(raw, schema.TypeInteger, "")
	}
	if f != math.Trunc(f) {
		return nil, mismatch(raw, schema.TypeInteger, "has a fractional part")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, mismatch(raw, schema.TypeInteger, "out of range")
	}
	return int64(f), nil
}

func parseNumber(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, mismatch(raw, schema.TypeNumber, "")
	}
	if f == 0 {
		// -0 binds as 0
		return float64(0), nil
	}
	return f, nil
}

func parseBoolean(raw string) (any, error) {
	switch cases.Fold().String(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, mismatch(raw, schema.TypeBoolean, "")
}

func parseJSON[T any](raw, expected string) (any, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, mismatch(raw, expected, "invalid JSON")
	}
	return schema.NormalizeValue(any(v)), nil
}
