package evaluator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/formats"
	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

// multipleOfTolerance is the relative slack allowed when dividing by
// multipleOf, absorbing binary floating-point representation error.
const multipleOfTolerance = 1e-9

func (v *visit) checkString(s string, sch *schema.Schema, at fieldpath.Path) {
	length := utf8.RuneCountInString(s)
	if sch.MinLength != nil && length < *sch.MinLength {
		v.add(at, report.CodeMinLength, s, map[string]any{"min_length": *sch.MinLength},
			"String should have at least %d %s", *sch.MinLength, plural(*sch.MinLength, "character"))
	}
	if sch.MaxLength != nil && length > *sch.MaxLength {
		v.add(at, report.CodeMaxLength, s, map[string]any{"max_length": *sch.MaxLength},
			"String should have at most %d %s", *sch.MaxLength, plural(*sch.MaxLength, "character"))
	}
	if re := sch.Regexp(); re != nil && !re.MatchString(s) {
		v.add(at, report.CodePattern, s, map[string]any{"pattern": sch.Pattern},
			"String should match pattern '%s'", sch.Pattern)
	}

	format := sch.Format
	var err error
	switch {
	case sch.RequiredUUIDVersion() != 0 && (format == "" || format == "uuid"):
		format = "uuid"
		err = formats.ValidateUUID(s, sch.RequiredUUIDVersion())
	case format != "":
		err = v.ev.formats.Validate(format, s)
	}
	if err != nil && !errors.Is(err, binderrors.ErrUnknownFormat) {
		reason := err.Error()
		var fe *formats.Error
		if errors.As(err, &fe) {
			reason = fe.Reason
		}
		ctx := map[string]any{"format": format}
		if reason != "" {
			ctx["error"] = reason
		}
		v.add(at, report.CodeFormat, s, ctx, "Input should be a valid %s", format)
	}
}

func (v *visit) checkNumber(n float64, raw any, sch *schema.Schema, at fieldpath.Path) {
	if sch.Minimum != nil && n < *sch.Minimum {
		v.add(at, report.CodeMinimum, raw, map[string]any{"ge": *sch.Minimum},
			"Input should be greater than or equal to %v", *sch.Minimum)
	}
	if lo, ok := sch.ExclusiveMin(); ok && n <= lo {
		v.add(at, report.CodeExclusiveMinimum, raw, map[string]any{"gt": lo},
			"Input should be greater than %v", lo)
	}
	if sch.Maximum != nil && n > *sch.Maximum {
		v.add(at, report.CodeMaximum, raw, map[string]any{"le": *sch.Maximum},
			"Input should be less than or equal to %v", *sch.Maximum)
	}
	if hi, ok := sch.ExclusiveMax(); ok && n >= hi {
		v.add(at, report.CodeExclusiveMaximum, raw, map[string]any{"lt": hi},
			"Input should be less than %v", hi)
	}
	if sch.MultipleOf != nil && !isMultiple(n, *sch.MultipleOf) {
		v.add(at, report.CodeMultipleOf, raw, map[string]any{"multiple_of": *sch.MultipleOf},
			"Input should be a multiple of %v", *sch.MultipleOf)
	}
	if sch.Format != "" {
		if err := formats.ValidateNumber(sch.Format, n); err != nil {
			v.add(at, report.CodeFormat, raw, map[string]any{"format": sch.Format},
				"Input should be a valid %s", sch.Format)
		}
	}
}

func isMultiple(n, divisor float64) bool {
	if divisor <= 0 {
		return true
	}
	q := n / divisor
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return false
	}
	return math.Abs(q-math.Round(q)) <= multipleOfTolerance*math.Max(1, math.Abs(q))
}

func (v *visit) checkArray(arr []any, sch *schema.Schema, at fieldpath.Path) {
	count := len(arr)
	if sch.MinItems != nil && count < *sch.MinItems {
		v.add(at, report.CodeMinItems, arr, map[string]any{"min_length": *sch.MinItems, "actual_length": count},
			"List should have at least %d %s after validation, not %d", *sch.MinItems, plural(*sch.MinItems, "item"), count)
	}
	if sch.MaxItems != nil && count > *sch.MaxItems {
		v.add(at, report.CodeMaxItems, arr, map[string]any{"max_length": *sch.MaxItems, "actual_length": count},
			"List should have at most %d %s after validation, not %d", *sch.MaxItems, plural(*sch.MaxItems, "item"), count)
	}
	if sch.UniqueItems {
		if first, dup, found := findDuplicate(arr); found {
			v.add(at, report.CodeUniqueItems, arr, map[string]any{"first_index": first, "duplicate_index": dup},
				"List items should be unique; item %d duplicates item %d", dup, first)
		}
	}
	if sch.Items != nil {
		for i, item := range arr {
			v.node(item, sch.Items, at.Index(i))
		}
	}
}

func findDuplicate(arr []any) (int, int, bool) {
	for j := 1; j < len(arr); j++ {
		for i := 0; i < j; i++ {
			if Equal(arr[i], arr[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func (v *visit) checkObject(obj map[string]any, sch *schema.Schema, at fieldpath.Path) {
	required := make(map[string]bool, len(sch.Required))
	for _, name := range sch.Required {
		required[name] = true
	}

	for _, name := range sch.PropertyNames() {
		value, present := obj[name]
		if !present {
			if required[name] {
				v.add(at.Child(name), report.CodeMissing, nil, nil, "Field required")
			}
			continue
		}
		v.node(value, sch.Properties[name], at.Child(name))
	}
	for _, name := range sch.Required {
		if _, declared := sch.Properties[name]; declared {
			continue
		}
		if _, present := obj[name]; !present {
			v.add(at.Child(name), report.CodeMissing, nil, nil, "Field required")
		}
	}

	var extra []string
	for name := range obj {
		if _, declared := sch.Properties[name]; !declared {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		switch {
		case !sch.ExtraAllowed():
			v.add(at.Child(name), report.CodeAdditionalProperty, obj[name], map[string]any{"property": name},
				"Extra inputs are not permitted")
		case sch.AdditionalProperties != nil && sch.AdditionalProperties.Schema != nil:
			v.node(obj[name], sch.AdditionalProperties.Schema, at.Child(name))
		}
	}

	count := len(obj)
	if sch.MinProperties != nil && count < *sch.MinProperties {
		v.add(at, report.CodeMinProperties, nil, map[string]any{"min_properties": *sch.MinProperties, "actual": count},
			"Object should have at least %d %s", *sch.MinProperties, plural(*sch.MinProperties, "property"))
	}
	if sch.MaxProperties != nil && count > *sch.MaxProperties {
		v.add(at, report.CodeMaxProperties, nil, map[string]any{"max_properties": *sch.MaxProperties, "actual": count},
			"Object should have at most %d %s", *sch.MaxProperties, plural(*sch.MaxProperties, "property"))
	}

	for _, trigger := range sch.DependencyTriggers() {
		if _, present := obj[trigger]; !present {
			continue
		}
		for _, companion := range sch.Dependencies[trigger] {
			if _, ok := obj[companion]; ok {
				continue
			}
			v.add(at, report.CodeMissingDependency, nil,
				map[string]any{"trigger": trigger, "missing": companion},
				"Field '%s' is required when '%s' is present", companion, trigger)
		}
	}
}

func (v *visit) checkEnumConst(value any, sch *schema.Schema, at fieldpath.Path) {
	if len(sch.Enum) > 0 {
		found := false
		for _, allowed := range sch.Enum {
			if Equal(value, allowed) {
				found = true
				break
			}
		}
		if !found {
			expected := describeEnum(sch.Enum)
			v.add(at, report.CodeEnum, value, map[string]any{"expected": expected},
				"Input should be %s", expected)
		}
	}
	if sch.HasConst() && !Equal(value, sch.Const) {
		v.add(at, report.CodeConst, value, map[string]any{"expected": sch.Const},
			"Input should be %s", literal(sch.Const))
	}
}

// describeEnum renders allowed values as "'a', 'b' or 'c'".
func describeEnum(values []any) string {
	parts := make([]string, len(values))
	for i, val := range values {
		parts[i] = literal(val)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return fmt.Sprintf("%s or %s", strings.Join(parts[:len(parts)-1], ", "), parts[len(parts)-1])
}

func literal(val any) string {
	switch t := val.(type) {
	case string:
		return "'" + t + "'"
	case nil:
		return "null"
	default:
		return fmt.Sprint(t)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	if word == "property" {
		return "properties"
	}
	return word + "s"
}
