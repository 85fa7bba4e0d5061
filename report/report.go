package report

import (
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Report is the ordered list of violations for one rejected request.
// It implements error so the binder can return it directly.
type Report struct {
	// Errors holds every error, ordered by location then insertion.
	Errors []Error
	// Warnings holds non-rejecting entries collected in the same pass.
	Warnings []Error
}

// Error summarizes the report on one line.
func (r *Report) Error() string {
	if r == nil || len(r.Errors) == 0 {
		return "request validation failed"
	}
	first := r.Errors[0]
	if len(r.Errors) == 1 {
		return fmt.Sprintf("request validation failed: %s: %s", first.Field(), first.Message)
	}
	return fmt.Sprintf("request validation failed with %d errors: %s: %s (and %d more)",
		len(r.Errors), first.Field(), first.Message, len(r.Errors)-1)
}

// String renders every error and warning on its own line.
func (r *Report) String() string {
	var b strings.Builder
	for _, e := range r.Errors {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	for _, w := range r.Warnings {
		b.WriteString(w.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Has reports whether any error addresses the given dotted field.
func (r *Report) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field() == field {
			return true
		}
	}
	return false
}

// HasCode reports whether any error carries the given code.
func (r *Report) HasCode(code Code) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// ByField returns the errors addressing the given dotted field.
func (r *Report) ByField(field string) []Error {
	var out []Error
	for _, e := range r.Errors {
		if e.Field() == field {
			out = append(out, e)
		}
	}
	return out
}

// ByLocation returns the errors reported for one location.
func (r *Report) ByLocation(loc Location) []Error {
	var out []Error
	for _, e := range r.Errors {
		if e.Location == loc {
			out = append(out, e)
		}
	}
	return out
}

// HTTPStatus returns 400 when the body could not be parsed, 413 when an
// uploaded file exceeds its size limit and 422 otherwise.
func (r *Report) HTTPStatus() int {
	switch {
	case r.HasCode(CodeMalformedBody):
		return http.StatusBadRequest
	case r.HasCode(CodeTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusUnprocessableEntity
	}
}

// Detail is one rendered error entry.
type Detail struct {
	Type  string         `json:"type" yaml:"type"`
	Loc   []any          `json:"loc" yaml:"loc"`
	Msg   string         `json:"msg" yaml:"msg"`
	Input any            `json:"input,omitempty" yaml:"input,omitempty"`
	Ctx   map[string]any `json:"ctx,omitempty" yaml:"ctx,omitempty"`
}

// ProblemType is the problem-details "type" URI of a rendered report.
// RFC 9457 allows a non-resolvable URI here.
const ProblemType = "urn:reqbind:problem:validation-error"

// Document is the rendered form of a report, shaped as an RFC 9457
// problem-details object carrying the individual errors.
type Document struct {
	Type   string   `json:"type" yaml:"type"`
	Title  string   `json:"title" yaml:"title"`
	Status int      `json:"status" yaml:"status"`
	Detail string   `json:"detail" yaml:"detail"`
	Errors []Detail `json:"errors" yaml:"errors"`
}

// Document renders the report.
func (r *Report) Document() Document {
	doc := Document{
		Type:   ProblemType,
		Title:  "Request Validation Failed",
		Status: r.HTTPStatus(),
		Errors: make([]Detail, 0, len(r.Errors)),
	}
	switch {
	case r.HasCode(CodeMalformedBody):
		doc.Detail = "Invalid request format"
	case len(r.Errors) == 1:
		doc.Detail = "1 validation error in request"
	default:
		doc.Detail = fmt.Sprintf("%d validation errors in request", len(r.Errors))
	}
	for _, e := range r.Errors {
		doc.Errors = append(doc.Errors, e.Detail())
	}
	return doc
}

// MarshalJSON renders the report as its problem-details [Document].
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

// Detail renders one error in FastAPI style.
func (e Error) Detail() Detail {
	d := Detail{
		Type: e.detailType(),
		Loc:  e.Path.Loc(),
		Msg:  e.Message,
		Ctx:  e.Context,
	}
	if !e.Redacted {
		d.Input = e.Value
	}
	return d
}

// detailType maps a code to the FastAPI/pydantic error type string.
func (e Error) detailType() string {
	switch e.Code {
	case CodeMinLength:
		return "string_too_short"
	case CodeMaxLength:
		return "string_too_long"
	case CodePattern:
		return "string_pattern_mismatch"
	case CodeMinimum:
		return "greater_than_equal"
	case CodeExclusiveMinimum:
		return "greater_than"
	case CodeMaximum:
		return "less_than_equal"
	case CodeExclusiveMaximum:
		return "less_than"
	case CodeMinItems:
		return "too_short"
	case CodeMaxItems:
		return "too_long"
	case CodeConst:
		return "literal_error"
	case CodeAdditionalProperty:
		return "extra_forbidden"
	case CodeMissing, CodeMissingFile:
		return "missing"
	case CodeMalformedBody:
		return "json_parse_error"
	case CodeTypeMismatch:
		return typeMismatchDetail(e.Context["expected"])
	case CodeFormat:
		return formatDetail(e.Context["format"])
	default:
		return string(e.Code)
	}
}

func typeMismatchDetail(expected any) string {
	switch expected {
	case "integer":
		return "int_parsing"
	case "number":
		return "float_parsing"
	case "boolean":
		return "bool_parsing"
	case "string":
		return "string_type"
	case "array":
		return "list_type"
	case "object":
		return "dict_type"
	default:
		return "type_error"
	}
}

func formatDetail(format any) string {
	switch format {
	case "uuid":
		return "uuid_parsing"
	case "date-time":
		return "datetime_parsing"
	case "date":
		return "date_parsing"
	case "time":
		return "time_parsing"
	case "duration":
		return "duration_parsing"
	case "decimal":
		return "decimal_parsing"
	default:
		return "value_error"
	}
}
