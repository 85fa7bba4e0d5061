package report

import (
	"errors"
	"net/http"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/reqbind/internal/fieldpath"
)

func errAt(loc Location, code Code, segs ...string) Error {
	return Error{
		Location: loc,
		Path:     fieldpath.New(append([]string{string(loc)}, segs...)...),
		Kind:     code.Kind(),
		Code:     code,
		Message:  string(code),
	}
}

// =============================================================================
// Aggregator
// =============================================================================

func TestAggregator_OrdersByLocationThenInsertion(t *testing.T) {
	var agg Aggregator
	agg.Add(
		errAt(LocationFiles, CodeMissingFile, "avatar"),
		errAt(LocationBody, CodeMissing, "name"),
		errAt(LocationQuery, CodeExclusiveMinimum, "limit"),
		errAt(LocationBody, CodeMaxItems, "tags"),
		errAt(LocationPath, CodeTypeMismatch, "id"),
		errAt(LocationCookie, CodeMinLength, "session"),
		errAt(LocationHeader, CodePattern, "X-Request-Id"),
		errAt(LocationQuery, CodeEnum, "sort"),
	)

	var fields []string
	for _, e := range agg.Errors() {
		fields = append(fields, e.Field())
	}
	assert.Equal(t, []string{
		"path.id",
		"query.limit",
		"query.sort",
		"header.X-Request-Id",
		"cookie.session",
		"body.name",
		"body.tags",
		"files.avatar",
	}, fields)
}

func TestAggregator_EmptyYieldsNilReport(t *testing.T) {
	var agg Aggregator
	assert.Nil(t, agg.Report())
	assert.False(t, agg.HasErrors())
	assert.Zero(t, agg.Len())
}

func TestAggregator_WarningsDoNotReject(t *testing.T) {
	var agg Aggregator
	w := errAt(LocationQuery, CodeUnexpectedParameter, "debug")
	w.Severity = SeverityWarning
	agg.Add(w)
	agg.AddWarning(errAt(LocationCookie, CodeUnexpectedParameter, "tracking"))

	assert.Nil(t, agg.Report())
	require.Len(t, agg.Warnings(), 2)
	assert.Equal(t, SeverityWarning, agg.Warnings()[1].Severity)

	agg.Add(errAt(LocationBody, CodeMissing, "name"))
	rep := agg.Report()
	require.NotNil(t, rep)
	assert.Len(t, rep.Errors, 1)
	assert.Len(t, rep.Warnings, 2)
}

// =============================================================================
// Report
// =============================================================================

func TestReport_ImplementsError(t *testing.T) {
	var agg Aggregator
	agg.Add(errAt(LocationQuery, CodeExclusiveMinimum, "limit"))
	var err error = agg.Report()

	var rep *Report
	require.True(t, errors.As(err, &rep))
	assert.Equal(t, "request validation failed: query.limit: exclusive_minimum", err.Error())

	agg.Add(errAt(LocationBody, CodeMissing, "name"))
	assert.Contains(t, agg.Report().Error(), "with 2 errors")
	assert.Contains(t, agg.Report().Error(), "(and 1 more)")
}

func TestReport_Lookups(t *testing.T) {
	var agg Aggregator
	agg.Add(
		errAt(LocationBody, CodeMaxItems, "tags"),
		errAt(LocationBody, CodeMissing, "price"),
		errAt(LocationQuery, CodeExclusiveMinimum, "limit"),
	)
	rep := agg.Report()

	assert.True(t, rep.Has("body.tags"))
	assert.False(t, rep.Has("body.name"))
	assert.True(t, rep.HasCode(CodeMissing))
	assert.False(t, rep.HasCode(CodeMalformedBody))
	assert.Len(t, rep.ByLocation(LocationBody), 2)
	assert.Len(t, rep.ByField("query.limit"), 1)
	assert.Contains(t, rep.String(), "✗ query.limit: exclusive_minimum")
}

func TestReport_HTTPStatus(t *testing.T) {
	var agg Aggregator
	agg.Add(errAt(LocationQuery, CodeExclusiveMinimum, "limit"))
	assert.Equal(t, http.StatusUnprocessableEntity, agg.Report().HTTPStatus())

	agg.Add(errAt(LocationFiles, CodeTooLarge, "document"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, agg.Report().HTTPStatus())

	agg.Add(errAt(LocationBody, CodeMalformedBody))
	assert.Equal(t, http.StatusBadRequest, agg.Report().HTTPStatus())
}

func TestReport_MarshalJSON(t *testing.T) {
	var agg Aggregator
	agg.Add(Error{
		Location: LocationQuery,
		Path:     fieldpath.New("query", "limit"),
		Kind:     KindConstraint,
		Code:     CodeExclusiveMinimum,
		Message:  "Input should be greater than 0",
		Value:    int64(0),
		Context:  map[string]any{"gt": 0},
	})
	agg.Add(Error{
		Location: LocationHeader,
		Path:     fieldpath.New("header", "Authorization"),
		Kind:     KindConstraint,
		Code:     CodePattern,
		Message:  "value does not match pattern",
		Value:    "secret",
		Redacted: true,
	})
	agg.Add(Error{
		Location: LocationBody,
		Path:     fieldpath.New("body").Child("tags").Index(2),
		Kind:     KindTypeMismatch,
		Code:     CodeTypeMismatch,
		Message:  "expected integer",
		Value:    "x",
		Context:  map[string]any{"expected": "integer"},
	})

	data, err := json.Marshal(agg.Report())
	require.NoError(t, err)

	var doc struct {
		Type   string           `json:"type"`
		Status int              `json:"status"`
		Detail string           `json:"detail"`
		Errors []map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "urn:reqbind:problem:validation-error", doc.Type)
	assert.Equal(t, 422, doc.Status)
	assert.Equal(t, "3 validation errors in request", doc.Detail)
	require.Len(t, doc.Errors, 3)

	assert.Equal(t, "greater_than", doc.Errors[0]["type"])
	assert.Equal(t, []any{"query", "limit"}, doc.Errors[0]["loc"])
	assert.EqualValues(t, 0, doc.Errors[0]["input"])

	assert.Equal(t, "string_pattern_mismatch", doc.Errors[1]["type"])
	assert.NotContains(t, doc.Errors[1], "input")

	assert.Equal(t, "int_parsing", doc.Errors[2]["type"])
	assert.Equal(t, []any{"body", "tags", float64(2)}, doc.Errors[2]["loc"])
}

func TestReport_DocumentSummary(t *testing.T) {
	var agg Aggregator
	agg.Add(errAt(LocationQuery, CodeExclusiveMinimum, "limit"))
	doc := agg.Report().Document()
	assert.Equal(t, "1 validation error in request", doc.Detail)
	assert.Equal(t, "Request Validation Failed", doc.Title)

	agg.Add(errAt(LocationBody, CodeMalformedBody))
	doc = agg.Report().Document()
	assert.Equal(t, "Invalid request format", doc.Detail)
	assert.Equal(t, 400, doc.Status)
}

func TestError_DetailType(t *testing.T) {
	tests := []struct {
		code Code
		ctx  map[string]any
		want string
	}{
		{CodeMinLength, nil, "string_too_short"},
		{CodeMaxLength, nil, "string_too_long"},
		{CodeMinimum, nil, "greater_than_equal"},
		{CodeMaximum, nil, "less_than_equal"},
		{CodeExclusiveMaximum, nil, "less_than"},
		{CodeMissing, nil, "missing"},
		{CodeMissingFile, nil, "missing"},
		{CodeMalformedBody, nil, "json_parse_error"},
		{CodeAdditionalProperty, nil, "extra_forbidden"},
		{CodeTypeMismatch, map[string]any{"expected": "boolean"}, "bool_parsing"},
		{CodeTypeMismatch, map[string]any{"expected": "number"}, "float_parsing"},
		{CodeFormat, map[string]any{"format": "uuid"}, "uuid_parsing"},
		{CodeFormat, map[string]any{"format": "date-time"}, "datetime_parsing"},
		{CodeFormat, map[string]any{"format": "email"}, "value_error"},
		{CodeMultipleMatch, nil, "multiple_match"},
		{CodeContentTypeSpoofed, nil, "content_type_spoofed"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+string(tt.code), func(t *testing.T) {
			e := Error{Code: tt.code, Context: tt.ctx}
			assert.Equal(t, tt.want, e.Detail().Type)
		})
	}
}

// =============================================================================
// Codes and locations
// =============================================================================

func TestCode_Kind(t *testing.T) {
	assert.Equal(t, KindTypeMismatch, CodeTypeMismatch.Kind())
	assert.Equal(t, KindTypeMismatch, CodeNullNotAllowed.Kind())
	assert.Equal(t, KindConstraint, CodeUniqueItems.Kind())
	assert.Equal(t, KindConstraint, CodeMissing.Kind())
	assert.Equal(t, KindComposition, CodeMissingDependency.Kind())
	assert.Equal(t, KindFile, CodeTooSmall.Kind())
	assert.Equal(t, KindMalformedBody, CodeMalformedBody.Kind())
	assert.Equal(t, KindUnexpected, CodeUnexpectedParameter.Kind())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "type_mismatch", KindTypeMismatch.String())
	assert.Equal(t, "constraint_violation", KindConstraint.String())
	assert.Equal(t, "composition", KindComposition.String())
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "malformed_body", KindMalformedBody.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestLocation_Order(t *testing.T) {
	for i, loc := range Locations {
		assert.Equal(t, i, loc.Order())
		assert.True(t, loc.Valid())
	}
	assert.False(t, Location("requestBody").Valid())
}
