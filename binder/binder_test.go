package binder

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/contract"
	"github.com/erraggy/reqbind/internal/testutil"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

func route(t *testing.T, name string) *contract.RouteContract {
	t.Helper()
	set, err := contract.ParseSet([]byte(testutil.ShopContracts))
	require.NoError(t, err)
	rc, ok := set.Route(name)
	require.True(t, ok, "route %s", name)
	return rc
}

func mustSchema(t *testing.T, src string) *schema.Schema {
	t.Helper()
	s, err := schema.Decode([]byte(src))
	require.NoError(t, err)
	return s
}

func newBinder(t *testing.T, opts ...Option) *Binder {
	t.Helper()
	b, err := New(opts...)
	require.NoError(t, err)
	return b
}

func rejected(t *testing.T, err error) *report.Report {
	t.Helper()
	require.Error(t, err)
	var rep *report.Report
	require.True(t, errors.As(err, &rep), "expected *report.Report, got %T", err)
	return rep
}

func fields(errs []report.Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field()
	}
	return out
}

// =============================================================================
// Query parameters
// =============================================================================

func TestBind_QueryLimitScenario(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "list_items")

	set, err := b.Bind(rc, &Input{RawQuery: "limit=5"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), set.Query["limit"])

	_, err = b.Bind(rc, &Input{RawQuery: "limit=0"})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	e := rep.Errors[0]
	assert.Equal(t, "query.limit", e.Field())
	assert.Equal(t, report.KindConstraint, e.Kind)
	assert.Equal(t, report.CodeExclusiveMinimum, e.Code)
	assert.Equal(t, 422, rep.HTTPStatus())
}

func TestBind_QueryCoercion(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "list_items")

	set, err := b.Bind(rc, &Input{Query: url.Values{
		"limit":  {"1e2"},
		"tags":   {"red|green|blue"},
		"active": {"TRUE"},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(100), set.Query["limit"])
	assert.Equal(t, []any{"red", "green", "blue"}, set.Query["tags"])
	assert.Equal(t, true, set.Query["active"])
	assert.Equal(t, int64(0), set.Query["offset"], "default is bound when absent")

	v, ok := set.Get(report.LocationQuery, "limit")
	assert.True(t, ok)
	assert.Equal(t, int64(100), v)
}

func TestBind_QueryMissingAndMismatch(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "list_items")

	_, err := b.Bind(rc, &Input{})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.CodeMissing, rep.Errors[0].Code)
	assert.Equal(t, "Field required", rep.Errors[0].Message)

	_, err = b.Bind(rc, &Input{RawQuery: "limit=abc&active=maybe&offset=1.5"})
	rep = rejected(t, err)
	assert.Equal(t, []string{"query.limit", "query.offset", "query.active"}, fields(rep.Errors))
	for _, e := range rep.Errors {
		assert.Equal(t, report.KindTypeMismatch, e.Kind)
	}
	assert.Equal(t, "abc", rep.Errors[0].Value)
}

func TestBind_LastOccurrenceWins(t *testing.T) {
	set, err := newBinder(t).Bind(route(t, "list_items"), &Input{RawQuery: "limit=0&limit=7"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), set.Query["limit"])
}

func TestBind_UndeclaredQuery(t *testing.T) {
	rc := route(t, "list_items")
	in := &Input{RawQuery: "limit=1&debug=yes"}

	set, err := newBinder(t).Bind(rc, in)
	require.NoError(t, err)
	require.Len(t, set.Warnings, 1)
	assert.Equal(t, "query.debug", set.Warnings[0].Field())
	assert.Equal(t, report.SeverityWarning, set.Warnings[0].Severity)

	set, err = newBinder(t, WithIncludeWarnings(false)).Bind(rc, in)
	require.NoError(t, err)
	assert.Empty(t, set.Warnings)

	_, err = newBinder(t, WithStrictMode(true)).Bind(rc, in)
	rep := rejected(t, err)
	assert.True(t, rep.HasCode(report.CodeUnexpectedParameter))
}

// =============================================================================
// Path, headers and cookies
// =============================================================================

func TestBind_LocationOrdering(t *testing.T) {
	rc := route(t, "get_item")
	_, err := newBinder(t).Bind(rc, &Input{
		PathParams: map[string]string{"item_id": "not-a-uuid"},
		Cookies:    map[string]string{"session": "short"},
		Body:       map[string]any{"ignored": true},
		BodyParsed: true,
	})
	rep := rejected(t, err)
	assert.Equal(t, []string{"path.item_id", "header.x-api-key", "cookie.session"}, fields(rep.Errors))
	assert.Equal(t, []report.Code{report.CodeFormat, report.CodeMissing, report.CodeMinLength},
		[]report.Code{rep.Errors[0].Code, rep.Errors[1].Code, rep.Errors[2].Code})
}

func TestBind_HeadersCaseInsensitiveAndRedacted(t *testing.T) {
	rc := route(t, "get_item")
	path := map[string]string{"item_id": "550e8400-e29b-41d4-a716-446655440000"}

	h := http.Header{}
	h.Set("X-API-KEY", "abcdef0123456789")
	set, err := newBinder(t).Bind(rc, &Input{PathParams: path, Header: h})
	require.NoError(t, err)
	assert.Equal(t, "abcdef0123456789", set.Header["x-api-key"])

	h.Set("X-Api-Key", "Secret-Token")
	_, err = newBinder(t).Bind(rc, &Input{PathParams: path, Header: h})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.True(t, rep.Errors[0].Redacted)
	assert.Nil(t, rep.Errors[0].Value)
	assert.NotContains(t, rep.Error(), "Secret-Token")

	_, err = newBinder(t, WithRedactSensitive(false)).Bind(rc, &Input{PathParams: path, Header: h})
	rep = rejected(t, err)
	assert.Equal(t, "Secret-Token", rep.Errors[0].Value)
}

func TestBind_UnderscoreHeaderName(t *testing.T) {
	rc, err := contract.Compile(contract.Definition{
		Name: "r",
		ParameterSchema: mustSchema(t, `{"type":"object","required":["x_trace_id"],
			"properties":{"x_trace_id":{"type":"string","source":"header"}}}`),
	}, nil)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("X-Trace-Id", "t-1")
	set, err := newBinder(t).Bind(rc, &Input{Header: h})
	require.NoError(t, err)
	assert.Equal(t, "t-1", set.Header["x_trace_id"])
}

func TestBind_StrictHeadersAndCookies(t *testing.T) {
	rc := route(t, "get_item")
	h := http.Header{}
	h.Set("X-Api-Key", "abcdef0123456789")
	h.Set("User-Agent", "test")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("X-Custom", "1")
	in := &Input{
		PathParams: map[string]string{"item_id": "550e8400-e29b-41d4-a716-446655440000"},
		Header:     h,
		Cookies:    map[string]string{"session": "long-enough-session", "tracking": "1"},
	}

	_, err := newBinder(t, WithStrictMode(true)).Bind(rc, in)
	rep := rejected(t, err)
	assert.Equal(t, []string{"header.X-Custom", "cookie.tracking"}, fields(rep.Errors))

	set, err := newBinder(t, WithSkipHeaders(true), WithSkipCookies(true)).Bind(rc, in)
	require.NoError(t, err)
	assert.Empty(t, set.Header)
	assert.Empty(t, set.Cookie)
}

// =============================================================================
// Body
// =============================================================================

func elevenTags() []any {
	tags := make([]any, 11)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag%d", i)
	}
	return tags
}

func TestBind_BodyMaxItemsScenario(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "create_item")

	_, err := b.Bind(rc, &Input{
		Body:       map[string]any{"name": "Widget", "price": 9.99, "tags": elevenTags()},
		BodyParsed: true,
	})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "body.tags", rep.Errors[0].Field())
	assert.Equal(t, report.CodeMaxItems, rep.Errors[0].Code)

	_, err = b.Bind(rc, &Input{
		Body:       map[string]any{"name": "", "price": 0, "tags": elevenTags()},
		BodyParsed: true,
	})
	rep = rejected(t, err)
	assert.Equal(t, []string{"body.name", "body.price", "body.tags"}, fields(rep.Errors))
}

func TestBind_RawJSONBody(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "create_item")

	set, err := b.Bind(rc, &Input{
		RawBody:     []byte(`{"name":"Widget","price":10,"tags":["a"],"seller":{"name":"S","address":{"city":"Oslo"}}}`),
		ContentType: "application/json; charset=utf-8",
	})
	require.NoError(t, err)
	body := set.Body.(map[string]any)
	assert.Equal(t, int64(10), body["price"])

	_, err = b.Bind(rc, &Input{
		RawBody:     []byte(`{"name":"Widget","price":10,"tags":[],"seller":{"name":"S","address":{"city":"O"}},"extra_field":1}`),
		ContentType: "application/vnd.api+json",
	})
	rep := rejected(t, err)
	assert.Equal(t, []string{"body.seller.address.city", "body.extra_field"}, fields(rep.Errors))
}

func TestBind_MalformedBody(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "create_item")

	_, err := b.Bind(rc, &Input{RawBody: []byte(`{"name":`), ContentType: "application/json"})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.CodeMalformedBody, rep.Errors[0].Code)
	assert.Equal(t, 400, rep.HTTPStatus())

	_, err = b.Bind(rc, &Input{RawBody: []byte(`{} {}`)})
	assert.True(t, rejected(t, err).HasCode(report.CodeMalformedBody))

	_, err = b.Bind(rc, &Input{RawBody: []byte{0x00, 0x01}, ContentType: "application/octet-stream"})
	assert.True(t, rejected(t, err).HasCode(report.CodeMalformedBody))
}

func TestBind_BodyRequired(t *testing.T) {
	b := newBinder(t)

	_, err := b.Bind(route(t, "create_item"), &Input{})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "body", rep.Errors[0].Field())
	assert.Equal(t, report.CodeMissing, rep.Errors[0].Code)

	_, err = newBinder(t, WithSkipBody(true)).Bind(route(t, "create_item"), &Input{})
	assert.NoError(t, err)
}

func TestBind_OneOfBody(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "checkout")

	_, err := b.Bind(rc, &Input{RawBody: []byte(`{"credit_card":"4111111111111111"}`)})
	assert.NoError(t, err)

	_, err = b.Bind(rc, &Input{RawBody: []byte(`{"credit_card":"4111111111111111","paypal_email":"a@b.io"}`)})
	assert.Equal(t, report.CodeMultipleMatch, rejected(t, err).Errors[0].Code)

	_, err = b.Bind(rc, &Input{RawBody: []byte(`{}`)})
	assert.Equal(t, report.CodeNoMatch, rejected(t, err).Errors[0].Code)
}

func TestBind_FormBody(t *testing.T) {
	rc, err := contract.Compile(contract.Definition{
		Name: "login",
		RequestSchema: mustSchema(t, `{"type":"object","required":["username","remember"],
			"properties":{"username":{"type":"string","minLength":3},"remember":{"type":"boolean"},"age":{"type":"integer"}}}`),
	}, nil)
	require.NoError(t, err)
	b := newBinder(t)

	set, err := b.Bind(rc, &Input{RawBody: []byte("username=alice&remember=1&age=30"), ContentType: "application/x-www-form-urlencoded"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"username": "alice", "remember": true, "age": int64(30)}, set.Body)

	_, err = b.Bind(rc, &Input{Form: url.Values{"username": {"al"}, "remember": {"nope"}}})
	rep := rejected(t, err)
	assert.Equal(t, []string{"body.username", "body.remember"}, fields(rep.Errors))
	assert.Equal(t, report.CodeTypeMismatch, rep.Errors[1].Code)
	assert.Equal(t, "nope", rep.Errors[1].Value)
}

// =============================================================================
// Files
// =============================================================================

type filePart struct {
	field, filename, contentType string
	content                      []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func TestBind_MultipartFiles(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "upload_document")

	body, ct := multipartBody(t, map[string]string{"title": "Q3"},
		filePart{"document", "report.pdf", "application/pdf", testutil.PDFBytes})
	set, err := b.Bind(rc, &Input{RawBody: body, ContentType: ct})
	require.NoError(t, err)
	bound := set.Body.(map[string]any)
	assert.Equal(t, "Q3", bound["title"])
	assert.Equal(t, "report.pdf", bound["document"].(map[string]any)["filename"])
	require.Len(t, set.Files["document"], 1)
	assert.Equal(t, "report.pdf", set.Files["document"][0].Filename)

	body, ct = multipartBody(t, nil,
		filePart{"document", "report.png", "image/png", testutil.PDFBytes},
		filePart{"thumbnail", "t.png", "image/png", nil})
	_, err = b.Bind(rc, &Input{RawBody: body, ContentType: ct})
	rep := rejected(t, err)
	assert.Equal(t, []string{"files.document", "files.thumbnail"}, fields(rep.Errors))
	assert.Equal(t, report.CodeContentTypeSpoofed, rep.Errors[0].Code)
	assert.Equal(t, report.CodeEmptyFile, rep.Errors[1].Code)
}

const uploadContracts = `
routes:
  - name: mixed_upload
    method: POST
    path: /
    request_schema:
      type: object
      additionalProperties: false
      required: [file]
      properties:
        active: {type: string}
        age: {type: string}
        file: {type: string, format: binary}
        username: {type: string}
  - name: images_only
    method: POST
    path: /files/images-only
    request_schema:
      type: object
      additionalProperties: false
      properties:
        file: {type: string, format: binary}
    file_params:
      file:
        required: true
        content_type: [image/jpeg, image/png, image/gif]
  - name: empty_buffer
    method: POST
    path: /upload
    file_params:
      file: {required: true, validate_magic_numbers: true}
  - name: file_list
    method: POST
    path: /files/list
    request_schema:
      type: object
      properties:
        files: {type: array, items: {type: string, format: binary}}
`

func uploadRoute(t *testing.T, name string) *contract.RouteContract {
	t.Helper()
	set, err := contract.ParseSet([]byte(uploadContracts))
	require.NoError(t, err)
	rc, ok := set.Route(name)
	require.True(t, ok, "route %s", name)
	return rc
}

func TestBind_MultipartFileInBody(t *testing.T) {
	body, ct := multipartBody(t,
		map[string]string{"active": "true", "age": "25", "username": "testuser"},
		filePart{"file", "upload.txt", "text/plain", []byte("file data here")})

	set, err := newBinder(t).Bind(uploadRoute(t, "mixed_upload"), &Input{RawBody: body, ContentType: ct})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"active":   "true",
		"age":      "25",
		"username": "testuser",
		"file": map[string]any{
			"filename":     "upload.txt",
			"content_type": "text/plain",
			"size":         int64(14),
			"content":      "file data here",
		},
	}, set.Body)
	require.Len(t, set.Files["file"], 1)
	assert.Equal(t, "upload.txt", set.Files["file"][0].Filename)
}

func TestBind_MultipartRequiredFileMissing(t *testing.T) {
	body, ct := multipartBody(t, nil)

	_, err := newBinder(t).Bind(uploadRoute(t, "mixed_upload"), &Input{RawBody: body, ContentType: ct})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "body.file", rep.Errors[0].Field())
	assert.Equal(t, report.CodeMissing, rep.Errors[0].Code)
}

func TestBind_MultipartFileOnlyBody(t *testing.T) {
	rc := uploadRoute(t, "images_only")

	t.Run("accepted image", func(t *testing.T) {
		body, ct := multipartBody(t, nil, filePart{"file", "logo.png", "image/png", testutil.PNGBytes})
		set, err := newBinder(t).Bind(rc, &Input{RawBody: body, ContentType: ct})
		require.NoError(t, err)
		file := set.Body.(map[string]any)["file"].(map[string]any)
		assert.Equal(t, "logo.png", file["filename"])
		assert.Equal(t, int64(len(testutil.PNGBytes)), file["size"])
	})

	t.Run("wrong type reported once", func(t *testing.T) {
		body, ct := multipartBody(t, nil,
			filePart{"file", "script.sh", "application/x-sh", []byte("#!/bin/bash\necho hello")})
		_, err := newBinder(t).Bind(rc, &Input{RawBody: body, ContentType: ct})
		rep := rejected(t, err)
		require.Len(t, rep.Errors, 1)
		assert.Equal(t, "files.file", rep.Errors[0].Field())
		assert.Equal(t, report.CodeUnsupportedContentType, rep.Errors[0].Code)
	})
}

func TestBind_MultipartEmptyBuffer(t *testing.T) {
	body, ct := multipartBody(t, nil, filePart{"file", "empty.txt", "text/plain", nil})

	_, err := newBinder(t).Bind(uploadRoute(t, "empty_buffer"), &Input{RawBody: body, ContentType: ct})
	rep := rejected(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "files.file", rep.Errors[0].Field())
	assert.Equal(t, report.CodeEmptyFile, rep.Errors[0].Code)
	assert.Equal(t, "File buffer is empty", rep.Errors[0].Message)
	assert.Equal(t, 0, rep.Errors[0].Context["buffer_size"])
	assert.Equal(t, 422, rep.HTTPStatus())
}

func TestBind_MultipartFileList(t *testing.T) {
	rc := uploadRoute(t, "file_list")

	body, ct := multipartBody(t, nil,
		filePart{"files", "file1.txt", "text/plain", []byte("first file")},
		filePart{"files", "file2.txt", "text/plain", []byte("second file")})
	set, err := newBinder(t).Bind(rc, &Input{RawBody: body, ContentType: ct})
	require.NoError(t, err)
	files := set.Body.(map[string]any)["files"].([]any)
	require.Len(t, files, 2)
	assert.Equal(t, "file2.txt", files[1].(map[string]any)["filename"])
	assert.Len(t, set.Files["files"], 2)

	// an array property holds a list even for one part
	body, ct = multipartBody(t, nil, filePart{"files", "only.txt", "text/plain", []byte("x")})
	set, err = newBinder(t).Bind(rc, &Input{RawBody: body, ContentType: ct})
	require.NoError(t, err)
	assert.Len(t, set.Body.(map[string]any)["files"], 1)
}

func TestBind_MissingFile(t *testing.T) {
	_, err := newBinder(t).Bind(route(t, "upload_document"), &Input{})
	rep := rejected(t, err)
	assert.Equal(t, []string{"files.document"}, fields(rep.Errors))
	assert.Equal(t, report.CodeMissingFile, rep.Errors[0].Code)

	_, err = newBinder(t, WithSkipFiles(true)).Bind(route(t, "upload_document"), &Input{})
	assert.NoError(t, err)
}

// =============================================================================
// http.Request adapter
// =============================================================================

func TestBindRequest(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "get_item")

	req := httptest.NewRequest(http.MethodGet, "/items/550e8400-e29b-41d4-a716-446655440000", nil)
	req.Header.Set("X-Api-Key", "abcdef0123456789")
	req.AddCookie(&http.Cookie{Name: "session", Value: "long-enough-session"})

	set, err := b.BindRequest(rc, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", set.Path["item_id"])
	assert.Equal(t, "long-enough-session", set.Cookie["session"])
}

func TestBindRequest_Body(t *testing.T) {
	rc := route(t, "create_item")
	payload := `{"name":"Widget","price":1.5,"tags":["a","b"]}`

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	set, err := newBinder(t).BindRequest(rc, req, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, set.Body.(map[string]any)["tags"])

	req = httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(payload))
	_, err = newBinder(t, WithMaxBodySize(10)).BindRequest(rc, req, nil)
	rep := rejected(t, err)
	assert.Equal(t, 400, rep.HTTPStatus())
}

// =============================================================================
// Properties
// =============================================================================

func TestBind_Idempotent(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "list_items")

	first, err := b.Bind(rc, &Input{RawQuery: "limit=42&offset=3&active=false&tags=x|y"})
	require.NoError(t, err)

	// re-encode the bound values and bind again
	q := url.Values{}
	for name, v := range first.Query {
		if list, ok := v.([]any); ok {
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = fmt.Sprint(item)
			}
			q.Set(name, strings.Join(parts, "|"))
			continue
		}
		q.Set(name, fmt.Sprint(v))
	}
	second, err := b.Bind(rc, &Input{Query: q})
	require.NoError(t, err)
	assert.Equal(t, first.Query, second.Query)
}

func TestBind_Concurrent(t *testing.T) {
	b := newBinder(t)
	rc := route(t, "list_items")

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := b.Bind(rc, &Input{RawQuery: fmt.Sprintf("limit=%d", i+1)})
			if assert.NoError(t, err) {
				assert.Equal(t, int64(i+1), set.Query["limit"])
			}
		}()
	}
	wg.Wait()
}

func TestNew_Options(t *testing.T) {
	_, err := New(WithMaxBodySize(0))
	assert.ErrorIs(t, err, binderrors.ErrConfig)

	_, err = New(WithFormats(nil))
	assert.ErrorIs(t, err, binderrors.ErrConfig)

	b, err := New(WithLogger(nil))
	require.NoError(t, err)
	_, err = b.Bind(nil, nil)
	assert.ErrorIs(t, err, binderrors.ErrConfig)
}
