package binder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/elnormous/contenttype"
	json "github.com/goccy/go-json"

	"github.com/erraggy/reqbind/coerce"
	"github.com/erraggy/reqbind/filepolicy"
	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

var bodyPath = fieldpath.New(string(report.LocationBody))

func (r *run) bindBody() {
	value, present, ok := r.decodeBody()
	if !ok {
		// malformed bodies leave nothing to validate
		return
	}
	if !present {
		if r.rc.BodyRequired {
			r.agg.Add(report.Error{
				Location: report.LocationBody,
				Path:     bodyPath,
				Kind:     report.KindConstraint,
				Code:     report.CodeMissing,
				Message:  "Field required",
				Severity: report.SeverityError,
			})
		}
		return
	}
	if r.rc.Body == nil {
		r.set.Body = value
		return
	}
	errs := r.b.ev.Validate(binaryView(value, r.rc.Body), r.rc.Body, bodyPath)
	r.agg.Add(errs...)
	if len(errs) == 0 {
		r.set.Body = value
	}
}

// decodeBody returns the body value and whether one was sent. ok is false
// when the body was malformed and an error has been recorded.
func (r *run) decodeBody() (value any, present, ok bool) {
	in := r.in
	if in.BodyParsed {
		return schema.NormalizeValue(in.Body), true, true
	}
	if len(in.RawBody) == 0 {
		if len(in.Form) > 0 {
			return r.coerceForm(in.Form), true, true
		}
		return nil, false, true
	}

	mt, essence := mediaType(in.ContentType)
	switch {
	case in.ContentType == "" || essence == "application/json" || strings.HasSuffix(essence, "+json"):
		v, err := decodeJSON(in.RawBody)
		if err != nil {
			r.malformed("Invalid JSON", err)
			return nil, false, false
		}
		return v, true, true

	case essence == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(in.RawBody))
		if err != nil {
			r.malformed("Invalid form data", err)
			return nil, false, false
		}
		return r.coerceForm(form), true, true

	case essence == "multipart/form-data":
		form, parts, err := decodeMultipart(in.RawBody, mt.Parameters["boundary"])
		r.multipartDone = true
		if err != nil {
			r.malformed("Invalid multipart body", err)
			return nil, false, false
		}
		r.bodyParts = parts
		obj := r.coerceForm(form)
		r.addFiles(obj, parts)
		return obj, true, true

	case mt.Type == "text" || (r.rc.Body != nil && r.rc.Body.PrimaryType() == schema.TypeString):
		return string(in.RawBody), true, true
	}

	r.malformed(fmt.Sprintf("Unsupported content type '%s'", essence), nil)
	return nil, false, false
}

func mediaType(s string) (contenttype.MediaType, string) {
	mt := contenttype.NewMediaType(s)
	return mt, strings.ToLower(mt.Type + "/" + mt.Subtype)
}

func (r *run) malformed(msg string, cause error) {
	e := report.Error{
		Location: report.LocationBody,
		Path:     bodyPath,
		Kind:     report.KindMalformedBody,
		Code:     report.CodeMalformedBody,
		Message:  msg,
		Severity: report.SeverityError,
	}
	if cause != nil {
		e.Context = map[string]any{"error": cause.Error()}
	}
	r.agg.Add(e)
}

// coerceForm turns form fields into an object, coercing each field with the
// matching body property. A field that fails coercion keeps its raw
// strings so that body validation reports the mismatch in place.
func (r *run) coerceForm(form url.Values) map[string]any {
	obj := make(map[string]any, len(form))
	for _, name := range sortedKeys(form) {
		prop := propertySchema(r.rc.Body, name)
		v, err := coerce.Coerce(form[name], prop)
		if err != nil {
			v = rawForm(form[name], prop)
		}
		obj[name] = v
	}
	return obj
}

// addFiles stores each uploaded part in obj under its field name. A field
// sent more than once, or declared as an array, holds a list.
func (r *run) addFiles(obj map[string]any, parts []filepolicy.Part) {
	byField := make(map[string][]any)
	var order []string
	for _, p := range parts {
		if _, seen := byField[p.Field]; !seen {
			order = append(order, p.Field)
		}
		byField[p.Field] = append(byField[p.Field], fileValue(p))
	}
	for _, field := range order {
		files := byField[field]
		prop := propertySchema(r.rc.Body, field)
		if len(files) > 1 || (prop != nil && prop.PrimaryType() == schema.TypeArray) {
			obj[field] = files
			continue
		}
		obj[field] = files[0]
	}
}

// fileValue is the body representation of an uploaded file.
func fileValue(p filepolicy.Part) map[string]any {
	return map[string]any{
		"filename":     p.Filename,
		"content_type": p.MediaType(),
		"size":         int64(len(p.Content)),
		"content":      string(p.Content),
	}
}

// fileContent returns the content of a value shaped like [fileValue].
func fileContent(m map[string]any) (string, bool) {
	for _, key := range []string{"filename", "content_type", "size"} {
		if _, ok := m[key]; !ok {
			return "", false
		}
	}
	content, ok := m["content"].(string)
	return content, ok
}

// binaryView returns v with every uploaded file that sits under a binary
// string schema replaced by its content, so that the file validates as the
// string it is declared as. v itself is left untouched.
func binaryView(v any, s *schema.Schema) any {
	if s == nil {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		if s.Format == "binary" && s.HasType(schema.TypeString) {
			if content, ok := fileContent(t); ok {
				return content
			}
			return v
		}
		if len(s.Properties) == 0 && (s.AdditionalProperties == nil || s.AdditionalProperties.Schema == nil) {
			return v
		}
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = binaryView(x, propertySchema(s, k))
		}
		return out
	case []any:
		if s.Items == nil {
			return v
		}
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = binaryView(x, s.Items)
		}
		return out
	}
	return v
}

func rawForm(values []string, s *schema.Schema) any {
	if s != nil && s.PrimaryType() == schema.TypeArray {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	}
	return values[len(values)-1]
}

func propertySchema(s *schema.Schema, name string) *schema.Schema {
	if s == nil {
		return nil
	}
	if p, ok := s.Properties[name]; ok {
		return p
	}
	if s.AdditionalProperties != nil {
		return s.AdditionalProperties.Schema
	}
	return nil
}

// decodeJSON decodes one JSON document, keeping integral numbers as int64.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return fromNumbers(v), nil
}

func fromNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = fromNumbers(t[i])
		}
		return t
	case map[string]any:
		for k, x := range t {
			t[k] = fromNumbers(x)
		}
		return t
	}
	return v
}

// decodeMultipart splits a multipart body into form fields and file parts.
func decodeMultipart(data []byte, boundary string) (url.Values, []filepolicy.Part, error) {
	if boundary == "" {
		return nil, nil, errors.New("missing boundary")
	}
	mr := multipart.NewReader(bytes.NewReader(data), boundary)
	form := url.Values{}
	var parts []filepolicy.Part
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, parts, nil
		}
		if err != nil {
			return nil, nil, err
		}
		content, err := io.ReadAll(p)
		_ = p.Close()
		if err != nil {
			return nil, nil, err
		}
		if p.FileName() == "" {
			form.Add(p.FormName(), string(content))
			continue
		}
		parts = append(parts, filepolicy.Part{
			Field:       p.FormName(),
			Filename:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Content:     content,
		})
	}
}
