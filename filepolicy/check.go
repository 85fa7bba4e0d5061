package filepolicy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
)

// defaultContentType is assumed for parts that declare no media type.
const defaultContentType = "application/octet-stream"

// Part is one uploaded file from a multipart request.
type Part struct {
	// Field is the form field name the part was sent under.
	Field string
	// Filename is the client-supplied file name.
	Filename string
	// ContentType is the media type declared by the client.
	ContentType string
	// Content holds the bytes when the part is buffered in memory.
	Content []byte
	// Open streams the content when set. It takes precedence over Content.
	Open func() (io.ReadCloser, error)
}

// MediaType returns the declared media type, defaulting to
// application/octet-stream.
func (p Part) MediaType() string {
	if p.ContentType == "" {
		return defaultContentType
	}
	return p.ContentType
}

// measurement is what a bounded read learned about a part.
type measurement struct {
	prefix []byte
	size   int64
	// truncated is true when reading stopped past the size limit.
	truncated bool
}

// measure reads the part through a limit of limit+1 bytes, keeping the first
// sniffLen bytes. A limit of zero reads everything.
func (p Part) measure(limit int64) (measurement, error) {
	var r io.Reader
	if p.Open != nil {
		rc, err := p.Open()
		if err != nil {
			return measurement{}, err
		}
		defer func() { _ = rc.Close() }()
		r = rc
	} else {
		r = bytes.NewReader(p.Content)
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return measurement{}, err
	}
	rest, err := io.Copy(io.Discard, r)
	if err != nil {
		return measurement{}, err
	}
	m := measurement{prefix: head[:n], size: int64(n) + rest}
	m.truncated = limit > 0 && m.size > limit
	return m, nil
}

// Check applies specs, in order, to parts. Parts for fields with no spec
// are ignored.
func Check(specs []FileSpec, parts []Part) []report.Error {
	byField := make(map[string][]Part, len(parts))
	for _, p := range parts {
		byField[p.Field] = append(byField[p.Field], p)
	}
	var errs []report.Error
	for _, spec := range specs {
		errs = append(errs, CheckField(spec, byField[spec.Name])...)
	}
	return errs
}

// CheckField applies one spec to the parts sent for its field.
func CheckField(spec FileSpec, parts []Part) []report.Error {
	at := fieldpath.New(string(report.LocationFiles), spec.Name)
	if len(parts) == 0 {
		if !spec.Required {
			return nil
		}
		return []report.Error{newError(at, report.CodeMissingFile, nil,
			map[string]any{"input": "required"}, "Field required")}
	}

	var errs []report.Error
	for i, p := range parts {
		path := at
		if len(parts) > 1 {
			path = at.Index(i)
		}
		errs = append(errs, checkPart(spec, p, path)...)
	}
	return errs
}

func checkPart(spec FileSpec, p Part, at fieldpath.Path) []report.Error {
	var errs []report.Error
	add := func(code report.Code, ctx map[string]any, format string, args ...any) {
		errs = append(errs, newError(at, code, p.Filename, ctx, format, args...))
	}

	declared := p.MediaType()
	if !spec.ContentTypes.Allows(declared) {
		add(report.CodeUnsupportedContentType,
			map[string]any{"allowed_types": []string(spec.ContentTypes), "provided_type": declared},
			"Invalid content type '%s'. Allowed types: %s", declared, spec.ContentTypes)
	}

	m, err := p.measure(spec.MaxSize)
	if err != nil {
		add(report.CodeMissingFile, map[string]any{"error": err.Error()}, "File could not be read")
		return errs
	}

	if spec.ValidateMagicNumbers && m.size > 0 {
		if detected := Sniff(m.prefix); detected != "" && detected != canonical(declared) {
			add(report.CodeContentTypeSpoofed,
				map[string]any{"declared_mime": declared, "detected_type": detected, "magic_bytes": fmt.Sprintf("%x", m.prefix[:min(len(m.prefix), 8)])},
				"File type mismatch: MIME type is %s but magic numbers indicate %s", declared, detected)
		}
	}

	switch {
	case m.size == 0 && spec.assertsContent():
		add(report.CodeEmptyFile, map[string]any{"buffer_size": 0}, "File buffer is empty")
	case m.truncated:
		add(report.CodeTooLarge, map[string]any{"max_size": spec.MaxSize},
			"File too large. Maximum size is %d bytes", spec.MaxSize)
	case spec.MinSize > 0 && m.size < spec.MinSize:
		add(report.CodeTooSmall, map[string]any{"min_size": spec.MinSize, "file_size": m.size},
			"File too small. Minimum size is %d bytes", spec.MinSize)
	}
	return errs
}

func newError(at fieldpath.Path, code report.Code, value any, ctx map[string]any, format string, args ...any) report.Error {
	return report.Error{
		Location: report.LocationFiles,
		Path:     at,
		Kind:     code.Kind(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Value:    value,
		Context:  ctx,
		Severity: report.SeverityError,
	}
}
