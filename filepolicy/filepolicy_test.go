package filepolicy

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/reqbind/report"
)

var (
	pdfBytes  = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj")
	pngBytes  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
)

func codes(errs []report.Error) []report.Code {
	out := make([]report.Code, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"png", pngBytes, "image/png"},
		{"jpeg", jpegBytes, "image/jpeg"},
		{"gif89a", []byte("GIF89a\x01\x00"), "image/gif"},
		{"gif87a", []byte("GIF87a\x01\x00"), "image/gif"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"riff wave is not webp", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), ""},
		{"pdf", pdfBytes, "application/pdf"},
		{"zip", []byte("PK\x03\x04\x14\x00"), "application/zip"},
		{"rar", []byte("Rar!\x1a\x07\x00"), "application/x-rar-compressed"},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, "application/gzip"},
		{"plain text", []byte("hello, world"), ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.content))
		})
	}
}

func TestCheck_PDFSpoofing(t *testing.T) {
	spec := FileSpec{Name: "document", Required: true, ValidateMagicNumbers: true}

	ok := Check([]FileSpec{spec}, []Part{{Field: "document", Filename: "a.pdf", ContentType: "application/pdf", Content: pdfBytes}})
	assert.Empty(t, ok)

	spoofed := Check([]FileSpec{spec}, []Part{{Field: "document", Filename: "a.png", ContentType: "image/png", Content: pdfBytes}})
	require.Len(t, spoofed, 1)
	e := spoofed[0]
	assert.Equal(t, report.CodeContentTypeSpoofed, e.Code)
	assert.Equal(t, report.KindFile, e.Kind)
	assert.Equal(t, report.LocationFiles, e.Location)
	assert.Equal(t, "files.document", e.Field())
	assert.Equal(t, "application/pdf", e.Context["detected_type"])
	assert.Equal(t, "image/png", e.Context["declared_mime"])
}

func TestCheck_SpoofIsDistinctFromUnsupported(t *testing.T) {
	spec := FileSpec{Name: "image", ContentTypes: MediaTypes{"image/jpeg"}, ValidateMagicNumbers: true}
	errs := Check([]FileSpec{spec}, []Part{{Field: "image", ContentType: "image/jpeg", Content: pngBytes}})
	assert.Equal(t, []report.Code{report.CodeContentTypeSpoofed}, codes(errs))

	errs = Check([]FileSpec{spec}, []Part{{Field: "image", ContentType: "image/png", Content: pngBytes}})
	assert.Equal(t, []report.Code{report.CodeUnsupportedContentType}, codes(errs))
}

func TestCheck_UnknownSignaturePasses(t *testing.T) {
	spec := FileSpec{Name: "notes", ValidateMagicNumbers: true}
	assert.Empty(t, Check([]FileSpec{spec}, []Part{{Field: "notes", ContentType: "text/plain", Content: []byte("just text")}}))
}

func TestCheck_ContentTypes(t *testing.T) {
	tests := []struct {
		name    string
		allowed MediaTypes
		partCT  string
		ok      bool
	}{
		{"exact", MediaTypes{"image/png"}, "image/png", true},
		{"parameters ignored", MediaTypes{"text/plain"}, "text/plain; charset=utf-8", true},
		{"case insensitive", MediaTypes{"image/png"}, "IMAGE/PNG", true},
		{"jpg alias", MediaTypes{"image/jpeg"}, "image/jpg", true},
		{"wildcard", MediaTypes{"image/*"}, "image/webp", true},
		{"not listed", MediaTypes{"image/png"}, "image/jpeg", false},
		{"declared wildcard", MediaTypes{"image/png"}, "image/*", false},
		{"missing defaults to octet-stream", MediaTypes{"application/octet-stream"}, "", true},
		{"empty allow-list", nil, "application/x-anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := FileSpec{Name: "f", ContentTypes: tt.allowed}
			errs := Check([]FileSpec{spec}, []Part{{Field: "f", ContentType: tt.partCT, Content: []byte("x")}})
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, report.CodeUnsupportedContentType, errs[0].Code)
		})
	}
}

func TestCheck_Required(t *testing.T) {
	specs := []FileSpec{{Name: "avatar", Required: true}, {Name: "optional"}}
	errs := Check(specs, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, report.CodeMissingFile, errs[0].Code)
	assert.Equal(t, "files.avatar", errs[0].Field())
	assert.Equal(t, "Field required", errs[0].Message)
}

func TestCheck_EmptyBuffer(t *testing.T) {
	spec := FileSpec{Name: "file", Required: true, ValidateMagicNumbers: true}
	errs := Check([]FileSpec{spec}, []Part{{Field: "file", Filename: "empty.txt", ContentType: "text/plain"}})

	require.Len(t, errs, 1)
	assert.Equal(t, report.CodeEmptyFile, errs[0].Code)
	assert.Equal(t, "files.file", errs[0].Field())
	assert.Equal(t, "File buffer is empty", errs[0].Message)
	assert.Equal(t, map[string]any{"buffer_size": 0}, errs[0].Context)
}

func TestCheck_Sizes(t *testing.T) {
	tests := []struct {
		name    string
		spec    FileSpec
		content []byte
		want    []report.Code
	}{
		{"empty allowed by default", FileSpec{Name: "f"}, nil, nil},
		{"empty with non_empty", FileSpec{Name: "f", NonEmpty: true}, nil, []report.Code{report.CodeEmptyFile}},
		{"empty with min_size", FileSpec{Name: "f", MinSize: 10}, []byte{}, []report.Code{report.CodeEmptyFile}},
		{"empty with required magic check", FileSpec{Name: "f", Required: true, ValidateMagicNumbers: true}, []byte{}, []report.Code{report.CodeEmptyFile}},
		{"empty with optional magic check", FileSpec{Name: "f", ValidateMagicNumbers: true}, nil, nil},
		{"too small", FileSpec{Name: "f", MinSize: 10}, []byte("abc"), []report.Code{report.CodeTooSmall}},
		{"at max", FileSpec{Name: "f", MaxSize: 3}, []byte("abc"), nil},
		{"over max", FileSpec{Name: "f", MaxSize: 3}, []byte("abcd"), []report.Code{report.CodeTooLarge}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Check([]FileSpec{tt.spec}, []Part{{Field: "f", Content: tt.content}})
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, codes(errs))
		})
	}
}

// countingReader records how many bytes were pulled from it.
type countingReader struct {
	r    io.Reader
	read int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

func (c *countingReader) Close() error { return nil }

func TestCheck_StreamingStopsPastLimit(t *testing.T) {
	src := &countingReader{r: bytes.NewReader(make([]byte, 1<<20))}
	part := Part{Field: "blob", Open: func() (io.ReadCloser, error) { return src, nil }}

	errs := Check([]FileSpec{{Name: "blob", MaxSize: 1024}}, []Part{part})
	assert.Equal(t, []report.Code{report.CodeTooLarge}, codes(errs))
	assert.Equal(t, 1025, src.read)
}

func TestCheck_OpenFailure(t *testing.T) {
	part := Part{Field: "blob", Open: func() (io.ReadCloser, error) { return nil, errors.New("gone") }}
	errs := Check([]FileSpec{{Name: "blob"}}, []Part{part})
	require.Len(t, errs, 1)
	assert.Equal(t, "gone", errs[0].Context["error"])
}

func TestCheck_MultiplePartsIndexed(t *testing.T) {
	spec := FileSpec{Name: "photos", MaxSize: 2}
	parts := []Part{
		{Field: "photos", Content: []byte("ok")},
		{Field: "photos", Content: []byte("too big")},
		{Field: "unrelated", Content: []byte("ignored")},
	}
	errs := Check([]FileSpec{spec}, parts)
	require.Len(t, errs, 1)
	assert.Equal(t, "files.photos[1]", errs[0].Field())
}

func TestCheck_DeclarationOrder(t *testing.T) {
	specs := []FileSpec{{Name: "b", Required: true}, {Name: "a", Required: true}}
	errs := Check(specs, nil)
	require.Len(t, errs, 2)
	assert.Equal(t, "files.b", errs[0].Field())
	assert.Equal(t, "files.a", errs[1].Field())
}

func TestFileSpec_UnmarshalYAML(t *testing.T) {
	var single FileSpec
	require.NoError(t, yaml.Unmarshal([]byte(`{name: doc, content_type: application/pdf, validate_magic_numbers: true, max_size: 1048576}`), &single))
	assert.Equal(t, MediaTypes{"application/pdf"}, single.ContentTypes)
	assert.True(t, single.ValidateMagicNumbers)
	assert.Equal(t, int64(1048576), single.MaxSize)

	var list FileSpec
	require.NoError(t, yaml.Unmarshal([]byte(`
name: image
required: true
content_type: [image/png, image/jpeg]
min_size: 1
`), &list))
	assert.Equal(t, MediaTypes{"image/png", "image/jpeg"}, list.ContentTypes)
	assert.Equal(t, "image/png, image/jpeg", list.ContentTypes.String())

	var bad FileSpec
	assert.Error(t, yaml.Unmarshal([]byte(`{name: x, content_type: {a: b}}`), &bad))
}

func TestFileSpec_Validate(t *testing.T) {
	assert.NoError(t, FileSpec{Name: "ok", ContentTypes: MediaTypes{"image/*"}, MinSize: 1, MaxSize: 2}.Validate())
	assert.Error(t, FileSpec{}.Validate())
	assert.Error(t, FileSpec{Name: "x", MinSize: 5, MaxSize: 2}.Validate())
	assert.Error(t, FileSpec{Name: "x", MaxSize: -1}.Validate())
	assert.Error(t, FileSpec{Name: "x", ContentTypes: MediaTypes{"nonsense"}}.Validate())
}
