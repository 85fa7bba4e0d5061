package binder

import (
	"net/http"
	"net/url"

	"github.com/erraggy/reqbind/filepolicy"
	"github.com/erraggy/reqbind/report"
)

// Input is everything the transport layer extracted from one request.
type Input struct {
	// PathParams are the captured path segments, already percent-decoded.
	PathParams map[string]string
	// Query holds pre-split query values. When nil, RawQuery is parsed.
	Query    url.Values
	RawQuery string
	Header   http.Header
	Cookies  map[string]string

	// Body is a body the transport already parsed; set BodyParsed with it.
	Body       any
	BodyParsed bool
	// RawBody is decoded according to ContentType when Body is not parsed.
	RawBody     []byte
	ContentType string
	// Form holds pre-parsed form fields, bound as the body when RawBody is
	// empty.
	Form url.Values

	// Parts are uploaded files.
	Parts []filepolicy.Part
}

// ParameterSet is the fully bound result of one request.
type ParameterSet struct {
	Path   map[string]any
	Query  map[string]any
	Header map[string]any
	Cookie map[string]any
	Body   any
	Files  map[string][]filepolicy.Part

	// Warnings lists non-fatal findings such as undeclared parameters.
	Warnings []report.Error
}

func newParameterSet() *ParameterSet {
	return &ParameterSet{
		Path:   make(map[string]any),
		Query:  make(map[string]any),
		Header: make(map[string]any),
		Cookie: make(map[string]any),
		Files:  make(map[string][]filepolicy.Part),
	}
}

// Get returns the bound value of a parameter. For the body location, name
// is ignored and the whole body is returned.
func (p *ParameterSet) Get(loc report.Location, name string) (any, bool) {
	var m map[string]any
	switch loc {
	case report.LocationPath:
		m = p.Path
	case report.LocationQuery:
		m = p.Query
	case report.LocationHeader:
		m = p.Header
	case report.LocationCookie:
		m = p.Cookie
	case report.LocationBody:
		return p.Body, p.Body != nil
	case report.LocationFiles:
		parts, ok := p.Files[name]
		return parts, ok
	}
	v, ok := m[name]
	return v, ok
}

func (p *ParameterSet) bucket(loc report.Location) map[string]any {
	switch loc {
	case report.LocationPath:
		return p.Path
	case report.LocationQuery:
		return p.Query
	case report.LocationHeader:
		return p.Header
	default:
		return p.Cookie
	}
}
