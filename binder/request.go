package binder

import (
	"fmt"
	"io"
	"net/http"

	"github.com/erraggy/reqbind/contract"
	"github.com/erraggy/reqbind/report"
)

// BindRequest binds an *http.Request to rc. pathParams are the segments
// captured by the router; when nil they are matched from the route's path
// template. The body is read up to the configured maximum size.
func (b *Binder) BindRequest(rc *contract.RouteContract, req *http.Request, pathParams map[string]string) (*ParameterSet, error) {
	in, err := b.InputFromRequest(rc, req, pathParams)
	if err != nil {
		return nil, err
	}
	return b.Bind(rc, in)
}

// InputFromRequest extracts an Input from req. An oversized body yields a
// *report.Report carrying a single malformed_body error.
func (b *Binder) InputFromRequest(rc *contract.RouteContract, req *http.Request, pathParams map[string]string) (*Input, error) {
	if req == nil {
		return nil, fmt.Errorf("binder: request cannot be nil")
	}
	if pathParams == nil && rc != nil && req.URL != nil {
		pathParams, _ = rc.MatchPath(req.URL.Path)
	}

	in := &Input{
		PathParams:  pathParams,
		Header:      req.Header,
		ContentType: req.Header.Get("Content-Type"),
	}
	if req.URL != nil {
		in.Query = req.URL.Query()
	}

	cookies := req.Cookies()
	if len(cookies) > 0 {
		in.Cookies = make(map[string]string, len(cookies))
		for _, c := range cookies {
			// first occurrence wins, as with http.Request.Cookie
			if _, seen := in.Cookies[c.Name]; !seen {
				in.Cookies[c.Name] = c.Value
			}
		}
	}

	if req.Body == nil || req.Body == http.NoBody {
		return in, nil
	}
	limit := b.cfg.maxBodySize
	body, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("binder: failed to read request body: %w", err)
	}
	if int64(len(body)) > limit {
		var agg report.Aggregator
		agg.Add(report.Error{
			Location: report.LocationBody,
			Path:     bodyPath,
			Kind:     report.KindMalformedBody,
			Code:     report.CodeMalformedBody,
			Message:  fmt.Sprintf("Request body exceeds %d bytes", limit),
			Context:  map[string]any{"max_size": limit},
			Severity: report.SeverityError,
		})
		return nil, agg.Report()
	}
	in.RawBody = body
	return in, nil
}
