// Package report collects the violations found while binding one request
// into an ordered, field-addressed error report.
//
// Binding is never fail-fast. Every stage adds what it finds to an
// [Aggregator], and [Aggregator.Report] returns the errors ordered by
// location (path, query, header, cookie, body, files) and, within each
// location, in the order they were added:
//
//	var agg report.Aggregator
//	agg.Add(report.Error{
//	    Location: report.LocationQuery,
//	    Path:     fieldpath.New("query", "limit"),
//	    Kind:     report.KindConstraint,
//	    Code:     report.CodeExclusiveMinimum,
//	    Message:  "value must be greater than 0",
//	})
//	if rep := agg.Report(); rep != nil {
//	    return rep // *Report implements error
//	}
//
// # Rendering
//
// A [Report] marshals to a problem-details document whose "errors" member
// holds FastAPI-style entries:
//
//	{
//	  "type": "urn:reqbind:problem:validation-error",
//	  "title": "Request Validation Failed",
//	  "status": 422,
//	  "detail": "1 validation error in request",
//	  "errors": [{"type":"greater_than","loc":["query","limit"],"msg":"...","input":0,"ctx":{"gt":0}}]
//	}
//
// [Report.HTTPStatus] maps a report to 400 when the body could not be parsed
// at all, to 413 when an upload is over its size limit and to 422 otherwise.
package report
