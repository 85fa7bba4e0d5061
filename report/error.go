package report

import (
	"fmt"

	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/internal/severity"
)

// Severity levels for report entries.
type Severity = severity.Severity

// Severity constants re-exported for convenience.
const (
	SeverityError   = severity.SeverityError
	SeverityWarning = severity.SeverityWarning
	SeverityInfo    = severity.SeverityInfo
)

// Error is a single violation found while binding a request.
type Error struct {
	// Location is the request part the error refers to.
	Location Location
	// Path addresses the offending field, starting with the location,
	// e.g. ["body", "seller", "address", "city"].
	Path fieldpath.Path
	// Kind is the broad family of the failure.
	Kind Kind
	// Code names the rule that failed.
	Code Code
	// Message is a human-readable description.
	Message string
	// Value is the offending raw or coerced value. Nil when Redacted is set.
	Value any
	// Redacted is true when the value was withheld from Message and Value.
	Redacted bool
	// Context carries rule parameters such as {"gt": 0} or {"max_length": 10}.
	Context map[string]any
	// Severity is SeverityError unless the entry is a warning.
	Severity Severity
}

// Field returns the dotted field address, e.g. "body.tags[3]".
func (e Error) Field() string {
	return e.Path.String()
}

// String returns a one-line rendering prefixed by a severity symbol.
func (e Error) String() string {
	return fmt.Sprintf("%s %s: %s", e.Severity.Symbol(), e.Field(), e.Message)
}
