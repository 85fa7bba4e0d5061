// Package severity provides the severity levels attached to entries of a
// validation report.
//
// Levels are ordered from least to most severe: Info < Warning < Error.
// Only errors reject a request; warnings and info entries ride along with a
// successfully bound parameter set.
package severity

// Severity indicates how serious a reported entry is.
type Severity int

const (
	// SeverityError rejects the request.
	SeverityError Severity = iota

	// SeverityWarning flags input that was accepted but looks suspicious,
	// such as an undeclared query parameter outside strict mode.
	SeverityWarning

	// SeverityInfo is a non-actionable notice.
	SeverityInfo
)

// String returns the lowercase name of the level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Symbol returns the single-character marker used in text output.
func (s Severity) Symbol() string {
	switch s {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	case SeverityInfo:
		return "ℹ"
	default:
		return "?"
	}
}

// Rejects reports whether entries at this level reject a request.
func (s Severity) Rejects() bool {
	return s == SeverityError
}
