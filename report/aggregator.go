package report

import "slices"

// Aggregator accumulates errors and warnings for one request.
// The zero value is ready to use. An Aggregator is not safe for concurrent use.
type Aggregator struct {
	errors   []Error
	warnings []Error
}

// Add records errors. Entries with a non-rejecting severity are kept as warnings.
func (a *Aggregator) Add(errs ...Error) {
	for _, e := range errs {
		if e.Severity.Rejects() {
			a.errors = append(a.errors, e)
		} else {
			a.warnings = append(a.warnings, e)
		}
	}
}

// AddWarning records e as a warning regardless of its severity.
func (a *Aggregator) AddWarning(e Error) {
	e.Severity = SeverityWarning
	a.warnings = append(a.warnings, e)
}

// Len returns the number of errors recorded so far.
func (a *Aggregator) Len() int {
	return len(a.errors)
}

// HasErrors reports whether any error has been recorded.
func (a *Aggregator) HasErrors() bool {
	return len(a.errors) > 0
}

// Errors returns the recorded errors in reporting order.
func (a *Aggregator) Errors() []Error {
	return ordered(a.errors)
}

// Warnings returns the recorded warnings in reporting order.
func (a *Aggregator) Warnings() []Error {
	return ordered(a.warnings)
}

// Report returns the ordered report, or nil when no error was recorded.
func (a *Aggregator) Report() *Report {
	if len(a.errors) == 0 {
		return nil
	}
	return &Report{
		Errors:   a.Errors(),
		Warnings: a.Warnings(),
	}
}

// ordered returns a copy of errs stably sorted by location rank, which keeps
// insertion order within one location.
func ordered(errs []Error) []Error {
	if len(errs) == 0 {
		return nil
	}
	out := slices.Clone(errs)
	slices.SortStableFunc(out, func(a, b Error) int {
		return a.Location.Order() - b.Location.Order()
	})
	return out
}
