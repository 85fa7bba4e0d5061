package formats

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erraggy/reqbind/binderrors"
)

// Error reports a value that does not conform to a format.
type Error struct {
	Format string
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Format)
	}
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Reason)
}

// Func validates one string value.
type Func func(value string) error

// Registry maps format names to validators. Register must not be called
// concurrently with lookups.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry holding the built-in formats.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func, len(builtins))}
	for name, fn := range builtins {
		r.funcs[name] = fn
	}
	return r
}

// Register adds or replaces a format.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Known reports whether name is a registered format.
func (r *Registry) Known(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks value against the named format.
func (r *Registry) Validate(format, value string) error {
	fn, ok := r.funcs[format]
	if !ok {
		return fmt.Errorf("%w: %q", binderrors.ErrUnknownFormat, format)
	}
	if fn == nil {
		return nil
	}
	return fn(value)
}

// Default is the registry used by the package-level helpers.
var Default = NewRegistry()

// Validate checks value against a format in the default registry.
func Validate(format, value string) error {
	return Default.Validate(format, value)
}

// Known reports whether the default registry has the named format.
func Known(name string) bool {
	return Default.Known(name)
}

var builtins = map[string]Func{
	"email":     validateEmail,
	"uuid":      validateUUID,
	"date":      validateDate,
	"date-time": validateDateTime,
	"time":      validateTime,
	"duration":  validateDuration,
	"decimal":   validateDecimal,
	"ipv4":      validateIPv4,
	"ipv6":      validateIPv6,
	"hostname":  validateHostname,
	"uri":       validateURI,
	"byte":      validateByte,

	// annotations only
	"binary":   nil,
	"password": nil,
	"int32":    nil,
	"int64":    nil,
	"float":    nil,
	"double":   nil,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(s string) error {
	if !emailRegex.MatchString(s) {
		return &Error{Format: "email", Reason: "expected local@domain"}
	}
	return nil
}

func validateUUID(s string) error {
	return ValidateUUID(s, 0)
}

// ValidateUUID checks that s is a canonical UUID. A non-zero version also
// requires the version nibble to match.
func ValidateUUID(s string, version int) error {
	if len(s) != 36 {
		return &Error{Format: "uuid", Reason: "expected 36 characters in 8-4-4-4-12 form"}
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return &Error{Format: "uuid", Reason: err.Error()}
	}
	if version != 0 && int(u.Version()) != version {
		return &Error{
			Format: "uuid",
			Reason: fmt.Sprintf("expected version %d, got version %d", version, u.Version()),
		}
	}
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return &Error{Format: "date", Reason: "expected a calendar date as YYYY-MM-DD"}
	}
	return nil
}

func validateDateTime(s string) error {
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		return &Error{Format: "date-time", Reason: "expected RFC 3339 date and time with offset"}
	}
	return nil
}

func validateTime(s string) error {
	for _, layout := range []string{"15:04:05Z07:00", time.TimeOnly} {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return &Error{Format: "time", Reason: "expected HH:MM:SS"}
}

var durationRegex = regexp.MustCompile(
	`^P(?:\d+(?:[.,]\d+)?Y)?(?:\d+(?:[.,]\d+)?M)?(?:\d+(?:[.,]\d+)?W)?(?:\d+(?:[.,]\d+)?D)?` +
		`(?:T(?:\d+(?:[.,]\d+)?H)?(?:\d+(?:[.,]\d+)?M)?(?:\d+(?:[.,]\d+)?S)?)?$`)

func validateDuration(s string) error {
	if s == "P" || strings.HasSuffix(s, "T") || !durationRegex.MatchString(s) {
		return &Error{Format: "duration", Reason: "expected ISO 8601 duration such as P3DT4H"}
	}
	return nil
}

var decimalRegex = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

func validateDecimal(s string) error {
	if !decimalRegex.MatchString(s) {
		return &Error{Format: "decimal", Reason: "expected a numeric literal"}
	}
	return nil
}

func validateIPv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return &Error{Format: "ipv4", Reason: "expected dotted-quad address"}
	}
	return nil
}

func validateIPv6(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Zone() != "" {
		return &Error{Format: "ipv6", Reason: "expected IPv6 address without zone"}
	}
	return nil
}

func validateHostname(s string) error {
	bad := &Error{Format: "hostname", Reason: "expected RFC 1123 host name"}
	if s == "" || len(s) > 253 {
		return bad
	}
	for label := range strings.SplitSeq(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return bad
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return bad
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
			if !isAlnum && c != '-' {
				return bad
			}
		}
	}
	return nil
}

func validateURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return &Error{Format: "uri", Reason: err.Error()}
	}
	if u.Scheme == "" {
		return &Error{Format: "uri", Reason: "expected an absolute URI with a scheme"}
	}
	if u.Opaque == "" && u.Host == "" && u.Path == "" {
		return &Error{Format: "uri", Reason: "expected content after the scheme"}
	}
	return nil
}

func validateByte(s string) error {
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return &Error{Format: "byte", Reason: "expected standard base64"}
	}
	return nil
}

// ValidateNumber bounds a numeric value for the int32 and int64 formats.
// Other formats are not checked.
func ValidateNumber(format string, n float64) error {
	switch format {
	case "int32":
		if n < math.MinInt32 || n > math.MaxInt32 {
			return &Error{Format: format, Reason: "out of 32-bit integer range"}
		}
	case "int64":
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return &Error{Format: format, Reason: "out of 64-bit integer range"}
		}
	}
	return nil
}
