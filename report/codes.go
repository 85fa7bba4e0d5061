package report

// Location is the part of the request an error refers to.
type Location string

// Location constants, in reporting order.
const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationCookie Location = "cookie"
	LocationBody   Location = "body"
	LocationFiles  Location = "files"
)

// Locations lists every location in reporting order.
var Locations = []Location{
	LocationPath,
	LocationQuery,
	LocationHeader,
	LocationCookie,
	LocationBody,
	LocationFiles,
}

// Order returns the reporting rank of the location. Unknown locations sort last.
func (l Location) Order() int {
	for i, loc := range Locations {
		if loc == l {
			return i
		}
	}
	return len(Locations)
}

// Valid reports whether l is one of the known locations.
func (l Location) Valid() bool {
	return l.Order() < len(Locations)
}

// Kind groups codes into the broad families callers branch on.
type Kind int

const (
	// KindTypeMismatch means a raw value could not become the declared type.
	KindTypeMismatch Kind = iota
	// KindConstraint means a single keyword rule failed.
	KindConstraint
	// KindComposition means allOf/anyOf/oneOf/not/dependencies failed.
	KindComposition
	// KindFile means a multipart file part broke its file policy.
	KindFile
	// KindMalformedBody means the body could not be parsed at all.
	KindMalformedBody
	// KindUnexpected means input was present that the contract does not declare.
	KindUnexpected
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTypeMismatch:
		return "type_mismatch"
	case KindConstraint:
		return "constraint_violation"
	case KindComposition:
		return "composition"
	case KindFile:
		return "file"
	case KindMalformedBody:
		return "malformed_body"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Code identifies the specific rule that failed.
type Code string

// Type mismatch codes.
const (
	CodeTypeMismatch   Code = "type_mismatch"
	CodeNullNotAllowed Code = "null_not_allowed"
)

// Constraint codes, one per keyword.
const (
	CodeMinLength          Code = "min_length"
	CodeMaxLength          Code = "max_length"
	CodePattern            Code = "pattern"
	CodeFormat             Code = "format"
	CodeEnum               Code = "enum"
	CodeConst              Code = "const"
	CodeMinimum            Code = "minimum"
	CodeMaximum            Code = "maximum"
	CodeExclusiveMinimum   Code = "exclusive_minimum"
	CodeExclusiveMaximum   Code = "exclusive_maximum"
	CodeMultipleOf         Code = "multiple_of"
	CodeMinItems           Code = "min_items"
	CodeMaxItems           Code = "max_items"
	CodeUniqueItems        Code = "unique_items"
	CodeAdditionalProperty Code = "additional_property"
	CodeMissing            Code = "missing"
	CodeMinProperties      Code = "min_properties"
	CodeMaxProperties      Code = "max_properties"
)

// Composition codes.
const (
	CodeNoneMatched       Code = "none_matched"
	CodeNoMatch           Code = "no_match"
	CodeMultipleMatch     Code = "multiple_match"
	CodeUnexpectedMatch   Code = "unexpected_match"
	CodeMissingDependency Code = "missing_dependency"
)

// File policy codes.
const (
	CodeMissingFile            Code = "missing_file"
	CodeUnsupportedContentType Code = "unsupported_content_type"
	CodeContentTypeSpoofed     Code = "content_type_spoofed"
	CodeEmptyFile              Code = "empty_file"
	CodeTooLarge               Code = "too_large"
	CodeTooSmall               Code = "too_small"
)

// Body and binder codes.
const (
	CodeMalformedBody       Code = "malformed_body"
	CodeUnexpectedParameter Code = "unexpected_parameter"
)

// Kind returns the family a code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeTypeMismatch, CodeNullNotAllowed:
		return KindTypeMismatch
	case CodeNoneMatched, CodeNoMatch, CodeMultipleMatch, CodeUnexpectedMatch, CodeMissingDependency:
		return KindComposition
	case CodeMissingFile, CodeUnsupportedContentType, CodeContentTypeSpoofed,
		CodeEmptyFile, CodeTooLarge, CodeTooSmall:
		return KindFile
	case CodeMalformedBody:
		return KindMalformedBody
	case CodeUnexpectedParameter:
		return KindUnexpected
	default:
		return KindConstraint
	}
}
