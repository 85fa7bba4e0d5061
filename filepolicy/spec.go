package filepolicy

import (
	"fmt"
	"strings"

	"github.com/elnormous/contenttype"
	"go.yaml.in/yaml/v4"
)

// FileSpec is the upload policy for one file field.
type FileSpec struct {
	// Name is the multipart form field name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Required rejects requests that carry no part for the field.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`
	// ContentTypes is the allow-list for the declared media type of a part.
	// Entries may use "type/*" wildcards. Empty allows any type.
	ContentTypes MediaTypes `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	// ValidateMagicNumbers compares the sniffed signature of the content
	// with the declared media type.
	ValidateMagicNumbers bool `yaml:"validate_magic_numbers,omitempty" json:"validate_magic_numbers,omitempty"`
	// MaxSize is the largest accepted part in bytes. Zero means no limit.
	MaxSize int64 `yaml:"max_size,omitempty" json:"max_size,omitempty"`
	// MinSize is the smallest accepted part in bytes. Zero means no limit.
	MinSize int64 `yaml:"min_size,omitempty" json:"min_size,omitempty"`
	// NonEmpty rejects zero-byte parts. A required field with magic number
	// validation rejects them too.
	NonEmpty bool `yaml:"non_empty,omitempty" json:"non_empty,omitempty"`
}

// assertsContent reports whether a zero-byte part violates the policy.
func (f FileSpec) assertsContent() bool {
	return f.NonEmpty || f.MinSize > 0 || (f.Required && f.ValidateMagicNumbers)
}

// Validate reports policy settings that can never be satisfied.
func (f FileSpec) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("file spec has no name")
	}
	if f.MaxSize < 0 || f.MinSize < 0 {
		return fmt.Errorf("file %q: sizes must not be negative", f.Name)
	}
	if f.MaxSize > 0 && f.MinSize > f.MaxSize {
		return fmt.Errorf("file %q: min_size %d exceeds max_size %d", f.Name, f.MinSize, f.MaxSize)
	}
	for _, ct := range f.ContentTypes {
		mt := contenttype.NewMediaType(ct)
		if mt.Type == "" || mt.Subtype == "" {
			return fmt.Errorf("file %q: invalid content type %q", f.Name, ct)
		}
	}
	return nil
}

// MediaTypes is a media-type allow-list. It decodes from a single string or
// a list of strings.
type MediaTypes []string

// UnmarshalYAML accepts a scalar or a sequence.
func (m *MediaTypes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return fmt.Errorf("content_type must be a string or a list: %w", err)
		}
		*m = MediaTypes{s}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return fmt.Errorf("content_type must be a string or a list: %w", err)
	}
	*m = list
	return nil
}

// String joins the allowed types with ", ".
func (m MediaTypes) String() string {
	return strings.Join(m, ", ")
}

// Allows reports whether the media type mt is in the allow-list. Parameters
// are ignored and image/jpg is treated as image/jpeg.
func (m MediaTypes) Allows(mt string) bool {
	if len(m) == 0 {
		return true
	}
	declared := parseMediaType(mt)
	if declared.Type == "" || declared.Type == "*" || declared.Subtype == "*" {
		return false
	}
	for _, allowed := range m {
		want := parseMediaType(allowed)
		if want.Matches(declared) {
			return true
		}
	}
	return false
}

// parseMediaType parses s, dropping parameters and normalizing aliases.
func parseMediaType(s string) contenttype.MediaType {
	mt := contenttype.NewMediaType(s)
	mt.Type = strings.ToLower(mt.Type)
	mt.Subtype = strings.ToLower(mt.Subtype)
	if mt.Type == "image" && mt.Subtype == "jpg" {
		mt.Subtype = "jpeg"
	}
	return contenttype.MediaType{Type: mt.Type, Subtype: mt.Subtype}
}

// essence returns "type/subtype" for s, or "" when s does not parse.
func essence(s string) string {
	mt := parseMediaType(s)
	if mt.Type == "" {
		return ""
	}
	return mt.Type + "/" + mt.Subtype
}
