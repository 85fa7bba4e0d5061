package fieldpath

import (
	"strconv"
	"strings"
)

type segment struct {
	name    string
	index   int
	isIndex bool
}

// Path is an immutable field address made of named and indexed segments.
// The zero value is the empty path.
type Path struct {
	segments []segment
}

// New returns a path made of the given named segments.
func New(names ...string) Path {
	segs := make([]segment, len(names))
	for i, n := range names {
		segs[i] = segment{name: n}
	}
	return Path{segments: segs}
}

// Child returns a new path with a named segment appended.
func (p Path) Child(name string) Path {
	return p.with(segment{name: name})
}

// Index returns a new path with an array index segment appended.
func (p Path) Index(i int) Path {
	return p.with(segment{index: i, isIndex: true})
}

func (p Path) with(s segment) Path {
	segs := make([]segment, len(p.segments)+1)
	copy(segs, p.segments)
	segs[len(p.segments)] = s
	return Path{segments: segs}
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsZero reports whether the path has no segments.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Root returns the first named segment, or "" for an empty path.
func (p Path) Root() string {
	if len(p.segments) == 0 || p.segments[0].isIndex {
		return ""
	}
	return p.segments[0].name
}

// Last returns the final named segment, or "" when the path is empty or
// ends with an index.
func (p Path) Last() string {
	if len(p.segments) == 0 {
		return ""
	}
	last := p.segments[len(p.segments)-1]
	if last.isIndex {
		return ""
	}
	return last.name
}

// Loc returns the segments as strings and ints, in the shape used by
// the "loc" member of rendered error details.
func (p Path) Loc() []any {
	loc := make([]any, len(p.segments))
	for i, s := range p.segments {
		if s.isIndex {
			loc[i] = s.index
		} else {
			loc[i] = s.name
		}
	}
	return loc
}

// String renders the dotted form, with indexes in brackets.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range p.segments {
		if s.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.name)
	}
	return b.String()
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q.segments) > len(p.segments) {
		return false
	}
	for i, s := range q.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}
