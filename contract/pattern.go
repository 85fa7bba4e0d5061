package contract

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// pathPattern matches request paths against a route template such as
// "/items/{item_id}".
type pathPattern struct {
	template string
	regex    *regexp.Regexp
	// names of the captured segments in order of appearance
	names []string
	// specificity ranks literal characters above captures
	specificity int
}

func compilePattern(template string) (*pathPattern, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("path template %q must start with /", template)
	}

	var buf strings.Builder
	buf.WriteString("^")
	var names []string
	specificity := 0

	for i := 0; i < len(template); {
		c := template[i]
		if c != '{' {
			if c == '}' {
				return nil, fmt.Errorf("unmatched } at position %d in path template %q", i, template)
			}
			buf.WriteString(regexp.QuoteMeta(string(c)))
			if c != '/' {
				specificity++
			}
			i++
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end == -1 {
			return nil, fmt.Errorf("unclosed path parameter at position %d in path template %q", i, template)
		}
		name := template[i+1 : i+end]
		if name == "" {
			return nil, fmt.Errorf("empty path parameter at position %d in path template %q", i, template)
		}
		if slices.Contains(names, name) {
			return nil, fmt.Errorf("duplicate path parameter %q in path template %q", name, template)
		}
		names = append(names, name)
		buf.WriteString("([^/]+)")
		specificity--
		i += end + 1
	}
	buf.WriteString("/?$")

	re, err := regexp.Compile(buf.String())
	if err != nil {
		return nil, fmt.Errorf("path template %q: %w", template, err)
	}
	return &pathPattern{template: template, regex: re, names: names, specificity: specificity}, nil
}

func (p *pathPattern) match(path string) (map[string]string, bool) {
	m := p.regex.FindStringSubmatch(path)
	if m == nil || len(m) != len(p.names)+1 {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

// morePrecise orders patterns so that literal paths win over captures,
// then longer templates over shorter ones.
func morePrecise(a, b *pathPattern) int {
	if a.specificity != b.specificity {
		return b.specificity - a.specificity
	}
	if len(a.template) != len(b.template) {
		return len(b.template) - len(a.template)
	}
	return strings.Compare(a.template, b.template)
}
