package mapper

import (
	"sort"

	"github.com/reoring/restkit"
)

// TransformFunc converts one attribute. whole is the source object the
// attribute was read from, so a transform may consult sibling fields.
type TransformFunc func(v any, whole map[string]any) (any, bool)

// Rule is one entry of a strategy: how the attribute stored under an encoded
// key relates to the decoded side.
type Rule interface {
	ToAttr(key string) Attr
}

// Rename copies the attribute to and from the decoded-side path it names,
// without conversion.
type Rename string

// ToAttr implements Rule.
func (r Rename) ToAttr(string) Attr { return Attr{Path: string(r)} }

// Attr is a rule with a decoded-side path and optional transforms. An empty
// Path means the decoded side uses the same key.
type Attr struct {
	Path   string
	Encode TransformFunc
	Decode TransformFunc
}

// ToAttr implements Rule.
func (a Attr) ToAttr(key string) Attr {
	if a.Path == "" {
		a.Path = key
	}
	return a
}

// Rules maps encoded-side keys (dotted for nesting) to rules.
type Rules map[string]Rule

type attr struct {
	key    Path
	path   Path
	encode TransformFunc
	decode TransformFunc
}

// Strategy is a compiled, immutable set of rules. It is safe for concurrent
// use.
type Strategy struct {
	attrs []attr
}

// NewStrategy resolves every rule and parses both paths once. Keys and paths
// with empty segments are reported as restkit.Issues.
func NewStrategy(rules Rules) (*Strategy, error) {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var iss restkit.Issues
	s := &Strategy{attrs: make([]attr, 0, len(keys))}
	for _, k := range keys {
		rule := rules[k]
		key := ParsePath(k)
		if !key.Valid() {
			iss = restkit.AppendIssues(iss, restkit.IssueAt(k, restkit.CodeInvalidPath, "key", k))
			continue
		}
		if rule == nil {
			iss = restkit.AppendIssues(iss, restkit.IssueAt(k, restkit.CodeInvalidType))
			continue
		}
		if r, ok := rule.(Rename); ok && r == "" {
			iss = restkit.AppendIssues(iss, restkit.IssueAt(k, restkit.CodeInvalidPath, "key", ""))
			continue
		}
		a := rule.ToAttr(k)
		path := ParsePath(a.Path)
		if !path.Valid() {
			iss = restkit.AppendIssues(iss, restkit.IssueAt(k, restkit.CodeInvalidPath, "key", a.Path))
			continue
		}
		s.attrs = append(s.attrs, attr{key: key, path: path, encode: a.Encode, decode: a.Decode})
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return s, nil
}

// MustStrategy is NewStrategy for package-level strategies; it panics on
// malformed rules.
func MustStrategy(rules Rules) *Strategy {
	s, err := NewStrategy(rules)
	if err != nil {
		panic("mapper: " + err.Error())
	}
	return s
}

// Keys returns the encoded-side keys in iteration order.
func (s *Strategy) Keys() []string {
	out := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.key.String()
	}
	return out
}

// Paths returns the decoded-side path for every encoded-side key.
func (s *Strategy) Paths() map[string]string {
	out := make(map[string]string, len(s.attrs))
	for _, a := range s.attrs {
		out[a.key.String()] = a.path.String()
	}
	return out
}

// Encode maps a nested object through s. It makes a strategy usable as an
// ArrayOf element.
func (s *Strategy) Encode(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	return Map(v, s), true
}

// Decode reverse-maps a nested object through s.
func (s *Strategy) Decode(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	return ReverseMap(v, s), true
}

// ToAttr makes a strategy usable directly as a rule: the attribute under key
// is a nested object shaped by s.
func (s *Strategy) ToAttr(key string) Attr { return ShapeOf(s).AsAttrMap(key) }
