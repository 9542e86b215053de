package mapper

import "github.com/reoring/restkit"

// Map produces the encoded form of decoded. For every attribute it reads the
// decoded-side dotted path, applies the attribute's encode transform, and
// writes the result at the encoded key. Attributes that produce no value or
// nil are omitted. Transforms only ever see decoded, never partial output, so
// the result does not depend on iteration order.
func Map(decoded any, s *Strategy) restkit.Object {
	out := restkit.Object{}
	if s == nil {
		return out
	}
	whole, _ := decoded.(map[string]any)
	for _, a := range s.attrs {
		v, ok := GetPath(decoded, a.path)
		if a.encode != nil {
			v, ok = a.encode(v, whole)
		}
		if ok && v != nil {
			SetPath(out, a.key, v)
		}
	}
	return out
}

// ReverseMap produces the decoded form of encoded. Encoded keys are read as
// literal top-level keys, even when they contain dots; results are written at
// the decoded-side dotted path.
func ReverseMap(encoded any, s *Strategy) restkit.Object {
	out := restkit.Object{}
	if s == nil {
		return out
	}
	whole, _ := encoded.(map[string]any)
	for _, a := range s.attrs {
		v, ok := child(encoded, a.key.String())
		if a.decode != nil {
			v, ok = a.decode(v, whole)
		}
		if ok && v != nil {
			SetPath(out, a.path, v)
		}
	}
	return out
}
