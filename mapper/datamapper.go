package mapper

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/reoring/restkit"
)

// DataMapper binds one strategy to encode/decode entry points. It holds no
// other state and is safe for concurrent use.
type DataMapper struct {
	strategy *Strategy
}

// NewDataMapper binds s. A nil strategy maps everything to an empty object.
func NewDataMapper(s *Strategy) *DataMapper {
	return &DataMapper{strategy: s}
}

// Strategy returns the bound strategy.
func (m *DataMapper) Strategy() *Strategy { return m.strategy }

// Encode maps a decoded-side source to its encoded form.
func (m *DataMapper) Encode(src any) restkit.Object { return Map(src, m.strategy) }

// Decode maps an encoded-side source to its decoded form.
func (m *DataMapper) Decode(src any) restkit.Object { return ReverseMap(src, m.strategy) }

// Typed wraps a DataMapper with Go types for both sides. E is the encoded
// shape and D the decoded shape; both are filled from the mapper's objects
// through JSON, so struct fields follow their json tags.
type Typed[E, D any] struct {
	m *DataMapper
}

// NewTyped wraps m.
func NewTyped[E, D any](m *DataMapper) Typed[E, D] {
	return Typed[E, D]{m: m}
}

// Mapper returns the wrapped DataMapper.
func (t Typed[E, D]) Mapper() *DataMapper { return t.m }

// Encode converts src (a D, an Object or anything JSON-shaped) to E.
func (t Typed[E, D]) Encode(src any) (E, error) {
	var zero E
	obj, err := ToObject(src)
	if err != nil {
		return zero, err
	}
	return FromObject[E](t.m.Encode(obj))
}

// Decode converts src (an E, an Object or anything JSON-shaped) to D.
func (t Typed[E, D]) Decode(src any) (D, error) {
	var zero D
	obj, err := ToObject(src)
	if err != nil {
		return zero, err
	}
	return FromObject[D](t.m.Decode(obj))
}

// ToObject converts v to an Object. Objects are returned as is; structs and
// other values go through JSON and must encode as a JSON object.
func ToObject(v any) (restkit.Object, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	case restkit.Meta:
		return map[string]any(t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mapper: convert %T to object: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("mapper: convert %T to object: %w", v, err)
	}
	obj, ok := out.(map[string]any)
	if !ok {
		if out == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("mapper: %T does not encode as an object", v)
	}
	return obj, nil
}

// FromObject fills a T from obj. When T is Object itself obj is returned
// without copying.
func FromObject[T any](obj restkit.Object) (T, error) {
	var out T
	if p, ok := any(&out).(*restkit.Object); ok {
		*p = obj
		return out, nil
	}
	b, err := json.Marshal(JSONSafe(obj))
	if err != nil {
		return out, fmt.Errorf("mapper: convert object to %T: %w", out, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("mapper: convert object to %T: %w", out, err)
	}
	return out, nil
}

// Convert returns v as a T, directly when it already is one and through JSON
// otherwise. NaN and infinite numbers convert as null, leaving the zero value
// in the target.
func Convert[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out T
	b, err := json.Marshal(JSONSafe(v))
	if err != nil {
		return out, fmt.Errorf("mapper: convert %T to %T: %w", v, out, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("mapper: convert %T to %T: %w", v, out, err)
	}
	return out, nil
}

// JSONSafe returns v with every NaN or infinite float replaced by nil, so the
// result always marshals as JSON. Objects and arrays holding such values are
// copied; v itself is never modified.
func JSONSafe(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	case float32:
		if f := float64(t); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case restkit.Object:
		if t == nil {
			return t
		}
		out := make(restkit.Object, len(t))
		for k, e := range t {
			out[k] = JSONSafe(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = JSONSafe(e)
		}
		return out
	case []restkit.Object:
		if t == nil {
			return t
		}
		out := make([]restkit.Object, len(t))
		for i, e := range t {
			out[i], _ = JSONSafe(e).(restkit.Object)
		}
		return out
	}
	return v
}
