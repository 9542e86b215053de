package mapper

import (
	"math"
	"reflect"
)

// DefaultEntityKey is the key used by the entity-key combinators when none is
// given.
const DefaultEntityKey = "id"

// ArrayOf maps every element of a slice through elem. A value that is not a
// slice is wrapped into a one-element slice without being mapped. Empty
// slices, and any slice when elem is nil, pass through unchanged. Elements for
// which elem produces no value become nil.
func ArrayOf(elem Method) *Type {
	name := "arrayOf"
	if n, ok := elem.(interface{ Name() string }); ok {
		name = "arrayOf(" + n.Name() + ")"
	}
	return NewType(name,
		func(v any) (any, bool) { return mapSlice(v, elem, Method.Encode) },
		func(v any) (any, bool) { return mapSlice(v, elem, Method.Decode) },
	)
}

func mapSlice(v any, elem Method, dir func(Method, any) (any, bool)) (any, bool) {
	items, ok := asSlice(v)
	if !ok {
		return []any{v}, true
	}
	if len(items) == 0 || elem == nil {
		return v, true
	}
	out := make([]any, len(items))
	for i, item := range items {
		if r, ok := dir(elem, item); ok {
			out[i] = r
		}
	}
	return out, true
}

// asSlice reports whether v is array-shaped and returns its elements.
// Strings and byte slices are scalars here.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ShapeOf applies shape to a single nested object. Zero-like values (0, "",
// false, NaN) and a nil shape pass through unchanged.
func ShapeOf(shape *Strategy) *Type {
	return NewType("shapeOf",
		func(v any) (any, bool) { return nest(v, shape, Map) },
		func(v any) (any, bool) { return nest(v, shape, ReverseMap) },
	)
}

// DecodeEntityKey nests a full object through shape when encoding and
// collapses an object to its key member when decoding. This fits wire
// formats that only carry a foreign key while the application model holds
// the related entity. An empty key means DefaultEntityKey.
func DecodeEntityKey(key string, shape *Strategy) *Type {
	key = entityKey(key)
	return NewType("decodeEntityKey",
		func(v any) (any, bool) { return nest(v, shape, Map) },
		func(v any) (any, bool) { return collapse(v, key) },
	)
}

// EncodeEntityKey is the mirror of DecodeEntityKey: encoding collapses to the
// key member and decoding expands through shape.
func EncodeEntityKey(key string, shape *Strategy) *Type {
	key = entityKey(key)
	return NewType("encodeEntityKey",
		func(v any) (any, bool) { return collapse(v, key) },
		func(v any) (any, bool) { return nest(v, shape, ReverseMap) },
	)
}

func entityKey(key string) string {
	if key == "" {
		return DefaultEntityKey
	}
	return key
}

func nest(v any, shape *Strategy, walk func(any, *Strategy) map[string]any) (any, bool) {
	if shape == nil || !Truthy(v) {
		return v, true
	}
	return walk(v, shape), true
}

func collapse(v any, key string) (any, bool) {
	return child(v, key)
}

// Truthy mirrors the falsy set that guards nested mapping and form encoding:
// nil, false, 0, NaN and the empty string. Everything else, including empty
// containers, is truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
