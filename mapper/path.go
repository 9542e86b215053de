package mapper

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/restkit"
)

// Path is a parsed dotted attribute path. Strategies parse their paths once at
// construction.
type Path []string

// ParsePath splits s on '.'. The empty string yields a single empty segment,
// which never matches an existing key.
func ParsePath(s string) Path { return Path(strings.Split(s, ".")) }

// String joins the segments back with '.'.
func (p Path) String() string { return strings.Join(p, ".") }

// Valid reports whether every segment is non-empty.
func (p Path) Valid() bool {
	if len(p) == 0 {
		return false
	}
	for _, seg := range p {
		if seg == "" {
			return false
		}
	}
	return true
}

// Get reads the value at a dotted path. It reports false as soon as an
// intermediate key is missing or the current value is not a container; a
// present null yields (nil, true).
func Get(container any, path string) (any, bool) {
	return GetPath(container, ParsePath(path))
}

// GetPath is Get over a pre-parsed path.
func GetPath(container any, p Path) (any, bool) {
	cur := container
	for _, key := range p {
		next, ok := child(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// child looks up key as an own member of container: a map key or a slice
// index.
func child(container any, key string) (any, bool) {
	switch c := container.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case restkit.Meta:
		v, ok := c[key]
		return v, ok
	case []any:
		i, ok := index(key, len(c))
		if !ok {
			return nil, false
		}
		return c[i], true
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, false
		}
		i, ok := index(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func index(key string, n int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= n || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

// Set writes value at a dotted path, creating empty objects for missing
// intermediates. container is mutated in place and must be non-nil. It
// reports false, writing nothing, when an existing intermediate is not an
// object.
func Set(container restkit.Object, path string, value any) bool {
	return SetPath(container, ParsePath(path), value)
}

// SetPath is Set over a pre-parsed path.
func SetPath(container restkit.Object, p Path, value any) bool {
	if container == nil || len(p) == 0 {
		return false
	}
	// Check the whole walk first so a failed write leaves no partial
	// intermediates behind.
	cur := container
	depth := 0
	for ; depth < len(p)-1; depth++ {
		next, ok := cur[p[depth]]
		if !ok {
			break
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = m
	}
	for ; depth < len(p)-1; depth++ {
		m := restkit.Object{}
		cur[p[depth]] = m
		cur = m
	}
	cur[p[len(p)-1]] = value
	return true
}
