package mapper

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/codec"
)

// Method converts one value in both directions. A false second result means
// the conversion produced no value; the interpreter then omits the attribute.
type Method = restkit.Method

// Func is one direction of a Type.
type Func func(v any) (any, bool)

// Type is a named pair of conversions. nil input never reaches the funcs:
// both directions report no value for it.
type Type struct {
	name   string
	encode Func
	decode Func
}

// NewType builds a Type. A nil func passes values through unchanged.
func NewType(name string, encode, decode Func) *Type {
	return &Type{name: name, encode: encode, decode: decode}
}

// Name returns the type name used in strategy files and diagnostics.
func (t *Type) Name() string { return t.name }

// Encode converts a decoded-side value to its encoded form.
func (t *Type) Encode(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	if t.encode == nil {
		return v, true
	}
	return t.encode(v)
}

// Decode converts an encoded-side value to its decoded form.
func (t *Type) Decode(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	if t.decode == nil {
		return v, true
	}
	return t.decode(v)
}

// AsAttrMap binds t to the decoded-side attribute at path.
func (t *Type) AsAttrMap(path string) Attr {
	return Attr{
		Path:   path,
		Encode: func(v any, _ map[string]any) (any, bool) { return t.Encode(v) },
		Decode: func(v any, _ map[string]any) (any, bool) { return t.Decode(v) },
	}
}

// ToAttr binds t to the same key on both sides.
func (t *Type) ToAttr(key string) Attr { return t.AsAttrMap(key) }

var (
	// Number converts with ECMAScript Number() semantics. Objects, arrays and
	// times yield NaN, which is kept rather than omitted.
	Number = NewType("number", toNumberValue, toNumberValue)

	// String converts scalars to their canonical text, objects and arrays to
	// JSON and times to ISO-8601.
	String = NewType("string", toStringValue, toStringValue)

	// Bool accepts the literals "true" and "false"; anything else is
	// converted by truthiness.
	Bool = NewType("bool", toBoolValue, toBoolValue)

	// DateTime encodes to time.Time and decodes to an ISO-8601 string with
	// millisecond precision. Values that are not times are dropped.
	DateTime = NewType("dateTime", encodeDateTime, decodeDateTime)
)

func toNumberValue(v any) (any, bool) { return ToNumber(v), true }
func toStringValue(v any) (any, bool) { return ToString(v), true }
func toBoolValue(v any) (any, bool)   { return ToBool(v), true }

func encodeDateTime(v any) (any, bool) {
	t, ok := codec.ParseTime(v)
	if !ok {
		return nil, false
	}
	return t, true
}

func decodeDateTime(v any) (any, bool) {
	t, ok := codec.ParseTime(v)
	if !ok {
		return nil, false
	}
	return codec.FormatISO(t), true
}

// ToNumber converts v to a float64. Unconvertible values yield NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseNumber(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case json.Number:
		return parseNumber(string(t))
	case time.Time, *time.Time:
		return math.NaN()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.String:
		return parseNumber(rv.String())
	}
	return math.NaN()
}

// parseNumber follows the StringToNumber grammar: surrounding whitespace is
// ignored, the empty string is zero, and 0x/0o/0b prefixes select a radix.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '+' && r != '-' {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// ToString converts v to text. Objects and arrays become JSON.
func ToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return FormatNumber(t)
	case float32:
		return FormatNumber(float64(t))
	case json.Number:
		return string(t)
	case []byte:
		return string(t)
	case time.Time:
		return codec.FormatISO(t)
	case *time.Time:
		if t != nil {
			return codec.FormatISO(*t)
		}
	case fmt.Stringer:
		return t.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return FormatNumber(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// FormatNumber renders f the way Number#toString does: no trailing ".0" for
// integral values, exponent form outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToBool converts v by truthiness, except the strings "true" and "false".
func ToBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch t {
		case "true":
			return true
		case "false":
			return false
		}
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case json.Number:
		f := parseNumber(string(t))
		return f != 0 && !math.IsNaN(f)
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
	case reflect.String:
		return rv.String() != ""
	case reflect.Bool:
		return rv.Bool()
	}
	return true
}
