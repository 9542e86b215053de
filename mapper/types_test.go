package mapper_test

import (
	"math"
	"testing"
	"time"

	"github.com/reoring/restkit/mapper"
)

func TestNumber_Coercion(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"123", 123},
		{" 12.5\n", 12.5},
		{"", 0},
		{"0x1f", 31},
		{"0b101", 5},
		{"1e3", 1000},
		{"-Infinity", math.Inf(-1)},
		{true, 1},
		{false, 0},
		{7, 7},
		{int64(-3), -3},
		{uint8(4), 4},
		{float32(1.5), 1.5},
	}
	for _, c := range cases {
		v, ok := mapper.Number.Encode(c.in)
		if !ok {
			t.Fatalf("Number.Encode(%#v) produced no value", c.in)
		}
		if v.(float64) != c.want {
			t.Fatalf("Number.Encode(%#v) = %v, want %v", c.in, v, c.want)
		}
	}
}

func TestNumber_NaN(t *testing.T) {
	for _, in := range []any{map[string]any{}, []any{}, "abc", "1_000", "12px", time.Now(), "NaN", "inf"} {
		v, ok := mapper.Number.Decode(in)
		if !ok {
			t.Fatalf("Number.Decode(%#v) should keep NaN as a value", in)
		}
		if !math.IsNaN(v.(float64)) {
			t.Fatalf("Number.Decode(%#v) = %v, want NaN", in, v)
		}
	}
}

func TestString_Coercion(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{123, "123"},
		{float64(123), "123"},
		{1.5, "1.5"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{true, "true"},
		{"x", "x"},
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{1, "b"}, `[1,"b"]`},
		{time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), "2025-01-02T03:04:05.000Z"},
	}
	for _, c := range cases {
		v, ok := mapper.String.Encode(c.in)
		if !ok || v != c.want {
			t.Fatalf("String.Encode(%#v) = %#v, want %q", c.in, v, c.want)
		}
	}
}

func TestBool_Coercion(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{"true", true},
		{"false", false},
		{"no", true},
		{"", false},
		{0, false},
		{float64(0), false},
		{math.NaN(), false},
		{2, true},
		{[]any{}, true},
		{map[string]any{}, true},
		{time.Unix(0, 0), true},
		{false, false},
	}
	for _, c := range cases {
		v, ok := mapper.Bool.Encode(c.in)
		if !ok || v != c.want {
			t.Fatalf("Bool.Encode(%#v) = %#v, want %v", c.in, v, c.want)
		}
	}
}

func TestDateTime_EncodeDecode(t *testing.T) {
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	v, ok := mapper.DateTime.Encode("2025-01-01T00:00:00Z")
	if !ok || !v.(time.Time).Equal(want) {
		t.Fatalf("DateTime.Encode = %v, %v", v, ok)
	}
	v, ok = mapper.DateTime.Encode(float64(want.UnixMilli()))
	if !ok || !v.(time.Time).Equal(want) {
		t.Fatalf("DateTime.Encode(millis) = %v, %v", v, ok)
	}
	s, ok := mapper.DateTime.Decode(want)
	if !ok || s != "2025-01-01T00:00:00.000Z" {
		t.Fatalf("DateTime.Decode = %v, %v", s, ok)
	}
	for _, bad := range []any{true, map[string]any{}, "yesterday"} {
		if _, ok := mapper.DateTime.Encode(bad); ok {
			t.Fatalf("DateTime.Encode(%#v) should produce no value", bad)
		}
		if _, ok := mapper.DateTime.Decode(bad); ok {
			t.Fatalf("DateTime.Decode(%#v) should produce no value", bad)
		}
	}
}

func TestTypes_NilIsNoValue(t *testing.T) {
	for _, typ := range []*mapper.Type{mapper.Number, mapper.String, mapper.Bool, mapper.DateTime} {
		if _, ok := typ.Encode(nil); ok {
			t.Fatalf("%s.Encode(nil) should produce no value", typ.Name())
		}
		if _, ok := typ.Decode(nil); ok {
			t.Fatalf("%s.Decode(nil) should produce no value", typ.Name())
		}
	}
}
