package mapper_test

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/mapper"
)

func userStrategy() *mapper.Strategy {
	idTitle := mapper.MustStrategy(mapper.Rules{
		"id":    mapper.Number,
		"title": mapper.String,
	})
	return mapper.MustStrategy(mapper.Rules{
		"id":        mapper.Number,
		"nickname":  mapper.String,
		"isOnline":  mapper.Bool.AsAttrMap("is_online"),
		"createdAt": mapper.DateTime.AsAttrMap("created_at"),
		"states":    mapper.ArrayOf(mapper.String),
		"avatar": mapper.ShapeOf(mapper.MustStrategy(mapper.Rules{
			"id":  mapper.Number,
			"url": mapper.String,
		})),
		"city": mapper.DecodeEntityKey("", idTitle),
		"ticket": mapper.DecodeEntityKey("uuid", mapper.MustStrategy(mapper.Rules{
			"uuid":   mapper.String,
			"cinema": mapper.String,
		})),
		"roleId": mapper.EncodeEntityKey("", idTitle).AsAttrMap("role"),
		"customMap": mapper.Attr{
			Path: "custom_map",
			Encode: func(v any, _ map[string]any) (any, bool) {
				m, ok := v.(map[string]any)
				if !ok {
					return nil, false
				}
				return mapper.ToString(m["id"]) + "." + mapper.ToString(m["title"]), true
			},
			Decode: func(v any, _ map[string]any) (any, bool) {
				s, ok := v.(string)
				if !ok {
					return nil, false
				}
				id, title, _ := strings.Cut(s, ".")
				return map[string]any{"id": mapper.ToNumber(id), "title": title}, true
			},
		},
	})
}

func TestDataMapper_EncodeUser(t *testing.T) {
	m := mapper.NewDataMapper(userStrategy())
	got := m.Encode(restkit.Object{
		"id":         "1",
		"nickname":   float64(42),
		"is_online":  "false",
		"created_at": "2025-01-01T00:00:00.000Z",
		"states":     []any{float64(123), float64(2)},
		"avatar":     map[string]any{"id": "5", "url": "http://img"},
		"city":       map[string]any{"id": "3", "title": "Tokyo"},
		"ticket":     map[string]any{"uuid": float64(7), "cinema": "Odeon"},
		"role":       map[string]any{"id": float64(9), "title": "admin"},
		"custom_map": map[string]any{"id": float64(1), "title": "x"},
		"ignored":    true,
	})

	created, ok := got["createdAt"].(time.Time)
	if !ok || !created.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected createdAt: %#v", got["createdAt"])
	}
	delete(got, "createdAt")

	want := restkit.Object{
		"id":        float64(1),
		"nickname":  "42",
		"isOnline":  false,
		"states":    []any{"123", "2"},
		"avatar":    map[string]any{"id": float64(5), "url": "http://img"},
		"city":      map[string]any{"id": float64(3), "title": "Tokyo"},
		"ticket":    map[string]any{"uuid": "7", "cinema": "Odeon"},
		"roleId":    float64(9),
		"customMap": "1.x",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected encode result:\n got: %#v\nwant: %#v", got, want)
	}
}

func TestDataMapper_DecodeUser(t *testing.T) {
	m := mapper.NewDataMapper(userStrategy())
	got := m.Decode(restkit.Object{
		"id":        float64(1),
		"nickname":  "ann",
		"isOnline":  true,
		"createdAt": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"states":    []any{"a"},
		"avatar":    map[string]any{"id": float64(5), "url": "u"},
		"city":      map[string]any{"id": float64(3), "title": "Tokyo"},
		"ticket":    map[string]any{"uuid": "t-1", "cinema": "c"},
		"roleId":    map[string]any{"id": "9", "title": "admin"},
		"customMap": "1.x",
	})

	want := restkit.Object{
		"id":         float64(1),
		"nickname":   "ann",
		"is_online":  true,
		"created_at": "2025-01-01T00:00:00.000Z",
		"states":     []any{"a"},
		"avatar":     map[string]any{"id": float64(5), "url": "u"},
		"city":       float64(3),
		"ticket":     "t-1",
		"role":       map[string]any{"id": float64(9), "title": "admin"},
		"custom_map": map[string]any{"id": float64(1), "title": "x"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected decode result:\n got: %#v\nwant: %#v", got, want)
	}
}

func TestMap_NumberCoercion(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{"id": mapper.Number})
	if got := mapper.Map(restkit.Object{"id": "123"}, s)["id"]; got != float64(123) {
		t.Fatalf("id = %#v, want 123", got)
	}
	for _, in := range []any{map[string]any{}, []any{}} {
		got, ok := mapper.Map(restkit.Object{"id": in}, s)["id"]
		if !ok {
			t.Fatalf("NaN must be kept, not omitted")
		}
		if f, _ := got.(float64); !math.IsNaN(f) {
			t.Fatalf("id = %#v, want NaN", got)
		}
	}
}

func TestMap_BoolCoercion(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{"isOnline": mapper.Bool.AsAttrMap("is_online")})
	cases := []struct {
		in   any
		want bool
	}{
		{"false", false},
		{0, false},
		{[]any{}, true},
	}
	for _, c := range cases {
		got, ok := mapper.Map(restkit.Object{"is_online": c.in}, s)["isOnline"]
		if !ok || got != c.want {
			t.Fatalf("isOnline for %#v = %#v (present=%v), want %v", c.in, got, ok, c.want)
		}
	}
}

func TestArrayOf_SingletonWrap(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{"states": mapper.ArrayOf(mapper.String)})
	got := mapper.Map(restkit.Object{"states": 123}, s)["states"]
	if !reflect.DeepEqual(got, []any{123}) {
		t.Fatalf("states = %#v, want [123]", got)
	}
	got = mapper.Map(restkit.Object{"states": []any{123, 2}}, s)["states"]
	if !reflect.DeepEqual(got, []any{"123", "2"}) {
		t.Fatalf("states = %#v, want [\"123\" \"2\"]", got)
	}
	got = mapper.Map(restkit.Object{"states": "abc"}, s)["states"]
	if !reflect.DeepEqual(got, []any{"abc"}) {
		t.Fatalf("strings are scalars, got %#v", got)
	}
}

func TestArrayOf_Passthrough(t *testing.T) {
	empty := []any{}
	if v, ok := mapper.ArrayOf(mapper.Number).Encode(empty); !ok || len(v.([]any)) != 0 {
		t.Fatalf("empty slice should pass through, got %#v", v)
	}
	in := []any{"1", "2"}
	if v, _ := mapper.ArrayOf(nil).Decode(in); !reflect.DeepEqual(v, in) {
		t.Fatalf("nil element should pass through, got %#v", v)
	}
	v, _ := mapper.ArrayOf(mapper.Number).Encode([]string{"1", "x"})
	got := v.([]any)
	if got[0] != float64(1) || !math.IsNaN(got[1].(float64)) {
		t.Fatalf("typed slices are mapped element-wise, got %#v", got)
	}
}

func TestArrayOf_Strategy(t *testing.T) {
	item := mapper.MustStrategy(mapper.Rules{"name": mapper.Rename("title")})
	s := mapper.MustStrategy(mapper.Rules{"items": mapper.ArrayOf(item)})
	got := mapper.Map(restkit.Object{"items": []any{map[string]any{"title": "a"}, nil}}, s)
	want := restkit.Object{"items": []any{restkit.Object{"name": "a"}, nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	back := mapper.ReverseMap(got, s)
	if !reflect.DeepEqual(back, restkit.Object{"items": []any{restkit.Object{"title": "a"}, nil}}) {
		t.Fatalf("unexpected reverse: %#v", back)
	}
}

func TestNullOmission(t *testing.T) {
	shape := mapper.MustStrategy(mapper.Rules{"id": mapper.Number})
	rules := map[string]mapper.Rule{
		"number":   mapper.Number,
		"string":   mapper.String,
		"bool":     mapper.Bool,
		"dateTime": mapper.DateTime,
		"arrayOf":  mapper.ArrayOf(mapper.String),
		"arrayNil": mapper.ArrayOf(nil),
		"shapeOf":  mapper.ShapeOf(shape),
		"strategy": shape,
		"decodeEK": mapper.DecodeEntityKey("", shape),
		"encodeEK": mapper.EncodeEntityKey("", shape),
		"asAttr":   mapper.Number.AsAttrMap("other"),
		"rename":   mapper.Rename("other"),
	}
	for name, rule := range rules {
		s := mapper.MustStrategy(mapper.Rules{"key": rule})
		for _, src := range []restkit.Object{{}, {"key": nil, "other": nil}} {
			if _, ok := mapper.Map(src, s)["key"]; ok {
				t.Fatalf("%s: Map kept a null attribute", name)
			}
			if out := mapper.ReverseMap(src, s); len(out) != 0 {
				t.Fatalf("%s: ReverseMap kept a null attribute: %#v", name, out)
			}
		}
	}
}

func TestRoundtrip_RenamedScalars(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{
		"firstName": mapper.Rename("first_name"),
		"age":       mapper.Rename("age"),
		"role.id":   mapper.Rename("role_id"),
	})
	src := restkit.Object{"first_name": "Ann", "age": float64(30)}
	back := mapper.ReverseMap(mapper.Map(src, s), s)
	if !reflect.DeepEqual(back, src) {
		t.Fatalf("roundtrip mismatch: %#v", back)
	}
}

func TestReverseMap_ReadsEncodedKeysLiterally(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{"role.title": mapper.Rename("role_title")})

	enc := mapper.Map(restkit.Object{"role_title": "admin"}, s)
	if !reflect.DeepEqual(enc, restkit.Object{"role": restkit.Object{"title": "admin"}}) {
		t.Fatalf("Map should nest dotted keys, got %#v", enc)
	}
	if out := mapper.ReverseMap(enc, s); len(out) != 0 {
		t.Fatalf("nested encoded values are not read by ReverseMap, got %#v", out)
	}
	out := mapper.ReverseMap(restkit.Object{"role.title": "admin"}, s)
	if out["role_title"] != "admin" {
		t.Fatalf("literal dotted key should be read, got %#v", out)
	}
}

func TestMap_TransformsSeeSourceOnly(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{
		"a": mapper.Attr{Path: "a", Encode: func(v any, whole map[string]any) (any, bool) {
			_, seen := whole["b"]
			return seen, true
		}},
		"b": mapper.Attr{Path: "b", Encode: func(v any, whole map[string]any) (any, bool) {
			_, seen := whole["a"]
			return seen, true
		}},
	})
	got := mapper.Map(restkit.Object{"a": 1}, s)
	if got["a"] != false || got["b"] != true {
		t.Fatalf("transforms must read the source object, got %#v", got)
	}
}

func TestShapeOf_ZeroLikePassthrough(t *testing.T) {
	shape := mapper.ShapeOf(mapper.MustStrategy(mapper.Rules{"id": mapper.Number}))
	for _, in := range []any{0, "", false} {
		if v, ok := shape.Encode(in); !ok || v != in {
			t.Fatalf("ShapeOf.Encode(%#v) = %#v, %v", in, v, ok)
		}
	}
	v, _ := shape.Encode("not-an-object")
	if !reflect.DeepEqual(v, restkit.Object{}) {
		t.Fatalf("mapping a scalar yields an empty object, got %#v", v)
	}
}

func TestEntityKey_CollapseMissingKey(t *testing.T) {
	ek := mapper.EncodeEntityKey("uuid", nil)
	if v, ok := ek.Encode(map[string]any{"id": 1}); ok {
		t.Fatalf("missing key should produce no value, got %#v", v)
	}
	if v, ok := ek.Encode(map[string]any{"uuid": "u-1"}); !ok || v != "u-1" {
		t.Fatalf("unexpected collapse: %#v", v)
	}
	if v, ok := ek.Decode(map[string]any{"uuid": "u-1"}); !ok || !reflect.DeepEqual(v, map[string]any{"uuid": "u-1"}) {
		t.Fatalf("nil shape should pass through, got %#v", v)
	}
}

func TestNewStrategy_Issues(t *testing.T) {
	_, err := mapper.NewStrategy(mapper.Rules{
		"a..b": mapper.Number,
		"c":    mapper.Rename(""),
		"d":    mapper.Attr{Path: "x."},
		"e":    nil,
		"ok":   mapper.Rename("fine"),
	})
	iss, ok := restkit.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	if len(iss) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(iss), iss)
	}
	if iss[0].Path != "a..b" || iss[0].Code != restkit.CodeInvalidPath {
		t.Fatalf("unexpected first issue: %+v", iss[0])
	}
	if iss[3].Path != "e" || iss[3].Code != restkit.CodeInvalidType {
		t.Fatalf("unexpected last issue: %+v", iss[3])
	}
}

func TestStrategy_KeysSorted(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{"b": mapper.Number, "a": mapper.Rename("x"), "c.d": mapper.String})
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c.d"}) {
		t.Fatalf("unexpected keys: %v", got)
	}
	if got := s.Paths(); got["a"] != "x" || got["c.d"] != "c.d" {
		t.Fatalf("unexpected paths: %v", got)
	}
}

type wireUser struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
}

type appUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestTyped_EncodeDecode(t *testing.T) {
	s := mapper.MustStrategy(mapper.Rules{
		"id":   mapper.Number,
		"name": mapper.Rename("first_name"),
	})
	typed := mapper.NewTyped[appUser, wireUser](mapper.NewDataMapper(s))

	u, err := typed.Encode(wireUser{ID: 4, FirstName: "Ann"})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if u != (appUser{ID: 4, Name: "Ann"}) {
		t.Fatalf("unexpected encode: %+v", u)
	}
	w, err := typed.Decode(u)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if w != (wireUser{ID: 4, FirstName: "Ann"}) {
		t.Fatalf("unexpected decode: %+v", w)
	}
}

func TestToObject(t *testing.T) {
	obj, err := mapper.ToObject(appUser{ID: 1, Name: "a"})
	if err != nil || obj["name"] != "a" || obj["id"] != float64(1) {
		t.Fatalf("unexpected object: %#v err=%v", obj, err)
	}
	if _, err := mapper.ToObject([]int{1}); err == nil {
		t.Fatalf("expected error for non-object value")
	}
	if obj, err := mapper.ToObject(nil); obj != nil || err != nil {
		t.Fatalf("nil should convert to nil object")
	}
}

func TestConvert_NonFiniteBecomesZero(t *testing.T) {
	type point struct {
		X float64   `json:"x"`
		Y []float64 `json:"y"`
	}
	in := restkit.Object{"x": math.NaN(), "y": []any{1.0, math.Inf(1)}}
	got, err := mapper.Convert[point](in)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got.X != 0 || !reflect.DeepEqual(got.Y, []float64{1, 0}) {
		t.Fatalf("unexpected point: %+v", got)
	}
	// The source keeps its NaN.
	if x, _ := in["x"].(float64); !math.IsNaN(x) {
		t.Fatalf("source was modified: %#v", in)
	}

	same, err := mapper.Convert[restkit.Object](in)
	if err != nil || !math.IsNaN(same["x"].(float64)) {
		t.Fatalf("objects should pass through unchanged: %#v, %v", same, err)
	}
}
