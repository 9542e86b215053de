package codec

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestParseTime_ISO_Roundtrip(t *testing.T) {
	in := "2025-01-01T00:00:00.000Z"
	got, ok := ParseTime(in)
	if !ok {
		t.Fatalf("expected %q to parse", in)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	if out := FormatISO(got); out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
}

func TestParseTime_OffsetNormalizedToUTC(t *testing.T) {
	got, ok := ParseTime("2025-01-01T09:00:00+09:00")
	if !ok {
		t.Fatalf("expected parse")
	}
	if s := FormatISO(got); s != "2025-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected ISO: %s", s)
	}
}

func TestParseTime_EpochMillis(t *testing.T) {
	for _, in := range []any{float64(0), int64(0), 0, "0"} {
		got, ok := ParseTime(in)
		if !ok {
			t.Fatalf("expected %v (%T) to parse", in, in)
		}
		if s := FormatISO(got); s != "1970-01-01T00:00:00.000Z" {
			t.Fatalf("unexpected ISO for %v: %s", in, s)
		}
	}
}

func TestParseTime_DateOnly(t *testing.T) {
	got, ok := ParseTime("2024-02-29")
	if !ok {
		t.Fatalf("expected date-only parse")
	}
	if s := FormatISO(got); s != "2024-02-29T00:00:00.000Z" {
		t.Fatalf("unexpected ISO: %s", s)
	}
}

func TestParseTime_Rejects(t *testing.T) {
	for _, in := range []any{true, false, map[string]any{}, []any{1}, "not a date", "", nil} {
		if _, ok := ParseTime(in); ok {
			t.Fatalf("expected %v (%T) to be rejected", in, in)
		}
	}
}

func TestFormatISO_Millis(t *testing.T) {
	tm := time.Date(2020, 5, 6, 7, 8, 9, 123456789, time.UTC)
	if s := FormatISO(tm); s != "2020-05-06T07:08:09.123Z" {
		t.Fatalf("unexpected ISO: %s", s)
	}
}

func TestParseTime_JSONNumberFromDecoder(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"at": 1700000000000}`))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["at"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", body["at"])
	}
	got, ok := ParseTime(body["at"])
	if !ok {
		t.Fatalf("expected json.Number to parse")
	}
	if s := FormatISO(got); s != "2023-11-14T22:13:20.000Z" {
		t.Fatalf("unexpected ISO: %s", s)
	}
}
