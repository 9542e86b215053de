package codec

import (
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ISOLayout renders times the way Date#toISOString does: UTC, millisecond
// precision, trailing Z.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// parseLayouts are tried in order by ParseTime for string input.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// FormatISO renders t in UTC using ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseTime converts v into a time. It accepts time.Time, ISO-8601/RFC3339
// and a few common textual layouts, and numbers (or numeric strings)
// interpreted as milliseconds since the Unix epoch. Booleans, maps, slices and
// unparseable text report false.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseTimeString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(f)
	case float64:
		return fromMillis(t)
	case float32:
		return fromMillis(float64(t))
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int32:
		return time.UnixMilli(int64(t)).UTC(), true
	case uint64:
		if t > math.MaxInt64 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case uint:
		return time.UnixMilli(int64(t)).UTC(), true
	}
	return time.Time{}, false
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromMillis(f)
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromMillis(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	// Same range as ECMAScript dates: ±8.64e15 ms.
	if math.Abs(f) > 8.64e15 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)).UTC(), true
}
