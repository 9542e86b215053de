package resource

import (
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/mapper"
)

// EncodeQuery renders params as a query string. Keys are sorted, nil values
// are skipped and lists follow mode. Nested objects use bracket keys, so
// {"search": {"q": "x"}} is written as search[q]=x. Scalars are formatted
// like mapper.ToString, so 1.0 is written as 1 and times as ISO strings.
func EncodeQuery(params restkit.Object, mode QueryMode) string {
	var parts []string
	encodeQuery(&parts, "", params, mode)
	return strings.Join(parts, "&")
}

func encodeQuery(parts *[]string, prefix string, params map[string]any, mode QueryMode) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}
		name := escape(k)
		if prefix != "" {
			name = prefix + "[" + name + "]"
		}
		if nested, ok := v.(map[string]any); ok {
			encodeQuery(parts, name, nested, mode)
			continue
		}
		list, isList := queryList(v)
		if !isList {
			*parts = append(*parts, name+"="+escape(mapper.ToString(v)))
			continue
		}
		if mode == QueryArray {
			for _, item := range list {
				*parts = append(*parts, name+"[]="+escape(mapper.ToString(item)))
			}
			continue
		}
		vals := make([]string, len(list))
		for i, item := range list {
			vals[i] = escape(mapper.ToString(item))
		}
		*parts = append(*parts, name+"="+strings.Join(vals, ","))
	}
}

// escape matches encodeURIComponent: spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func queryList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case string, []byte:
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
