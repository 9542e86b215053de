package restkit

import (
	"fmt"

	"github.com/reoring/restkit/i18n"
)

// IssueAt creates an Issue at the given path with a translated message for
// code. kv pairs become Params; a "key" entry is also passed to the translator.
func IssueAt(path, code string, kv ...any) Issue {
	var params map[string]any
	var data map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		if params == nil {
			params = map[string]any{}
			data = map[string]string{}
		}
		k := fmt.Sprint(kv[i])
		params[k] = kv[i+1]
		data[k] = fmt.Sprint(kv[i+1])
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Params: params}
}
