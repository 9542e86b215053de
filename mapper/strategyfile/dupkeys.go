package strategyfile

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/restkit"
)

// maxDuplicateIssues bounds the report for pathological documents.
const maxDuplicateIssues = 32

type frame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	key          string // current member key (objects) or index (arrays)
	index        int
}

// DuplicateKeys walks JSON tokens and reports every object key that appears
// twice in the same object. Paths are dotted, with array indexes as
// segments. Malformed input yields a single parse_error issue.
func DuplicateKeys(data []byte) restkit.Issues {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var iss restkit.Issues
	var stack []frame

	path := func(last string) string {
		segs := make([]string, 0, len(stack))
		for _, f := range stack[:len(stack)-1] {
			segs = append(segs, f.key)
		}
		return strings.Join(append(segs, last), ".")
	}
	// valueDone advances the parent after a complete value.
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.object {
			top.expectingKey = true
			return
		}
		top.index++
		top.key = strconv.Itoa(top.index)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			it := restkit.IssueAt("", restkit.CodeParseError)
			it.Cause = err
			it.Hint = err.Error()
			return restkit.AppendIssues(iss, it)
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, frame{object: true, keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, frame{key: "0"})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.object && top.expectingKey {
					if _, dup := top.keys[v]; dup {
						if len(iss) >= maxDuplicateIssues {
							return restkit.AppendIssues(iss, restkit.IssueAt("", restkit.CodeTruncated))
						}
						iss = restkit.AppendIssues(iss, restkit.IssueAt(path(v), restkit.CodeDuplicateKey, "key", v))
					}
					top.keys[v] = struct{}{}
					top.key = v
					top.expectingKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
	if len(stack) > 0 {
		it := restkit.IssueAt("", restkit.CodeParseError)
		it.Cause = io.ErrUnexpectedEOF
		it.Hint = "unexpected end of JSON input"
		iss = restkit.AppendIssues(iss, it)
	}
	return iss
}
