package restkit

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidPath  = "invalid_path"
	CodeInvalidType  = "invalid_type"
	CodeUnknownType  = "unknown_type"
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// ErrEntityNew is returned by Update, Patch and Delete when the entity has no
// id under the repository's configured id key.
var ErrEntityNew = errors.New("restkit: entity is new")

// ErrNilID is returned by LoadByID when the id is nil.
var ErrNilID = errors.New("restkit: id must not be nil")

// ErrNoResource is returned when a repository is built without a resource.
var ErrNoResource = errors.New("restkit: resource must be defined")

// Issue represents a single problem found while compiling a mapping strategy
// or loading a strategy file.
type Issue struct {
	Path    string // Dotted strategy path (for example: avatar.url).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, type names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"key":"id"}) for i18n and
	// observability.
	Params map[string]any
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_path at avatar..url
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is/As see through an Issues value.
func (iss Issues) Unwrap() []error {
	var errs []error
	for _, it := range iss {
		if it.Cause != nil {
			errs = append(errs, it.Cause)
		}
	}
	return errs
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
