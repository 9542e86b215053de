package restkit

import (
	"context"
)

// Resource is the transport collaborator the repository depends on. path is
// relative to the transport's base; body is a request payload (or the query
// parameters for Get).
//
// Implementations decide whether a non-2xx status is an error or a Response
// carrying that status; the HTTP transport returns an error.
type Resource interface {
	Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Get(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)

	// ResolveDestination joins parts onto base to address a nested resource.
	ResolveDestination(parts []string, base string) string

	SetHeaders(headers map[string]string)
	ClearHeaders()
}

// Method is a bidirectional value transform. The boolean result reports
// whether a value was produced; (nil, false) means "no value" and makes the
// mapping interpreter omit the attribute.
type Method interface {
	Encode(v any) (any, bool)
	Decode(v any) (any, bool)
}
