package restkit

import (
	"net/http"
)

// Object is the dynamic shape of an entity on either side of a mapping. It is
// an alias so that values decoded from JSON or CBOR can be used directly.
type Object = map[string]any

// Meta is out-of-band information accompanying a response: at least
// responseStatus, plus whatever meta the payload carried.
type Meta map[string]any

// MetaResponseStatus is the Meta key holding the transport status code.
const MetaResponseStatus = "responseStatus"

// ResponseStatus returns the status code recorded in m (0 when missing).
func (m Meta) ResponseStatus() int {
	switch v := m[MetaResponseStatus].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// StatusKey is the payload key carrying the transport status in raw object
// responses. Response pipelines strip it from entities.
const StatusKey = "_status"

// Response is what a transport returns for one request. Body is one of:
// Object (JSON/CBOR/form objects), []any (top-level arrays), string (text
// bodies), []byte (binary bodies) or nil (bodiless responses).
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// IsObject reports whether the response carries an object or array payload.
func (r *Response) IsObject() bool {
	if r == nil {
		return false
	}
	switch r.Body.(type) {
	case Object, []any:
		return true
	}
	return false
}

// RequestOptions are per-call transport options. Transports ignore fields that
// do not apply to them.
type RequestOptions struct {
	Headers       map[string]string
	ContentType   string // Media type used to encode the request body.
	TrailingSlash *bool
	Query         Object // Extra query parameters.
	// EntityIDName makes storage transports assign a generated id under this
	// key on create.
	EntityIDName string
}

// RequestOption configures RequestOptions.
type RequestOption func(*RequestOptions)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = map[string]string{}
		}
		o.Headers[key] = value
	}
}

// WithContentType selects the body encoding by media type.
func WithContentType(ct string) RequestOption {
	return func(o *RequestOptions) { o.ContentType = ct }
}

// WithTrailingSlash overrides the transport's trailing slash policy.
func WithTrailingSlash(b bool) RequestOption {
	return func(o *RequestOptions) { o.TrailingSlash = &b }
}

// WithQuery merges extra query parameters into the request URL.
func WithQuery(q Object) RequestOption {
	return func(o *RequestOptions) {
		if o.Query == nil {
			o.Query = Object{}
		}
		for k, v := range q {
			o.Query[k] = v
		}
	}
}

// WithEntityIDName asks storage transports to generate ids under name.
func WithEntityIDName(name string) RequestOption {
	return func(o *RequestOptions) { o.EntityIDName = name }
}

// ApplyRequestOptions folds opts in order; later options win.
func ApplyRequestOptions(opts ...RequestOption) RequestOptions {
	var o RequestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
