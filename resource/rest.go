package resource

import (
	"context"
	"fmt"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/mapper"
)

// Rest binds a transport to one resource URL. Create, Update, Patch, Get and
// Delete map to Post, Put, Patch, Get and Delete on that URL; per-call
// options are applied after the defaults given to NewRest.
type Rest struct {
	transport restkit.Resource
	url       string
	opts      []restkit.RequestOption
}

// NewRest creates a REST resource at url on transport.
func NewRest(transport restkit.Resource, url string, opts ...restkit.RequestOption) *Rest {
	return &Rest{transport: transport, url: url, opts: opts}
}

// URL returns the resource URL relative to the transport base.
func (r *Rest) URL() string { return r.url }

// Transport returns the underlying transport.
func (r *Rest) Transport() restkit.Resource { return r.transport }

func (r *Rest) Create(ctx context.Context, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return r.transport.Post(ctx, r.url, body, r.merge(opts)...)
}

func (r *Rest) Update(ctx context.Context, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return r.transport.Put(ctx, r.url, body, r.merge(opts)...)
}

func (r *Rest) Patch(ctx context.Context, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return r.transport.Patch(ctx, r.url, body, r.merge(opts)...)
}

// Get sends params as query parameters.
func (r *Rest) Get(ctx context.Context, params any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return r.transport.Get(ctx, r.url, params, r.merge(opts)...)
}

func (r *Rest) Delete(ctx context.Context, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return r.transport.Delete(ctx, r.url, body, r.merge(opts)...)
}

// Child addresses a nested resource, for example users.Child(7, "posts").
// Parts are formatted like mapper.ToString. The child keeps the defaults.
func (r *Rest) Child(parts ...any) *Rest {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = mapper.ToString(p)
	}
	return &Rest{
		transport: r.transport,
		url:       r.transport.ResolveDestination(segs, r.url),
		opts:      r.opts,
	}
}

// With returns a copy whose defaults also include opts.
func (r *Rest) With(opts ...restkit.RequestOption) *Rest {
	return &Rest{transport: r.transport, url: r.url, opts: r.merge(opts)}
}

func (r *Rest) merge(opts []restkit.RequestOption) []restkit.RequestOption {
	if len(opts) == 0 {
		return r.opts
	}
	out := make([]restkit.RequestOption, 0, len(r.opts)+len(opts))
	return append(append(out, r.opts...), opts...)
}

func (r *Rest) String() string { return fmt.Sprintf("rest(%s)", r.url) }

// AllEntities lists every stored entity when the transport is a Storage.
func (r *Rest) AllEntities(ctx context.Context) ([]restkit.Object, error) {
	s, ok := r.transport.(*Storage)
	if !ok {
		return nil, fmt.Errorf("resource: %T cannot list entities", r.transport)
	}
	return s.AllEntities(ctx)
}
