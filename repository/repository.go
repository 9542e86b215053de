// Package repository turns a REST resource into a typed entity store: it
// maps entities to wire payloads through a data mapper, calls the resource
// and normalizes responses into entities or collections with meta.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/internal/logctx"
	"github.com/reoring/restkit/mapper"
	"github.com/reoring/restkit/resource"
)

// DefaultEntityIDKey is the entity member that identifies persisted entities.
const DefaultEntityIDKey = "id"

// RequestWrap shapes the mapped payload before it is sent, for example to
// nest it under a root key or to build a *resource.FormData upload.
type RequestWrap func(decoded restkit.Object) any

type options struct {
	idKey    string
	mapper   *mapper.DataMapper
	wrap     RequestWrap
	settings Settings
	defaults restkit.Object
	logger   *slog.Logger
}

// Option configures a Repository.
type Option func(*options)

// WithEntityIDKey changes the id member (default "id").
func WithEntityIDKey(key string) Option {
	return func(o *options) { o.idKey = key }
}

// WithMapper maps responses with m.Encode and payloads with m.Decode.
func WithMapper(m *mapper.DataMapper) Option {
	return func(o *options) { o.mapper = m }
}

// WithRequestWrap installs fn, applied to payloads after mapping.
func WithRequestWrap(fn RequestWrap) Option {
	return func(o *options) { o.wrap = fn }
}

// WithSettings merges s over the defaults.
func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = o.settings.merge(s) }
}

// WithDefaultQueryParams sets parameters merged into every payload and query.
func WithDefaultQueryParams(params restkit.Object) Option {
	return func(o *options) { o.defaults = maps.Clone(params) }
}

// WithLogger sets the logger for operation records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Repository performs CRUD and search for entities of type T on one REST
// resource. T is restkit.Object for untyped use, or any type that converts
// to and from a JSON object.
//
// A Repository is safe for concurrent use; the setters take effect for
// operations started afterwards.
type Repository[T any] struct {
	rest   *resource.Rest
	idKey  string
	mapper *mapper.DataMapper
	wrap   RequestWrap
	logger *slog.Logger

	mu       sync.RWMutex
	settings Settings
	defaults restkit.Object
}

// New creates a repository on rest. It fails with restkit.ErrNoResource when
// rest is nil.
func New[T any](rest *resource.Rest, opts ...Option) (*Repository[T], error) {
	if rest == nil {
		return nil, restkit.ErrNoResource
	}
	o := options{idKey: DefaultEntityIDKey, settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(logctx.New(slog.Default().Handler()))
	}
	return &Repository[T]{
		rest:     rest,
		idKey:    o.idKey,
		mapper:   o.mapper,
		wrap:     o.wrap,
		logger:   o.logger,
		settings: o.settings,
		defaults: o.defaults,
	}, nil
}

// Resource returns the REST resource the repository talks to.
func (r *Repository[T]) Resource() *resource.Rest { return r.rest }

// SetDefaultQueryParams replaces the repository-wide parameters.
func (r *Repository[T]) SetDefaultQueryParams(params restkit.Object) {
	r.mu.Lock()
	r.defaults = maps.Clone(params)
	r.mu.Unlock()
}

// SetSettings replaces the settings; zero fields use the defaults.
func (r *Repository[T]) SetSettings(s Settings) {
	r.mu.Lock()
	r.settings = DefaultSettings().merge(s)
	r.mu.Unlock()
}

// AddSettings merges the non-zero fields of s over the current settings.
func (r *Repository[T]) AddSettings(s Settings) {
	r.mu.Lock()
	r.settings = r.settings.merge(s)
	r.mu.Unlock()
}

// Settings returns the current settings.
func (r *Repository[T]) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// Save creates new entities and updates persisted ones.
func (r *Repository[T]) Save(ctx context.Context, entity T) (EntityMeta[T], error) {
	if r.IsEntityNew(entity) {
		return r.Create(ctx, entity)
	}
	return r.Update(ctx, entity)
}

func (r *Repository[T]) Create(ctx context.Context, entity T) (EntityMeta[T], error) {
	ctx = r.begin(ctx, "create")
	body, err := r.payload(entity)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	res, err := r.rest.Create(ctx, body)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	return toEntityMeta[T](r.ProcessResponse(res))
}

// Update replaces a persisted entity. It fails with restkit.ErrEntityNew for
// new entities.
func (r *Repository[T]) Update(ctx context.Context, entity T) (EntityMeta[T], error) {
	ctx = r.begin(ctx, "update")
	one, body, err := r.persisted("update", entity)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	res, err := one.Update(ctx, body)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	return toEntityMeta[T](r.ProcessResponse(res))
}

// Patch sends a partial update of a persisted entity. It fails with
// restkit.ErrEntityNew for new entities.
func (r *Repository[T]) Patch(ctx context.Context, entity T) (EntityMeta[T], error) {
	ctx = r.begin(ctx, "patch")
	one, body, err := r.persisted("patch", entity)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	res, err := one.Patch(ctx, body)
	if err != nil {
		return EntityMeta[T]{}, err
	}
	return toEntityMeta[T](r.ProcessResponse(res))
}

// Delete removes a persisted entity. It fails with restkit.ErrEntityNew for
// new entities.
func (r *Repository[T]) Delete(ctx context.Context, entity T) error {
	ctx = r.begin(ctx, "delete")
	obj, err := r.object(entity)
	if err != nil {
		return err
	}
	if obj[r.idKey] == nil {
		return fmt.Errorf("repository: delete: %w", restkit.ErrEntityNew)
	}
	res, err := r.rest.Child(obj[r.idKey]).Delete(ctx, nil)
	if err != nil {
		return err
	}
	r.ProcessResponse(res)
	return nil
}

// MassDelete deletes entities concurrently and returns the first error after
// every request has finished. New entities are rejected before any request
// is sent.
func (r *Repository[T]) MassDelete(ctx context.Context, entities []T) error {
	for i, e := range entities {
		if r.IsEntityNew(e) {
			return fmt.Errorf("repository: mass delete: entity %d: %w", i, restkit.ErrEntityNew)
		}
	}
	var g errgroup.Group
	for _, e := range entities {
		e := e
		g.Go(func() error { return r.Delete(ctx, e) })
	}
	return g.Wait()
}

// Load lists the collection. params are sent as query parameters over the
// defaults.
func (r *Repository[T]) Load(ctx context.Context, params restkit.Object) (ArrayMeta[T], error) {
	ctx = r.begin(ctx, "load")
	res, err := r.rest.Get(ctx, r.query(params))
	if err != nil {
		return ArrayMeta[T]{}, err
	}
	return toArrayMeta[T](r.ProcessResponse(res))
}

// LoadByID fetches one entity. It fails with restkit.ErrNilID for a nil id.
func (r *Repository[T]) LoadByID(ctx context.Context, id any, params restkit.Object) (EntityMeta[T], error) {
	if id == nil {
		return EntityMeta[T]{}, fmt.Errorf("repository: load by id: %w", restkit.ErrNilID)
	}
	ctx = r.begin(ctx, "loadById")
	res, err := r.rest.Child(id).Get(ctx, r.query(params))
	if err != nil {
		return EntityMeta[T]{}, err
	}
	return toEntityMeta[T](r.ProcessResponse(res))
}

// Search lists the collection filtered by params, normalized through
// ResolveSearchParams. Default parameters win over search parameters.
func (r *Repository[T]) Search(ctx context.Context, params restkit.Object) (ArrayMeta[T], error) {
	ctx = r.begin(ctx, "search")
	q := r.ResolveSearchParams(params)
	r.mu.RLock()
	maps.Copy(q, r.defaults)
	r.mu.RUnlock()
	res, err := r.rest.Get(ctx, q)
	if err != nil {
		return ArrayMeta[T]{}, err
	}
	return toArrayMeta[T](r.ProcessResponse(res))
}

// IsEntityNew reports whether entity lacks a non-nil value under the id key.
// Entities that do not convert to an object count as new.
func (r *Repository[T]) IsEntityNew(entity T) bool {
	obj, err := r.object(entity)
	return err != nil || obj[r.idKey] == nil
}

// ResolveSearchParams splits params into page, per_page, sort, response and
// a search bucket holding everything else, renames them per Settings and
// drops nil and NaN values. The result is always a fresh, non-nil object; a
// nil params yields an empty one.
func (r *Repository[T]) ResolveSearchParams(params restkit.Object) restkit.Object {
	if params == nil {
		return restkit.Object{}
	}
	out := maps.Clone(r.Settings().decodeSearchParams(params))
	if out == nil {
		out = restkit.Object{}
	}
	for k, v := range out {
		if v == nil || isNaN(v) {
			delete(out, k)
		}
	}
	return out
}

// ProcessResponse normalizes a transport response. Non-object bodies pass
// through as Raw. Otherwise Meta holds responseStatus plus the extracted
// meta; an array under the data member, or a top-level array, becomes a
// collection of encoded items, and any other object is encoded as one
// entity without its status member.
func (r *Repository[T]) ProcessResponse(res *restkit.Response) Result {
	if res == nil {
		return Result{}
	}
	settings := r.Settings()
	switch body := res.Body.(type) {
	case map[string]any:
		meta := restkit.Meta{restkit.MetaResponseStatus: status(res, body)}
		if settings.ExtractMeta != nil {
			maps.Copy(meta, settings.ExtractMeta(body))
		}
		var data any
		if settings.ExtractData != nil {
			data = settings.ExtractData(body)
		}
		if items, ok := data.([]any); ok {
			return Result{Items: r.encodeAll(items), Collection: true, Meta: meta}
		}
		entity := maps.Clone(body)
		delete(entity, restkit.StatusKey)
		return Result{Entity: r.encode(entity), Meta: meta}
	case []any:
		meta := restkit.Meta{restkit.MetaResponseStatus: res.Status}
		return Result{Items: r.encodeAll(body), Collection: true, Meta: meta}
	}
	return Result{Raw: res.Body}
}

func status(res *restkit.Response, body restkit.Object) any {
	if s, ok := body[restkit.StatusKey]; ok && s != nil {
		return s
	}
	return res.Status
}

func (r *Repository[T]) encodeAll(items []any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = r.encode(it)
	}
	return out
}

func (r *Repository[T]) encode(v any) any {
	if r.mapper == nil {
		return v
	}
	return r.mapper.Encode(v)
}

// payload maps entity to its wire form, wraps it and merges the default
// parameters into object payloads.
func (r *Repository[T]) payload(entity T) (any, error) {
	obj, err := r.object(entity)
	if err != nil {
		return nil, err
	}
	decoded := obj
	if r.mapper != nil {
		decoded = r.mapper.Decode(obj)
	}
	var body any = decoded
	if r.wrap != nil {
		body = r.wrap(decoded)
	}
	return r.createQuery(body), nil
}

func (r *Repository[T]) createQuery(body any) any {
	obj, ok := body.(map[string]any)
	if !ok {
		return body
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(restkit.Object, len(obj)+len(r.defaults))
	maps.Copy(out, obj)
	maps.Copy(out, r.defaults)
	return out
}

func (r *Repository[T]) query(params restkit.Object) restkit.Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaults == nil {
		return params
	}
	out := maps.Clone(r.defaults)
	maps.Copy(out, params)
	return out
}

// persisted checks that entity has an id and returns its child resource and
// payload.
func (r *Repository[T]) persisted(op string, entity T) (*resource.Rest, any, error) {
	obj, err := r.object(entity)
	if err != nil {
		return nil, nil, err
	}
	id := obj[r.idKey]
	if id == nil {
		return nil, nil, fmt.Errorf("repository: %s: %w", op, restkit.ErrEntityNew)
	}
	body, err := r.payload(entity)
	if err != nil {
		return nil, nil, err
	}
	return r.rest.Child(id), body, nil
}

func (r *Repository[T]) object(entity T) (restkit.Object, error) {
	obj, err := mapper.ToObject(entity)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	return obj, nil
}

func (r *Repository[T]) begin(ctx context.Context, op string) context.Context {
	ctx = logctx.WithOperation(ctx, &logctx.OperationData{Name: op, Resource: r.rest.URL()})
	r.logger.DebugContext(ctx, "repository operation")
	return ctx
}
