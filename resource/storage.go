package resource

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/storage"
)

// Storage is a transport backed by a storage.Store instead of a server.
// Items are stored as JSON under their path. With the EntityIDName request
// option, Post generates a uuid, stores the entity at path/id and records the
// path in the "<key>/entities_ids" index used by AllEntities; Delete with the
// same option removes it from the index.
type Storage struct {
	mu      sync.Mutex // serializes index updates
	key     string
	store   storage.Store
	setOpts []storage.Option
	headers map[string]string
}

var _ restkit.Resource = (*Storage)(nil)

// NewStorage creates a storage transport. setOpts apply to every write, for
// example storage.WithTTL.
func NewStorage(key string, store storage.Store, setOpts ...storage.Option) *Storage {
	return &Storage{key: key, store: store, setOpts: setOpts}
}

func (s *Storage) Post(ctx context.Context, path string, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	o := restkit.ApplyRequestOptions(opts...)
	if o.EntityIDName == "" {
		return s.put(ctx, path, body, http.StatusCreated)
	}
	obj, err := asObject(body)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	target := path + "/" + id
	stored := maps.Clone(obj)
	if stored == nil {
		stored = restkit.Object{}
	}
	stored[o.EntityIDName] = id

	res, err := s.put(ctx, target, stored, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	if err := s.updateIndex(ctx, func(ids map[string]any) { ids[target] = true }); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Storage) Put(ctx context.Context, path string, body any, _ ...restkit.RequestOption) (*restkit.Response, error) {
	return s.put(ctx, path, body, http.StatusOK)
}

// Patch merges body over the stored object.
func (s *Storage) Patch(ctx context.Context, path string, body any, _ ...restkit.RequestOption) (*restkit.Response, error) {
	patch, err := asObject(body)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	merged := restkit.Object{}
	if obj, ok := current.(map[string]any); ok {
		maps.Copy(merged, obj)
	}
	maps.Copy(merged, patch)
	return s.put(ctx, path, merged, http.StatusOK)
}

// Get loads the item at path. A missing item yields a 404 response with a
// nil body, not an error.
func (s *Storage) Get(ctx context.Context, path string, _ any, _ ...restkit.RequestOption) (*restkit.Response, error) {
	v, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &restkit.Response{Status: http.StatusNotFound}, nil
	}
	return &restkit.Response{Status: http.StatusOK, Body: v}, nil
}

func (s *Storage) Delete(ctx context.Context, path string, _ any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	if err := s.store.Delete(ctx, path); err != nil {
		return nil, err
	}
	if restkit.ApplyRequestOptions(opts...).EntityIDName != "" {
		if err := s.updateIndex(ctx, func(ids map[string]any) { delete(ids, path) }); err != nil {
			return nil, err
		}
	}
	return &restkit.Response{Status: http.StatusNoContent}, nil
}

// ResolveDestination appends parts to base without normalizing slashes.
func (s *Storage) ResolveDestination(parts []string, base string) string {
	return base + joinParts(parts)
}

// SetHeaders merges headers into the defaults. Storage keeps them only so
// it can stand in for an HTTP transport.
func (s *Storage) SetHeaders(headers map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headers == nil {
		s.headers = map[string]string{}
	}
	maps.Copy(s.headers, headers)
}

func (s *Storage) ClearHeaders() {
	s.mu.Lock()
	s.headers = nil
	s.mu.Unlock()
}

// SetBasePath changes the key under which the id index is kept.
func (s *Storage) SetBasePath(key string) {
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
}

// AllEntities loads every entity recorded in the index, ordered by path.
// Entries whose item has expired or been removed out of band are skipped.
func (s *Storage) AllEntities(ctx context.Context) ([]restkit.Object, error) {
	s.mu.Lock()
	ids, err := s.index(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(ids))
	for p := range ids {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]restkit.Object, 0, len(paths))
	for _, p := range paths {
		v, err := s.load(ctx, p)
		if err != nil {
			return nil, err
		}
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (s *Storage) indexKey() string {
	return strings.TrimSuffix(s.key, "/") + "/entities_ids"
}

// index must be called with s.mu held.
func (s *Storage) index(ctx context.Context) (map[string]any, error) {
	v, err := s.load(ctx, s.indexKey())
	if err != nil {
		return nil, err
	}
	ids, _ := v.(map[string]any)
	if ids == nil {
		ids = map[string]any{}
	}
	return ids, nil
}

func (s *Storage) updateIndex(ctx context.Context, fn func(ids map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.index(ctx)
	if err != nil {
		return err
	}
	fn(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.indexKey(), data, s.setOpts...)
}

func (s *Storage) put(ctx context.Context, path string, body any, status int) (*restkit.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("resource: encode %s: %w", path, err)
	}
	if err := s.store.Set(ctx, path, data, s.setOpts...); err != nil {
		return nil, err
	}
	// Respond with what a reader would load back.
	var echo any
	if err := json.Unmarshal(data, &echo); err != nil {
		return nil, err
	}
	return &restkit.Response{Status: status, Body: echo}, nil
}

func (s *Storage) load(ctx context.Context, path string) (any, error) {
	item, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(item.Data, &v); err != nil {
		return nil, fmt.Errorf("resource: decode %s: %w", path, err)
	}
	return v, nil
}

func asObject(body any) (restkit.Object, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return b, nil
	case restkit.Meta:
		return restkit.Object(b), nil
	}
	return nil, fmt.Errorf("resource: storage body must be an object, got %T", body)
}
