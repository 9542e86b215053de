package repository

import (
	"errors"
	"fmt"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/mapper"
)

var (
	// ErrNotCollection is returned by Load and Search when the response
	// holds a single entity.
	ErrNotCollection = errors.New("repository: response is not a collection")
	// ErrNotEntity is returned by single-entity operations when the response
	// holds a collection.
	ErrNotEntity = errors.New("repository: response is a collection")
)

// Result is a normalized response. Exactly one shape applies: Raw for
// non-object bodies (Meta is nil then), Items for collections, Entity
// otherwise.
type Result struct {
	Entity     any
	Items      []any
	Collection bool
	Meta       restkit.Meta
	Raw        any
}

// Passthrough reports whether the response carried no object to normalize.
func (r Result) Passthrough() bool { return r.Meta == nil }

// ArrayMeta is a typed collection with the meta of the response it came
// from. Meta is not an element.
type ArrayMeta[T any] struct {
	Items []T
	Meta  restkit.Meta
	// Raw holds a non-object response body, in which case Items is empty.
	Raw any
}

// Len returns the number of items.
func (a ArrayMeta[T]) Len() int { return len(a.Items) }

// EntityMeta is a typed entity with the meta of the response it came from.
type EntityMeta[T any] struct {
	Entity T
	Meta   restkit.Meta
	// Raw holds a non-object response body, in which case Entity is zero.
	Raw any
}

func toArrayMeta[T any](r Result) (ArrayMeta[T], error) {
	out := ArrayMeta[T]{Meta: r.Meta, Raw: r.Raw}
	if r.Passthrough() {
		return out, nil
	}
	if !r.Collection {
		return out, ErrNotCollection
	}
	out.Items = make([]T, 0, len(r.Items))
	for i, item := range r.Items {
		v, err := mapper.Convert[T](item)
		if err != nil {
			return out, fmt.Errorf("repository: item %d: %w", i, err)
		}
		out.Items = append(out.Items, v)
	}
	return out, nil
}

func toEntityMeta[T any](r Result) (EntityMeta[T], error) {
	out := EntityMeta[T]{Meta: r.Meta, Raw: r.Raw}
	if r.Passthrough() {
		return out, nil
	}
	if r.Collection {
		return out, ErrNotEntity
	}
	v, err := mapper.Convert[T](r.Entity)
	if err != nil {
		return out, fmt.Errorf("repository: %w", err)
	}
	out.Entity = v
	return out, nil
}
