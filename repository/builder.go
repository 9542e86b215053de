package repository

import (
	"github.com/reoring/restkit/mapper"
	"github.com/reoring/restkit/resource"
)

// Builder holds a mapper and options shared by repositories of one entity
// type, so that each resource gets an identically configured repository.
type Builder[T any] struct {
	opts []Option
}

// NewBuilder returns a builder for repositories mapping through m (which may
// be nil).
func NewBuilder[T any](m *mapper.DataMapper, opts ...Option) *Builder[T] {
	b := &Builder[T]{}
	if m != nil {
		b.opts = append(b.opts, WithMapper(m))
	}
	b.opts = append(b.opts, opts...)
	return b
}

// With returns a builder that also applies opts.
func (b *Builder[T]) With(opts ...Option) *Builder[T] {
	out := &Builder[T]{opts: make([]Option, 0, len(b.opts)+len(opts))}
	out.opts = append(append(out.opts, b.opts...), opts...)
	return out
}

// Build creates a repository on rest. It fails with restkit.ErrNoResource
// when rest is nil.
func (b *Builder[T]) Build(rest *resource.Rest) (*Repository[T], error) {
	return New[T](rest, b.opts...)
}
