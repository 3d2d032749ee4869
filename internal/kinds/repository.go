package kinds

import (
	"context"

	"github.com/iudanet/peersync/internal/syncmgr"
)

// Repository is a typed facade over the manager of one kind.
type Repository[T any] struct {
	m   *syncmgr.Manager
	def Definition[T]
}

// NewRepository wraps m, which must manage def's kind.
func NewRepository[T any](m *syncmgr.Manager, def Definition[T]) *Repository[T] {
	return &Repository[T]{m: m, def: def}
}

// Manager returns the underlying manager.
func (r *Repository[T]) Manager() *syncmgr.Manager { return r.m }

// Add stores a new record; an empty ID is generated.
func (r *Repository[T]) Add(ctx context.Context, v T) (T, error) {
	e, err := r.m.Add(ctx, r.def.ToEntity(v))
	if err != nil {
		var zero T
		return zero, err
	}
	return r.def.FromEntity(e), nil
}

// Update replaces the full state of an existing record.
// The returned value carries the new version even when the push to peers
// failed and an error is returned.
func (r *Repository[T]) Update(ctx context.Context, v T) (T, error) {
	e, err := r.m.Update(ctx, r.def.ToEntity(v))
	if e == nil {
		var zero T
		return zero, err
	}
	return r.def.FromEntity(e), err
}

// Delete removes a record.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.m.Delete(ctx, id)
}

// Get returns one record.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	e, err := r.m.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.def.FromEntity(e), nil
}

// List returns all records ordered by id.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	entities, err := r.m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		out = append(out, r.def.FromEntity(e))
	}
	return out, nil
}

// Default returns the kind's default record or syncmgr.ErrNoDefault.
func (r *Repository[T]) Default(ctx context.Context) (T, error) {
	e, err := r.m.GetDefault(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.def.FromEntity(e), nil
}

// Subscribe streams typed change notifications until ctx is done or the
// manager stops.
func (r *Repository[T]) Subscribe(ctx context.Context) <-chan T {
	sub := r.m.Subscribe()
	out := make(chan T)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C():
				if !ok {
					return
				}
				select {
				case out <- r.def.FromEntity(e):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
