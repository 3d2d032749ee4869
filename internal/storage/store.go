// Package storage defines the per-kind entity store used by the sync manager
// and shared helpers for its implementations.
package storage

import (
	"context"

	"github.com/iudanet/peersync/internal/models"
)

//go:generate moq -out entitystore_mock.go . EntityStore

// EntityStore persists the entities of one kind.
// Each call is atomic for the single row it touches; there is no cross-row
// transaction and no ordering guarantee between concurrent writers.
type EntityStore interface {
	// Get returns the entity or ErrEntityNotFound
	Get(ctx context.Context, id string) (*models.SyncEntity, error)

	// Insert stores a new entity
	// Returns ErrEntityExists if the id is taken
	Insert(ctx context.Context, entity *models.SyncEntity) error

	// Update replaces an existing entity whose stored version is still prevVersion
	// Returns ErrEntityNotFound if the id is unknown and
	// ErrVersionConflict if another writer changed the row in between
	Update(ctx context.Context, entity *models.SyncEntity, prevVersion int64) error

	// Delete removes the entity (hard delete)
	// Returns ErrEntityNotFound if the id is unknown
	Delete(ctx context.Context, id string) error

	// List returns all entities ordered by id
	List(ctx context.Context) ([]*models.SyncEntity, error)

	// Watch returns a live query: the full current list is sent immediately
	// and again after every change. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan []*models.SyncEntity, error)
}
