// Package memory implements an in-process entity store.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
)

// Store хранит сущности одного типа в памяти.
// Все значения копируются на входе и выходе, так что вызывающий код
// не может изменить сохраненное состояние.
type Store struct {
	elements map[string]*models.SyncEntity // map[id]entity
	changes  *broadcast.Broadcaster[struct{}]
	logger   *slog.Logger
	mu       sync.RWMutex
}

var _ storage.EntityStore = (*Store)(nil)

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		elements: make(map[string]*models.SyncEntity),
		changes:  broadcast.New[struct{}](1),
		logger:   logger,
	}
}

// Get returns a copy of the entity or storage.ErrEntityNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.SyncEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, exists := s.elements[id]
	if !exists {
		return nil, storage.ErrEntityNotFound
	}

	return entity.Clone(), nil
}

// Insert adds a new entity.
func (s *Store) Insert(ctx context.Context, entity *models.SyncEntity) error {
	s.mu.Lock()
	if _, exists := s.elements[entity.ID]; exists {
		s.mu.Unlock()
		return storage.ErrEntityExists
	}
	s.elements[entity.ID] = entity.Clone()
	s.mu.Unlock()

	s.changes.Publish(struct{}{})
	return nil
}

// Update replaces an existing entity stored with prevVersion.
func (s *Store) Update(ctx context.Context, entity *models.SyncEntity, prevVersion int64) error {
	s.mu.Lock()
	current, exists := s.elements[entity.ID]
	if !exists {
		s.mu.Unlock()
		return storage.ErrEntityNotFound
	}
	if current.Version != prevVersion {
		s.mu.Unlock()
		return storage.ErrVersionConflict
	}
	s.elements[entity.ID] = entity.Clone()
	s.mu.Unlock()

	s.changes.Publish(struct{}{})
	return nil
}

// Delete removes an entity.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, exists := s.elements[id]; !exists {
		s.mu.Unlock()
		return storage.ErrEntityNotFound
	}
	delete(s.elements, id)
	s.mu.Unlock()

	s.changes.Publish(struct{}{})
	return nil
}

// List returns copies of all entities ordered by id.
func (s *Store) List(ctx context.Context) ([]*models.SyncEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.SyncEntity, 0, len(s.elements))
	for _, entity := range s.elements {
		result = append(result, entity.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// Watch streams full snapshots after every change.
func (s *Store) Watch(ctx context.Context) (<-chan []*models.SyncEntity, error) {
	return storage.WatchList(ctx, s.changes, s.List, s.logger), nil
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}
