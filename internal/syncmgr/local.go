package syncmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/transport"
)

// maxWriteAttempts ограничивает повторы условной записи при гонке с другим писателем
const maxWriteAttempts = 16

// prepare checks the payload against the schema and stamps the envelope.
func (m *Manager) prepare(e *models.SyncEntity) (*models.SyncEntity, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entity", models.ErrInvalidEntity)
	}
	out := e.Clone()

	payload, err := m.spec.Schema.Normalize(out.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid %s entity: %w", m.spec.Kind, err)
	}
	out.Payload = payload
	out.Kind = m.spec.Kind
	out.SourceApp = m.appID
	out.LastModified = m.now()
	return out, nil
}

// Add stores a new record and registers it with the transport.
// An empty ID is generated. Adding an existing id overwrites it with the
// next version; re-adding a deleted id continues after the deleted version.
func (m *Manager) Add(ctx context.Context, e *models.SyncEntity) (*models.SyncEntity, error) {
	entity, err := m.prepare(e)
	if err != nil {
		return nil, err
	}
	if entity.ID == "" {
		entity.ID = m.newID()
	}

	if err := m.storeNext(ctx, entity, true); err != nil {
		return nil, &StoreError{Op: "add", Kind: m.spec.Kind, ID: entity.ID, Err: err}
	}
	m.tombstones.clear(entity.ID)

	if err := m.transport.RegisterObject(ctx, m.spec.Schema, entity); err != nil && !errors.Is(err, transport.ErrNotStarted) {
		m.logger.Warn("Failed to register entity", "id", entity.ID, "error", err)
	}

	m.notify(entity)
	return entity.Clone(), nil
}

// Update replaces the full state of an existing record with the next
// version and pushes it to peers. The store write happens before the
// transport push; a push error is returned after a successful write.
func (m *Manager) Update(ctx context.Context, e *models.SyncEntity) (*models.SyncEntity, error) {
	entity, err := m.prepare(e)
	if err != nil {
		return nil, err
	}

	if err := m.storeNext(ctx, entity, false); err != nil {
		return nil, &StoreError{Op: "update", Kind: m.spec.Kind, ID: entity.ID, Err: err}
	}

	pushErr := m.transport.UpdateObject(ctx, entity.ID, m.spec.Schema.Encode(entity))
	m.notify(entity)

	if pushErr != nil && !errors.Is(pushErr, transport.ErrNotStarted) {
		return entity.Clone(), fmt.Errorf("failed to propagate %s %q: %w", m.spec.Kind, entity.ID, pushErr)
	}
	return entity.Clone(), nil
}

// storeNext writes entity with the version after the stored one. A remote
// change applied between the read and the write makes the conditional
// update fail; the read is then repeated, so a local edit never lowers
// a version that already reached the store.
func (m *Manager) storeNext(ctx context.Context, entity *models.SyncEntity, insertMissing bool) error {
	var err error
	for range maxWriteAttempts {
		var existing *models.SyncEntity
		existing, err = m.store.Get(ctx, entity.ID)
		switch {
		case err == nil:
			entity.Version = existing.Version + 1
			err = m.store.Update(ctx, entity, existing.Version)
		case errors.Is(err, storage.ErrEntityNotFound) && insertMissing:
			entity.Version = 1
			if deletedAt, ok := m.tombstones.get(entity.ID); ok {
				entity.Version = deletedAt + 1
			}
			err = m.store.Insert(ctx, entity)
		default:
			return err
		}

		retry := errors.Is(err, storage.ErrVersionConflict) ||
			errors.Is(err, storage.ErrEntityExists) ||
			(insertMissing && errors.Is(err, storage.ErrEntityNotFound))
		if !retry {
			return err
		}
		m.logger.Debug("Retrying local write after concurrent change", "id", entity.ID, "error", err)
	}
	return err
}

// Delete removes the record and propagates the delete. A missing id is
// not an error. No change notification is emitted.
func (m *Manager) Delete(ctx context.Context, id string) error {
	existing, err := m.store.Get(ctx, id)
	switch {
	case err == nil:
		m.tombstones.record(id, existing.Version)
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrEntityNotFound) {
			return &StoreError{Op: "delete", Kind: m.spec.Kind, ID: id, Err: err}
		}
	case !errors.Is(err, storage.ErrEntityNotFound):
		return &StoreError{Op: "delete", Kind: m.spec.Kind, ID: id, Err: err}
	}

	if err := m.transport.DeleteObject(ctx, id); err != nil && !errors.Is(err, transport.ErrNotStarted) {
		return fmt.Errorf("failed to propagate %s delete %q: %w", m.spec.Kind, id, err)
	}
	return nil
}

// List returns all local records ordered by id.
func (m *Manager) List(ctx context.Context) ([]*models.SyncEntity, error) {
	entities, err := m.store.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Kind: m.spec.Kind, Err: err}
	}
	return entities, nil
}

// Get returns one record; a missing id wraps storage.ErrEntityNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*models.SyncEntity, error) {
	entity, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "get", Kind: m.spec.Kind, ID: id, Err: err}
	}
	return entity, nil
}

// GetDefault returns the kind's default record or ErrNoDefault.
func (m *Manager) GetDefault(ctx context.Context) (*models.SyncEntity, error) {
	if m.spec.Default == nil {
		return nil, ErrNoDefault
	}

	entities, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	if e, ok := m.spec.Default(entities); ok {
		return e, nil
	}
	return nil, ErrNoDefault
}

// Watch passes through the store's live list query.
func (m *Manager) Watch(ctx context.Context) (<-chan []*models.SyncEntity, error) {
	ch, err := m.store.Watch(ctx)
	if err != nil {
		return nil, &StoreError{Op: "watch", Kind: m.spec.Kind, Err: err}
	}
	return ch, nil
}
