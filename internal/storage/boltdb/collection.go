package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
)

var errClosed = storage.ErrStorageClosed

// Collection is the EntityStore of one kind backed by a bbolt bucket.
// bbolt serializes writers, which gives per-row atomicity for free.
type Collection struct {
	storage *Storage
	changes *broadcast.Broadcaster[struct{}]
	kind    string
	bucket  []byte
}

var _ storage.EntityStore = (*Collection)(nil)

// Kind returns the entity kind of this collection
func (c *Collection) Kind() string {
	return c.kind
}

// Get retrieves an entity by ID
func (c *Collection) Get(ctx context.Context, id string) (*models.SyncEntity, error) {
	db := c.storage.handle()
	if db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entity *models.SyncEntity

	err := db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil {
			return storage.ErrEntityNotFound
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		// Десериализуем
		entity = &models.SyncEntity{}
		if err := json.Unmarshal(data, entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entity, nil
}

// Insert stores a new entity
func (c *Collection) Insert(ctx context.Context, entity *models.SyncEntity) error {
	return c.put(entity, false, 0)
}

// Update replaces an existing entity stored with prevVersion
func (c *Collection) Update(ctx context.Context, entity *models.SyncEntity, prevVersion int64) error {
	return c.put(entity, true, prevVersion)
}

// storedVersion читает только версию сохраненной записи
type storedVersion struct {
	Version int64 `json:"version"`
}

func (c *Collection) put(entity *models.SyncEntity, mustExist bool, prevVersion int64) error {
	db := c.storage.handle()
	if db == nil {
		return storage.ErrStorageClosed
	}

	// Сериализуем entity в JSON
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		key := []byte(entity.ID)
		current := bucket.Get(key)
		if mustExist && current == nil {
			return storage.ErrEntityNotFound
		}
		if !mustExist && current != nil {
			return storage.ErrEntityExists
		}

		// проверка версии внутри той же транзакции
		if mustExist {
			var stored storedVersion
			if err := json.Unmarshal(current, &stored); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			if stored.Version != prevVersion {
				return storage.ErrVersionConflict
			}
		}

		// Сохраняем по ключу ID
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save entity: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	c.changes.Publish(struct{}{})
	return nil
}

// Delete removes an entity
func (c *Collection) Delete(ctx context.Context, id string) error {
	db := c.storage.handle()
	if db == nil {
		return storage.ErrStorageClosed
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return storage.ErrEntityNotFound
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete entity: %w", err)
		}
		return nil
	})

	if err != nil {
		return err
	}

	c.changes.Publish(struct{}{})
	return nil
}

// List returns all entities ordered by id (bbolt keeps keys sorted)
func (c *Collection) List(ctx context.Context) ([]*models.SyncEntity, error) {
	db := c.storage.handle()
	if db == nil {
		return nil, storage.ErrStorageClosed
	}

	entities := make([]*models.SyncEntity, 0)

	err := db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil {
			// Нет bucket - возвращаем пустой массив
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var entity models.SyncEntity
			if err := json.Unmarshal(v, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity %s: %w", k, err)
			}
			entities = append(entities, &entity)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list %s entities: %w", c.kind, err)
	}

	return entities, nil
}

// Watch streams full snapshots after every change
func (c *Collection) Watch(ctx context.Context) (<-chan []*models.SyncEntity, error) {
	if c.storage.handle() == nil {
		return nil, storage.ErrStorageClosed
	}
	return storage.WatchList(ctx, c.changes, c.List, c.storage.logger), nil
}
