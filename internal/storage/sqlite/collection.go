package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
)

// Collection is the EntityStore of one kind backed by the entities table.
type Collection struct {
	db      *sql.DB
	logger  *slog.Logger
	changes *broadcast.Broadcaster[struct{}]
	kind    string
}

var _ storage.EntityStore = (*Collection)(nil)

// Kind returns the entity kind of this collection
func (c *Collection) Kind() string {
	return c.kind
}

// Get retrieves an entity by ID
// Returns ErrEntityNotFound if entity doesn't exist
func (c *Collection) Get(ctx context.Context, id string) (*models.SyncEntity, error) {
	query := `
		SELECT id, version, last_modified, source_app, payload
		FROM entities
		WHERE kind = ? AND id = ?
	`

	entity, err := c.scanEntity(c.db.QueryRowContext(ctx, query, c.kind, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return entity, nil
}

// Insert creates a new row
// Returns ErrEntityExists if (kind, id) is taken
func (c *Collection) Insert(ctx context.Context, entity *models.SyncEntity) error {
	payload, err := json.Marshal(entity.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO entities (kind, id, version, last_modified, source_app, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(ctx, query,
		c.kind,
		entity.ID,
		entity.Version,
		timeToMillis(entity.LastModified),
		entity.SourceApp,
		string(payload),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEntityExists
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	c.changes.Publish(struct{}{})
	return nil
}

// Update replaces an existing row whose version is still prevVersion
// Returns ErrEntityNotFound if the row doesn't exist and
// ErrVersionConflict if it holds another version
func (c *Collection) Update(ctx context.Context, entity *models.SyncEntity, prevVersion int64) error {
	payload, err := json.Marshal(entity.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		UPDATE entities
		SET version = ?, last_modified = ?, source_app = ?, payload = ?
		WHERE kind = ? AND id = ? AND version = ?
	`

	result, err := c.db.ExecContext(ctx, query,
		entity.Version,
		timeToMillis(entity.LastModified),
		entity.SourceApp,
		string(payload),
		c.kind,
		entity.ID,
		prevVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return err
		}
		// ни одной строки: записи нет или у нее другая версия
		if _, getErr := c.Get(ctx, entity.ID); getErr == nil {
			return storage.ErrVersionConflict
		}
		return err
	}

	c.changes.Publish(struct{}{})
	return nil
}

// Delete removes a row (hard delete)
// Returns ErrEntityNotFound if the row doesn't exist
func (c *Collection) Delete(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, c.kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	c.changes.Publish(struct{}{})
	return nil
}

// List returns all entities of the kind ordered by id
func (c *Collection) List(ctx context.Context) (entities []*models.SyncEntity, err error) {
	query := `
		SELECT id, version, last_modified, source_app, payload
		FROM entities
		WHERE kind = ?
		ORDER BY id ASC
	`

	rows, err := c.db.QueryContext(ctx, query, c.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	entities = make([]*models.SyncEntity, 0)
	for rows.Next() {
		entity, err := c.scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entities, nil
}

// Watch streams full snapshots after every change made through this collection
func (c *Collection) Watch(ctx context.Context) (<-chan []*models.SyncEntity, error) {
	return storage.WatchList(ctx, c.changes, c.List, c.logger), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *Collection) scanEntity(row scanner) (*models.SyncEntity, error) {
	entity := &models.SyncEntity{Kind: c.kind}
	var lastModified int64
	var payload string

	if err := row.Scan(&entity.ID, &entity.Version, &lastModified, &entity.SourceApp, &payload); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &entity.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	entity.LastModified = millisToTime(lastModified)

	return entity, nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrEntityNotFound
	}
	return nil
}

// isUniqueViolation распознает нарушение PRIMARY KEY по тексту ошибки драйвера
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
