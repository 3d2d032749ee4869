// Package boltdb implements the entity store on top of bbolt,
// one bucket per entity kind.
package boltdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/validation"
)

const bucketPrefix = "entities."

// OpenTimeout ограничивает ожидание блокировки файла базы
const OpenTimeout = 2 * time.Second

// Storage represents BoltDB storage implementation
type Storage struct {
	db          *bbolt.DB
	logger      *slog.Logger
	collections map[string]*Collection
	mu          sync.Mutex
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Открываем BoltDB; файл заблокирован, пока его держит другой процесс
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	return &Storage{
		db:          db,
		logger:      logger,
		collections: make(map[string]*Collection),
	}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Collection returns the store for one entity kind, creating its bucket if needed.
// Repeated calls for the same kind return the same collection.
func (s *Storage) Collection(kind string) (*Collection, error) {
	if err := validation.ValidateKind(kind); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[kind]; ok {
		return c, nil
	}
	if s.db == nil {
		return nil, fmt.Errorf("collection %s: %w", kind, errClosed)
	}

	bucket := []byte(bucketPrefix + kind)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := &Collection{
		storage: s,
		bucket:  bucket,
		kind:    kind,
		changes: broadcast.New[struct{}](1),
	}
	s.collections[kind] = c
	return c, nil
}

// handle returns the open db or nil when the storage was closed
func (s *Storage) handle() *bbolt.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}
