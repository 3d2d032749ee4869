package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/peersync/internal/config"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/storage/boltdb"
	"github.com/iudanet/peersync/internal/storage/sqlite"
)

// Store is an opened database holding one collection per kind.
type Store interface {
	Collection(kind string) (storage.EntityStore, error)
	Close() error
}

// OpenStore opens the database selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		s, err := boltdb.New(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return boltStore{s}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return sqliteStore{s}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type boltStore struct{ *boltdb.Storage }

func (s boltStore) Collection(kind string) (storage.EntityStore, error) {
	return s.Storage.Collection(kind)
}

type sqliteStore struct{ *sqlite.Storage }

func (s sqliteStore) Collection(kind string) (storage.EntityStore, error) {
	return s.Storage.Collection(kind)
}
