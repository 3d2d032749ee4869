package syncmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/transport"
	"github.com/iudanet/peersync/internal/validation"
)

// InboundPolicy adjusts a decoded remote entity before it is compared with
// the local record. It may only change payload fields.
type InboundPolicy func(localAppID string, remote *models.SyncEntity)

// DefaultSelector picks the default record of a kind from the full list.
type DefaultSelector func(entities []*models.SyncEntity) (*models.SyncEntity, bool)

// BootstrapFunc makes sure kind specific records exist before the manager
// publishes its state. It must be idempotent.
type BootstrapFunc func(ctx context.Context, store storage.EntityStore, appID string, now time.Time) error

// KindSpec describes one entity kind.
type KindSpec struct {
	Capabilities map[string]string
	Bootstrap    BootstrapFunc
	Policy       InboundPolicy
	Default      DefaultSelector
	Kind         string
	Schema       models.Schema
	BasePort     int
}

// Validate checks the static description of a kind.
func (k KindSpec) Validate() error {
	if err := validation.ValidateKind(k.Kind); err != nil {
		return err
	}
	if err := k.Schema.Validate(); err != nil {
		return fmt.Errorf("kind %s: %w", k.Kind, err)
	}
	if err := transport.ValidateCapabilities(k.Capabilities); err != nil {
		return fmt.Errorf("kind %s: %w", k.Kind, err)
	}
	if k.BasePort <= 0 || k.BasePort > 65535 {
		return fmt.Errorf("kind %s: base port %d out of range", k.Kind, k.BasePort)
	}
	return nil
}

// ServiceName returns the default transport service name of the kind.
func (k KindSpec) ServiceName() string {
	return "peersync." + k.Kind
}

// ExclusiveFlagPolicy clears a boolean flag on updates authored by another
// application, so a peer cannot take over the local choice of e.g. the
// default theme. Only the flag is changed.
func ExclusiveFlagPolicy(field string) InboundPolicy {
	return func(localAppID string, remote *models.SyncEntity) {
		if remote.SourceApp == localAppID {
			return
		}
		if v, ok := remote.Payload[field]; ok && v.Type == models.FieldBool && v.Bool {
			remote.Payload[field] = models.BoolValue(false)
		}
	}
}

// FlagDefault selects the first record whose boolean field is true.
func FlagDefault(field string) DefaultSelector {
	return func(entities []*models.SyncEntity) (*models.SyncEntity, bool) {
		for _, e := range entities {
			if e.Payload.Bool(field) {
				return e, true
			}
		}
		return nil, false
	}
}

// SingletonDefault selects the record with the fixed id.
func SingletonDefault(id string) DefaultSelector {
	return func(entities []*models.SyncEntity) (*models.SyncEntity, bool) {
		for _, e := range entities {
			if e.ID == id {
				return e, true
			}
		}
		return nil, false
	}
}

// SeedIfMissing creates the record returned by seed unless its id exists.
func SeedIfMissing(seed func() *models.SyncEntity) BootstrapFunc {
	return func(ctx context.Context, store storage.EntityStore, appID string, now time.Time) error {
		e := seed()
		_, err := store.Get(ctx, e.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return err
		}
		return insertSeed(ctx, store, e, appID, now)
	}
}

// SeedIfEmpty creates the record returned by seed when the store is empty.
func SeedIfEmpty(seed func() *models.SyncEntity) BootstrapFunc {
	return func(ctx context.Context, store storage.EntityStore, appID string, now time.Time) error {
		existing, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		return insertSeed(ctx, store, seed(), appID, now)
	}
}

func insertSeed(ctx context.Context, store storage.EntityStore, e *models.SyncEntity, appID string, now time.Time) error {
	e.Version = 1
	e.SourceApp = appID
	e.LastModified = now
	err := store.Insert(ctx, e)
	// параллельный bootstrap уже создал запись
	if errors.Is(err, storage.ErrEntityExists) {
		return nil
	}
	return err
}
