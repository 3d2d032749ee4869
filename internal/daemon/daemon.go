// Package daemon wires the configured kinds into running managers: one entity
// store, one WebSocket transport and one manager per kind.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iudanet/peersync/internal/config"
	"github.com/iudanet/peersync/internal/kinds"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/syncmgr"
	"github.com/iudanet/peersync/internal/transport"
	"github.com/iudanet/peersync/internal/transport/ws"
)

// Daemon owns the store and the managers of all enabled kinds.
type Daemon struct {
	store    Store
	registry *syncmgr.Registry
	logger   *slog.Logger
	cfg      *config.Config

	stopRepublish context.CancelFunc
	republishWG   sync.WaitGroup
}

// TransportFactory builds the transport factory of one kind. Tests replace it
// with an in-process hub.
type TransportFactory func(spec syncmgr.KindSpec) transport.Factory

// WebSocketTransports returns the production transport factory: every kind
// listens on its allocated port and dials the configured peers on the
// candidate ports of the same kind.
func WebSocketTransports(cfg *config.Config, logger *slog.Logger) TransportFactory {
	return func(spec syncmgr.KindSpec) transport.Factory {
		return ws.NewFactory(ws.Options{
			Logger:           logger,
			Resolver:         ws.CandidateResolver(cfg.Peers, spec.BasePort, cfg.PortAttempts),
			RedialInterval:   cfg.Transport.RedialInterval,
			HandshakeTimeout: cfg.Transport.HandshakeTimeout,
			RateLimit:        rate.Limit(cfg.Transport.RateLimit),
			RateBurst:        cfg.Transport.RateBurst,
		})
	}
}

// New opens the store and builds a stopped manager for every enabled kind.
// A nil transports uses WebSocketTransports.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, transports TransportFactory) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if transports == nil {
		transports = WebSocketTransports(cfg, logger)
	}

	store, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	d := &Daemon{
		store:    store,
		registry: syncmgr.NewRegistry(),
		logger:   logger,
		cfg:      cfg,
	}

	allocator := ports.NewAllocator(cfg.PortAttempts)
	for _, name := range cfg.Kinds {
		if err := d.register(name, allocator, transports); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return d, nil
}

func (d *Daemon) register(name string, allocator *ports.Allocator, transports TransportFactory) error {
	spec, err := kinds.Lookup(name)
	if err != nil {
		return err
	}

	collection, err := d.store.Collection(name)
	if err != nil {
		return fmt.Errorf("failed to open %s collection: %w", name, err)
	}

	m, err := d.registry.GetOrCreate(name, syncmgr.Config{
		Store:             collection,
		Transport:         transports(spec),
		Allocator:         allocator,
		Logger:            d.logger,
		AppID:             d.cfg.App.ID,
		AppName:           d.cfg.App.Name,
		AppVersion:        d.cfg.App.Version,
		ServiceName:       d.cfg.ServiceName,
		Spec:              spec,
		NotifyBuffer:      d.cfg.NotifyBuffer,
		TombstoneCapacity: d.cfg.TombstoneCapacity,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s manager: %w", name, err)
	}

	d.logger.Info("Kind registered", "kind", name, "port", m.Port())
	return nil
}

// Manager returns the manager of an enabled kind.
func (d *Daemon) Manager(kind string) (*syncmgr.Manager, bool) {
	return d.registry.Get(kind)
}

// Kinds returns the enabled kinds in sorted order.
func (d *Daemon) Kinds() []string {
	return d.registry.Kinds()
}

// Start starts every manager. On failure the already started ones are
// stopped again.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.registry.StartAll(ctx); err != nil {
		if stopErr := d.registry.StopAll(ctx); stopErr != nil {
			d.logger.Error("Failed to stop managers after start failure", "error", stopErr)
		}
		return err
	}

	if interval := d.cfg.Transport.RepublishInterval; interval > 0 {
		loopCtx, cancel := context.WithCancel(context.Background())
		d.stopRepublish = cancel
		d.republishWG.Add(1)
		go d.republishLoop(loopCtx, interval)
	}

	d.logger.Info("Peersync started", "app_id", d.cfg.App.ID, "kinds", d.registry.Kinds())
	return nil
}

// Republish pushes every stored record of every kind to the transports again.
func (d *Daemon) Republish(ctx context.Context) error {
	var errs []error
	for _, kind := range d.registry.Kinds() {
		m, ok := d.registry.Get(kind)
		if !ok {
			continue
		}
		if err := m.Republish(ctx); err != nil {
			errs = append(errs, fmt.Errorf("republish %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Daemon) republishLoop(ctx context.Context, interval time.Duration) {
	defer d.republishWG.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Republish(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("Failed to republish state", "error", err)
			}
		}
	}
}

// Stop stops every manager and closes the store.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.stopRepublish != nil {
		d.stopRepublish()
		d.republishWG.Wait()
		d.stopRepublish = nil
	}

	stopErr := d.registry.StopAll(ctx)
	closeErr := d.store.Close()
	d.logger.Info("Peersync stopped", "app_id", d.cfg.App.ID)
	return errors.Join(stopErr, closeErr)
}

// Run starts the daemon, blocks until ctx is done and then stops it,
// allowing shutdownTimeout for the transports to close.
func (d *Daemon) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := d.Start(ctx); err != nil {
		_ = d.store.Close()
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return d.Stop(stopCtx)
}
