// Package syncmgr keeps the entities of one kind consistent across sibling
// applications. A Manager owns the lifecycle of the kind's sync transport,
// applies inbound peer changes by version and exposes the local mutation API.
package syncmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/transport"
	"github.com/iudanet/peersync/internal/validation"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds everything needed to build a Manager.
type Config struct {
	Store             storage.EntityStore
	Transport         transport.Factory
	Allocator         *ports.Allocator // Allocator nil означает ports.NewAllocator(ports.DefaultAttempts)
	Logger            *slog.Logger
	Now               func() time.Time
	NewID             func() string
	AppID             string
	AppName           string
	AppVersion        string
	ServiceName       string // ServiceName пусто означает KindSpec.ServiceName()
	Spec              KindSpec
	NotifyBuffer      int
	TombstoneCapacity int
}

func (c *Config) validate() error {
	if err := validation.ValidateAppID(c.AppID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Spec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store == nil {
		return fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if c.Transport == nil {
		return fmt.Errorf("%w: transport factory is required", ErrInvalidConfig)
	}
	return nil
}

// Manager synchronizes one entity kind for one process.
type Manager struct {
	store      storage.EntityStore
	transport  transport.Transport
	changes    *broadcast.Broadcaster[*models.SyncEntity]
	tombstones *tombstones
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	cancel     context.CancelFunc
	done       chan struct{}
	spec       KindSpec
	appID      string
	port       int
	failures   atomic.Uint64
	state      atomic.Int32
	mu         sync.Mutex // mu сериализует Start и Stop
}

// New allocates the transport port and builds a stopped manager.
// A *ports.NoAvailablePortError is returned when no candidate port is free.
func New(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("kind", cfg.Spec.Kind)

	allocator := cfg.Allocator
	if allocator == nil {
		allocator = ports.NewAllocator(ports.DefaultAttempts)
	}
	port, err := allocator.Allocate(cfg.AppID, cfg.Spec.BasePort)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = cfg.Spec.ServiceName()
	}

	tr, err := cfg.Transport(transport.Config{
		AppID:        cfg.AppID,
		AppName:      cfg.AppName,
		AppVersion:   cfg.AppVersion,
		ServerPort:   port,
		ServiceName:  serviceName,
		Schema:       cfg.Spec.Schema,
		Capabilities: cfg.Spec.Capabilities,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s transport: %w", cfg.Spec.Kind, err)
	}

	m := &Manager{
		store:      cfg.Store,
		transport:  tr,
		changes:    broadcast.New[*models.SyncEntity](cfg.NotifyBuffer),
		tombstones: newTombstones(cfg.TombstoneCapacity),
		logger:     logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
		spec:       cfg.Spec,
		appID:      cfg.AppID,
		port:       port,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}

	logger.Debug("Sync manager created", "app_id", cfg.AppID, "port", port)
	return m, nil
}

// Kind returns the entity kind handled by the manager.
func (m *Manager) Kind() string { return m.spec.Kind }

// Schema returns the kind's schema.
func (m *Manager) Schema() models.Schema { return m.spec.Schema }

// AppID returns the local application id.
func (m *Manager) AppID() string { return m.appID }

// Port returns the allocated transport port.
func (m *Manager) Port() int { return m.port }

// State returns the current lifecycle state.
func (m *Manager) State() State { return State(m.state.Load()) }

// Failures returns how many inbound changes failed to apply.
func (m *Manager) Failures() uint64 { return m.failures.Load() }

// Start bootstraps the kind, starts the transport, publishes every local
// record and begins consuming inbound changes. Start on a running manager
// is a no-op; Start after Stop starts everything again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateRunning {
		return nil
	}
	prev := m.State()
	m.state.Store(int32(StateStarting))

	fail := func(err error) error {
		m.state.Store(int32(prev))
		return err
	}

	if m.spec.Bootstrap != nil {
		if err := m.spec.Bootstrap(ctx, m.store, m.appID, m.now()); err != nil {
			return fail(&StoreError{Op: "bootstrap", Kind: m.spec.Kind, Err: err})
		}
	}

	if err := m.transport.Start(ctx); err != nil {
		return fail(&TransportStartError{Kind: m.spec.Kind, Port: m.port, Err: err})
	}

	entities, err := m.store.List(ctx)
	if err != nil {
		_ = m.transport.Stop(ctx)
		return fail(&StoreError{Op: "list", Kind: m.spec.Kind, Err: err})
	}
	for _, e := range entities {
		if err := m.transport.RegisterObject(ctx, m.spec.Schema, e); err != nil {
			m.logger.Warn("Failed to register entity", "id", e.ID, "error", err)
		}
	}

	consumeCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.consume(consumeCtx, m.transport.Changes(), m.done)

	m.state.Store(int32(StateRunning))
	m.logger.Info("Sync manager started", "port", m.port, "entities", len(entities))
	return nil
}

// Stop halts inbound processing, stops the transport and closes the change
// subscriptions. The store is left untouched.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateRunning {
		return nil
	}

	m.cancel()
	<-m.done

	err := m.transport.Stop(ctx)
	m.changes.CloseAll()
	m.state.Store(int32(StateStopped))
	m.logger.Info("Sync manager stopped")

	if err != nil {
		return fmt.Errorf("failed to stop %s transport: %w", m.spec.Kind, err)
	}
	return nil
}

// Republish registers every local record with the transport again.
func (m *Manager) Republish(ctx context.Context) error {
	if m.State() != StateRunning {
		return ErrNotRunning
	}

	entities, err := m.store.List(ctx)
	if err != nil {
		return &StoreError{Op: "list", Kind: m.spec.Kind, Err: err}
	}

	var errs []error
	for _, e := range entities {
		if err := m.transport.RegisterObject(ctx, m.spec.Schema, e); err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe returns a subscription to local change notifications: records
// inserted or updated by this process or accepted from peers. Deletes are
// not notified. Subscriptions are closed by Stop.
func (m *Manager) Subscribe() *broadcast.Subscription[*models.SyncEntity] {
	return m.changes.Subscribe()
}

func (m *Manager) notify(e *models.SyncEntity) {
	m.changes.Publish(e.Clone())
}

// consume is the only goroutine that writes remote changes to the store.
func (m *Manager) consume(ctx context.Context, changes <-chan transport.Change, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-changes:
			m.handle(ctx, c)
		}
	}
}

// handle applies one change; a failure or panic never stops the loop.
func (m *Manager) handle(ctx context.Context, c transport.Change) {
	defer func() {
		if r := recover(); r != nil {
			m.failures.Add(1)
			m.logger.Error("Panic while reconciling change",
				"id", c.ID,
				"op", c.Op.String(),
				"origin", c.Origin,
				"error", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	if _, err := m.apply(ctx, c); err != nil {
		m.failures.Add(1)
		m.logger.Warn("Failed to reconcile change", "origin", c.Origin, "error", err)
	}
}
