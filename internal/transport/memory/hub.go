// Package memory implements an in-process sync transport: endpoints of one
// service joined to the same Hub exchange objects directly.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/transport"
)

const changesBuffer = 256

// Hub connects endpoints by service name.
type Hub struct {
	services map[string]map[*Endpoint]struct{}
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		services: make(map[string]map[*Endpoint]struct{}),
		logger:   logger,
	}
}

// Factory returns a transport.Factory producing endpoints on this hub.
func (h *Hub) Factory() transport.Factory {
	return func(cfg transport.Config) (transport.Transport, error) {
		return h.Endpoint(cfg)
	}
}

// Endpoint creates a stopped endpoint.
func (h *Hub) Endpoint(cfg transport.Config) (*Endpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Endpoint{
		hub:     h,
		cfg:     cfg,
		objects: make(map[string]models.FieldMap),
		changes: make(chan transport.Change, changesBuffer),
		logger:  h.logger.With("app_id", cfg.AppID, "service", cfg.ServiceName),
	}, nil
}

// peers returns the running endpoints of e's service that may talk to e.
func (h *Hub) peers(e *Endpoint) []*Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*Endpoint
	for p := range h.services[e.cfg.ServiceName] {
		if p == e || p.cfg.AppID == e.cfg.AppID {
			continue
		}
		if p.cfg.Schema.Fingerprint() != e.cfg.Schema.Fingerprint() {
			continue
		}
		if err := transport.Compatible(e.cfg.Capabilities, p.cfg.Capabilities); err != nil {
			h.logger.Debug("Skipping incompatible peer", "app_id", e.cfg.AppID, "peer", p.cfg.AppID, "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (h *Hub) join(e *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.services[e.cfg.ServiceName]
	if !ok {
		group = make(map[*Endpoint]struct{})
		h.services[e.cfg.ServiceName] = group
	}
	group[e] = struct{}{}
}

func (h *Hub) leave(e *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.services[e.cfg.ServiceName]
	delete(group, e)
	if len(group) == 0 {
		delete(h.services, e.cfg.ServiceName)
	}
}

// Endpoint is one process's transport on a Hub.
type Endpoint struct {
	hub     *Hub
	objects map[string]models.FieldMap // map[id]fields
	changes chan transport.Change
	done    chan struct{}
	logger  *slog.Logger
	cfg     transport.Config
	mu      sync.Mutex
	running bool
}

var _ transport.Transport = (*Endpoint)(nil)

// Start joins the hub and pulls the registered objects of running peers.
func (e *Endpoint) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.done = make(chan struct{})
	e.mu.Unlock()

	e.hub.join(e)
	e.logger.Debug("Endpoint started")

	// новый участник получает текущее состояние соседей; доставка идет в
	// фоне, потому что потребитель Changes обычно запускается после Start
	peers := e.hub.peers(e)
	go func() {
		for _, p := range peers {
			for id, fields := range p.snapshot() {
				e.deliver(transport.Change{Op: transport.OpUpdated, ID: id, Fields: fields, Origin: p.cfg.AppID})
			}
		}
	}()

	return nil
}

// Stop leaves the hub. Registered objects are kept for the next Start.
func (e *Endpoint) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.done)
	e.mu.Unlock()

	e.hub.leave(e)
	e.logger.Debug("Endpoint stopped")
	return nil
}

// RegisterObject records the object and pushes it to running peers.
func (e *Endpoint) RegisterObject(ctx context.Context, schema models.Schema, entity *models.SyncEntity) error {
	return e.UpdateObject(ctx, entity.ID, schema.Encode(entity))
}

// UpdateObject records the new state and pushes it to running peers.
func (e *Endpoint) UpdateObject(ctx context.Context, id string, fields models.FieldMap) error {
	fields = copyFields(fields)

	e.mu.Lock()
	e.objects[id] = fields
	running := e.running
	e.mu.Unlock()

	if !running {
		return transport.ErrNotStarted
	}

	for _, p := range e.hub.peers(e) {
		p.deliver(transport.Change{Op: transport.OpUpdated, ID: id, Fields: copyFields(fields), Origin: e.cfg.AppID})
	}
	return nil
}

// DeleteObject forgets the object and tells running peers.
func (e *Endpoint) DeleteObject(ctx context.Context, id string) error {
	e.mu.Lock()
	delete(e.objects, id)
	running := e.running
	e.mu.Unlock()

	if !running {
		return transport.ErrNotStarted
	}

	for _, p := range e.hub.peers(e) {
		p.deliver(transport.Change{Op: transport.OpDeleted, ID: id, Origin: e.cfg.AppID})
	}
	return nil
}

// Changes returns the inbound event stream.
func (e *Endpoint) Changes() <-chan transport.Change {
	return e.changes
}

// Objects returns a copy of the registered objects.
func (e *Endpoint) Objects() map[string]models.FieldMap {
	return e.snapshot()
}

func (e *Endpoint) snapshot() map[string]models.FieldMap {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]models.FieldMap, len(e.objects))
	for id, fields := range e.objects {
		out[id] = copyFields(fields)
	}
	return out
}

// deliver blocks while the inbox is full, unless the endpoint stops.
func (e *Endpoint) deliver(c transport.Change) {
	e.mu.Lock()
	done := e.done
	running := e.running
	e.mu.Unlock()

	if !running {
		return
	}

	select {
	case e.changes <- c:
	case <-done:
	}
}

func copyFields(fm models.FieldMap) models.FieldMap {
	out := make(models.FieldMap, len(fm))
	for k, v := range fm {
		out[k] = v
	}
	return out
}
