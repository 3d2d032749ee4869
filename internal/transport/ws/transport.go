// Package ws implements the sync transport over loopback WebSocket
// connections between sibling processes.
//
// Every endpoint serves /sync and /health on 127.0.0.1 and dials the
// candidate ports of its configured peers. After a hello exchange both
// sides send their registered objects and then stream updates and deletes
// as JSON frames.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/transport"
	"github.com/iudanet/peersync/pkg/api"
)

const (
	// DefaultRedialInterval пауза между попытками подключиться к пирам
	DefaultRedialInterval = 2 * time.Second
	// DefaultHandshakeTimeout время на обмен hello
	DefaultHandshakeTimeout = 5 * time.Second
	// DefaultRateLimit входящих кадров в секунду на одно соединение
	DefaultRateLimit = 200

	writeTimeout  = 5 * time.Second
	changesBuffer = 256
)

// Options tune an endpoint beyond transport.Config.
type Options struct {
	Logger           *slog.Logger
	Resolver         PeerResolver // Resolver nil означает: только принимать входящие
	RedialInterval   time.Duration
	HandshakeTimeout time.Duration
	RateLimit        rate.Limit
	RateBurst        int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RedialInterval <= 0 {
		o.RedialInterval = DefaultRedialInterval
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.RateBurst <= 0 {
		o.RateBurst = max(1, int(o.RateLimit))
	}
	return o
}

// Transport is a WebSocket sync endpoint.
type Transport struct {
	objects map[string]models.FieldMap // map[id]fields
	peers   map[*peerConn]struct{}
	changes chan transport.Change
	server  *http.Server
	cancel  context.CancelFunc
	logger  *slog.Logger
	addr    string
	opts    Options
	cfg     transport.Config
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var _ transport.Transport = (*Transport)(nil)

// New creates a stopped endpoint.
func New(cfg transport.Config, opts Options) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	return &Transport{
		cfg:     cfg,
		opts:    opts,
		logger:  opts.Logger.With("app_id", cfg.AppID, "service", cfg.ServiceName),
		objects: make(map[string]models.FieldMap),
		peers:   make(map[*peerConn]struct{}),
		changes: make(chan transport.Change, changesBuffer),
	}, nil
}

// NewFactory returns a transport.Factory building endpoints with opts.
func NewFactory(opts Options) transport.Factory {
	return func(cfg transport.Config) (transport.Transport, error) {
		return New(cfg, opts)
	}
}

// Start binds 127.0.0.1:ServerPort and starts serving and dialing.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(ports.Host, strconv.Itoa(t.cfg.ServerPort)))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", t.cfg.ServerPort, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.server = &http.Server{
		Handler:           t.routes(),
		ReadHeaderTimeout: t.opts.HandshakeTimeout,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}
	t.cancel = cancel
	t.addr = ln.Addr().String()
	t.running = true

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("Sync server failed", "error", err)
		}
	}()

	if t.opts.Resolver != nil {
		t.wg.Add(1)
		go t.dialLoop(runCtx)
	}

	t.logger.Info("Sync endpoint started", "addr", t.addr)
	return nil
}

// Stop closes every peer connection and the listener.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	server := t.server
	t.cancel()
	t.mu.Unlock()

	// отмена контекста закрывает соединения пиров, Shutdown - слушателя
	err := server.Shutdown(ctx)
	t.wg.Wait()

	t.logger.Info("Sync endpoint stopped")
	if err != nil {
		return fmt.Errorf("failed to shut down sync server: %w", err)
	}
	return nil
}

// RegisterObject records the object and pushes it to connected peers.
func (t *Transport) RegisterObject(ctx context.Context, schema models.Schema, entity *models.SyncEntity) error {
	return t.UpdateObject(ctx, entity.ID, schema.Encode(entity))
}

// UpdateObject records the new state and pushes it to connected peers.
func (t *Transport) UpdateObject(ctx context.Context, id string, fields models.FieldMap) error {
	t.mu.Lock()
	t.objects[id] = fields
	running := t.running
	t.mu.Unlock()

	if !running {
		return transport.ErrNotStarted
	}

	return t.publish(ctx, &api.Frame{Type: api.FrameUpdate, AppID: t.cfg.AppID, ID: id, Fields: fields})
}

// DeleteObject forgets the object and pushes the delete to connected peers.
func (t *Transport) DeleteObject(ctx context.Context, id string) error {
	t.mu.Lock()
	delete(t.objects, id)
	running := t.running
	t.mu.Unlock()

	if !running {
		return transport.ErrNotStarted
	}

	return t.publish(ctx, &api.Frame{Type: api.FrameDelete, AppID: t.cfg.AppID, ID: id})
}

// Changes returns the inbound event stream.
func (t *Transport) Changes() <-chan transport.Change {
	return t.changes
}

// Addr returns the bound address, empty while stopped.
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return ""
	}
	return t.addr
}

// Peers returns the sorted app IDs of connected peers.
func (t *Transport) Peers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool, len(t.peers))
	out := make([]string, 0, len(t.peers))
	for p := range t.peers {
		if !seen[p.appID] {
			seen[p.appID] = true
			out = append(out, p.appID)
		}
	}
	sort.Strings(out)
	return out
}

func (t *Transport) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sync", t.handleSync)
	mux.HandleFunc("GET /health", t.handleHealth)

	return withRecovery(t.logger)(withRequestLogging(t.logger, "/health")(mux))
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	objects := len(t.objects)
	t.mu.Unlock()

	resp := api.HealthResponse{
		Status:      "ok",
		AppID:       t.cfg.AppID,
		ServiceName: t.cfg.ServiceName,
		Version:     t.cfg.AppVersion,
		Peers:       t.Peers(),
		Objects:     objects,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.logger.Error("failed to encode health response", "error", err)
	}
}

// publish sends one frame to every connected peer. A peer that cannot be
// written to is disconnected; the error is not returned to the caller.
func (t *Transport) publish(ctx context.Context, f *api.Frame) error {
	data, err := api.EncodeFrame(f)
	if err != nil {
		return err
	}

	for _, p := range t.peerList() {
		if err := p.write(ctx, data); err != nil {
			t.logger.Warn("Failed to send frame to peer", "peer", p.appID, "type", f.Type, "error", err)
			p.drop()
		}
	}
	return nil
}

func (t *Transport) snapshot() map[string]models.FieldMap {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]models.FieldMap, len(t.objects))
	for id, fields := range t.objects {
		out[id] = fields
	}
	return out
}

func (t *Transport) peerList() []*peerConn {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*peerConn, 0, len(t.peers))
	for p := range t.peers {
		out = append(out, p)
	}
	return out
}

func (t *Transport) connected(appID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for p := range t.peers {
		if p.appID == appID {
			return true
		}
	}
	return false
}
