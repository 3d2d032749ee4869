package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/transport"
	"github.com/iudanet/peersync/pkg/api"
)

var (
	// ErrIncompatiblePeer is returned when the peer's hello does not match.
	ErrIncompatiblePeer = errors.New("incompatible peer")
	// ErrUnexpectedPeer is returned when a dialed port belongs to another app.
	ErrUnexpectedPeer = errors.New("unexpected peer")
)

// maxSnapshotFrames ограничивает число кадров без лимита скорости,
// которое пир может заявить в hello
const maxSnapshotFrames = 1 << 20

// peerConn одно установленное соединение с пиром
type peerConn struct {
	conn     *websocket.Conn
	limiter  *rate.Limiter
	snapshot map[string]models.FieldMap // snapshot отправляется пиру после hello
	appID    string
	// unthrottled кадры начального состояния пира, которые читаются без лимитера
	unthrottled int
}

func (p *peerConn) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.conn.Write(ctx, websocket.MessageText, data)
}

func (p *peerConn) drop() {
	_ = p.conn.CloseNow()
}

func (t *Transport) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		t.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	p, err := t.attach(r.Context(), conn, "")
	if err != nil {
		t.logger.Debug("Rejected inbound peer", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	t.run(r.Context(), p)
}

// attach exchanges hello frames and registers the connection.
// expectAppID is checked when non-empty. On error the connection is closed.
func (t *Transport) attach(ctx context.Context, conn *websocket.Conn, expectAppID string) (*peerConn, error) {
	hsCtx, cancel := context.WithTimeout(ctx, t.opts.HandshakeTimeout)
	defer cancel()

	snapshot := t.snapshot()
	hello, err := api.EncodeFrame(&api.Frame{
		Type:  api.FrameHello,
		AppID: t.cfg.AppID,
		Hello: &api.Hello{
			ServiceName:  t.cfg.ServiceName,
			AppName:      t.cfg.AppName,
			AppVersion:   t.cfg.AppVersion,
			Schema:       t.cfg.Schema.Fingerprint(),
			Capabilities: t.cfg.Capabilities,
			Objects:      len(snapshot),
		},
	})
	if err != nil {
		_ = conn.CloseNow()
		return nil, err
	}
	if err := conn.Write(hsCtx, websocket.MessageText, hello); err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("failed to send hello: %w", err)
	}

	_, data, err := conn.Read(hsCtx)
	if err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}

	remote, err := api.DecodeFrame(data)
	if err == nil {
		err = t.checkHello(remote, expectAppID)
	}
	if err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, closeReason(err))
		return nil, err
	}

	p := &peerConn{
		conn:        conn,
		appID:       remote.AppID,
		limiter:     rate.NewLimiter(t.opts.RateLimit, t.opts.RateBurst),
		snapshot:    snapshot,
		unthrottled: min(remote.Hello.Objects, maxSnapshotFrames),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		_ = conn.Close(websocket.StatusGoingAway, "endpoint stopping")
		return nil, transport.ErrNotStarted
	}
	t.peers[p] = struct{}{}
	t.wg.Add(1)

	t.logger.Info("Peer connected", "peer", p.appID, "app_name", remote.Hello.AppName, "app_version", remote.Hello.AppVersion)
	return p, nil
}

func (t *Transport) checkHello(f *api.Frame, expectAppID string) error {
	if f.Type != api.FrameHello {
		return fmt.Errorf("%w: expected hello, got %s", ErrIncompatiblePeer, f.Type)
	}
	if f.AppID == t.cfg.AppID {
		return fmt.Errorf("%w: peer has our own app id", ErrUnexpectedPeer)
	}
	if expectAppID != "" && f.AppID != expectAppID {
		return fmt.Errorf("%w: want %q, got %q", ErrUnexpectedPeer, expectAppID, f.AppID)
	}
	if f.Hello.ServiceName != t.cfg.ServiceName {
		return fmt.Errorf("%w: service %q", ErrIncompatiblePeer, f.Hello.ServiceName)
	}
	if f.Hello.Schema != t.cfg.Schema.Fingerprint() {
		return fmt.Errorf("%w: schema %q", ErrIncompatiblePeer, f.Hello.Schema)
	}
	if err := transport.Compatible(t.cfg.Capabilities, f.Hello.Capabilities); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatiblePeer, err)
	}
	return nil
}

// run reads the peer's frames until the connection or the endpoint ends.
// The registered objects are sent concurrently so that two peers with large
// state do not both block on writing before either starts reading.
func (t *Transport) run(ctx context.Context, p *peerConn) {
	ctx, cancel := context.WithCancel(ctx)
	sent := make(chan struct{})

	defer t.wg.Done()
	defer func() {
		cancel()
		t.mu.Lock()
		delete(t.peers, p)
		t.mu.Unlock()
		p.drop()
		<-sent
		t.logger.Info("Peer disconnected", "peer", p.appID)
	}()

	go func() {
		defer close(sent)
		t.sendSnapshot(ctx, p)
	}()

	for {
		_, data, err := p.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				t.logger.Debug("Peer read failed", "peer", p.appID, "error", err)
			}
			return
		}

		// начальное состояние пира не ограничивается, остальные кадры идут через лимитер
		if p.unthrottled > 0 {
			p.unthrottled--
		} else if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		f, err := api.DecodeFrame(data)
		if err != nil {
			t.logger.Warn("Dropping invalid frame", "peer", p.appID, "error", err)
			continue
		}

		change, ok := t.toChange(f)
		if !ok {
			continue
		}

		select {
		case t.changes <- change:
		case <-ctx.Done():
			return
		}
	}
}

// sendSnapshot writes the objects registered at handshake time. A failed
// write closes the connection, which ends the read loop.
func (t *Transport) sendSnapshot(ctx context.Context, p *peerConn) {
	for id, fields := range p.snapshot {
		data, err := api.EncodeFrame(&api.Frame{Type: api.FrameUpdate, AppID: t.cfg.AppID, ID: id, Fields: fields})
		if err != nil {
			t.logger.Error("Failed to encode registered object", "id", id, "error", err)
			continue
		}
		if err := p.write(ctx, data); err != nil {
			if ctx.Err() == nil {
				t.logger.Warn("Failed to publish state to peer", "peer", p.appID, "error", err)
				p.drop()
			}
			return
		}
	}
	p.snapshot = nil
	t.logger.Debug("Published state to peer", "peer", p.appID)
}

func (t *Transport) toChange(f *api.Frame) (transport.Change, bool) {
	// эхо собственных изменений
	if f.AppID == t.cfg.AppID {
		return transport.Change{}, false
	}

	switch f.Type {
	case api.FrameUpdate:
		return transport.Change{Op: transport.OpUpdated, ID: f.ID, Fields: models.FieldMap(f.Fields), Origin: f.AppID}, true
	case api.FrameDelete:
		return transport.Change{Op: transport.OpDeleted, ID: f.ID, Origin: f.AppID}, true
	default:
		return transport.Change{}, false
	}
}

// closeReason keeps the close frame under the 123 byte limit.
func closeReason(err error) string {
	const limit = 120
	s := err.Error()
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
