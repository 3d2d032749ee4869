package ws

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/iudanet/peersync/internal/ports"
)

// Peer is a sibling application and the addresses it may listen on.
type Peer struct {
	AppID string
	Addrs []string // Addrs host:port в порядке перебора
}

// PeerResolver returns the peers to keep connected to.
type PeerResolver func() []Peer

// CandidateResolver resolves each peer app ID to the candidate ports the
// port allocator would probe for it on basePort.
func CandidateResolver(appIDs []string, basePort, attempts int) PeerResolver {
	peers := make([]Peer, 0, len(appIDs))
	for _, appID := range appIDs {
		candidates := ports.Candidates(appID, basePort, attempts)
		addrs := make([]string, 0, len(candidates))
		for _, port := range candidates {
			addrs = append(addrs, net.JoinHostPort(ports.Host, strconv.Itoa(port)))
		}
		peers = append(peers, Peer{AppID: appID, Addrs: addrs})
	}

	return func() []Peer {
		return peers
	}
}

// StaticResolver always returns the given peers.
func StaticResolver(peers ...Peer) PeerResolver {
	return func() []Peer {
		return peers
	}
}

func (t *Transport) dialLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.opts.RedialInterval)
	defer ticker.Stop()

	for {
		t.dialPeers(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Transport) dialPeers(ctx context.Context) {
	own := t.Addr()

	for _, peer := range t.opts.Resolver() {
		if peer.AppID == t.cfg.AppID || t.connected(peer.AppID) {
			continue
		}

		for _, addr := range peer.Addrs {
			if ctx.Err() != nil {
				return
			}
			if addr == own {
				continue
			}

			p, err := t.dial(ctx, addr, peer.AppID)
			if err != nil {
				if errors.Is(err, ErrIncompatiblePeer) {
					t.logger.Warn("Peer is incompatible", "peer", peer.AppID, "addr", addr, "error", err)
				}
				continue
			}

			go t.run(ctx, p)
			break
		}
	}
}

func (t *Transport) dial(ctx context.Context, addr, appID string) (*peerConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, t.opts.HandshakeTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, "ws://"+addr+"/sync", nil)
	if err != nil {
		return nil, err
	}

	return t.attach(ctx, conn, appID)
}
