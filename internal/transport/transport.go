// Package transport defines the peer sync endpoint consumed by the sync manager.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/peersync/internal/models"
)

//go:generate moq -out transport_mock.go . Transport

// ErrNotStarted is returned by operations that need a running endpoint.
// Object state passed to a stopped endpoint is still recorded and is
// published on the next Start.
var ErrNotStarted = errors.New("transport not started")

// Op is the kind of an inbound change.
type Op int

const (
	// OpUpdated a peer published the full state of an object
	OpUpdated Op = iota + 1
	// OpDeleted a peer removed an object
	OpDeleted
)

func (o Op) String() string {
	switch o {
	case OpUpdated:
		return "updated"
	case OpDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Change is one inbound event from a peer.
type Change struct {
	Fields models.FieldMap // Fields полное состояние объекта (только для OpUpdated)
	ID     string          // ID идентификатор объекта
	Origin string          // Origin app ID пира, доставившего событие
	Op     Op
}

// Config holds the construction parameters of one endpoint.
type Config struct {
	Capabilities map[string]string // Capabilities версии протокола, например {"theme_sync": "1.0"}
	AppID        string
	AppName      string
	AppVersion   string
	ServiceName  string
	Schema       models.Schema
	ServerPort   int
}

// Validate checks that the config can be used to build an endpoint.
func (c Config) Validate() error {
	if c.AppID == "" {
		return errors.New("transport config: app id is required")
	}
	if c.ServiceName == "" {
		return errors.New("transport config: service name is required")
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}
	if err := ValidateCapabilities(c.Capabilities); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}
	return nil
}

// Transport is a peer sync endpoint bound to one local port.
//
// RegisterObject, UpdateObject and DeleteObject keep the endpoint's view of
// local objects current; a running endpoint also pushes them to connected
// peers, and every peer that connects later receives the registered set.
type Transport interface {
	// Start binds the endpoint. Calling Start on a running endpoint is a no-op.
	Start(ctx context.Context) error

	// Stop releases the endpoint. Calling Stop on a stopped endpoint is a no-op.
	Stop(ctx context.Context) error

	// RegisterObject announces a locally held record under the kind's schema.
	RegisterObject(ctx context.Context, schema models.Schema, entity *models.SyncEntity) error

	// UpdateObject propagates the full new state of an object.
	UpdateObject(ctx context.Context, id string, fields models.FieldMap) error

	// DeleteObject propagates a hard delete.
	DeleteObject(ctx context.Context, id string) error

	// Changes returns the single inbound event stream. The channel lives as
	// long as the endpoint and is not closed by Stop.
	Changes() <-chan Change
}

// Factory builds an endpoint for one kind.
type Factory func(cfg Config) (Transport, error)
