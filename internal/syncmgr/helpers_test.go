package syncmgr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/storage/memory"
	"github.com/iudanet/peersync/internal/transport"
)

const localApp = "local-app"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func bookmarkSpec() KindSpec {
	return KindSpec{
		Kind: "bookmark",
		Schema: models.Schema{
			{Name: "url", Type: models.FieldString},
			{Name: "title", Type: models.FieldString},
			{Name: "position", Type: models.FieldInt},
		},
		Capabilities: map[string]string{"bookmark_sync": "1.0"},
		BasePort:     9330,
	}
}

func themeSpec() KindSpec {
	return KindSpec{
		Kind: "theme",
		Schema: models.Schema{
			{Name: "name", Type: models.FieldString},
			{Name: "isDefault", Type: models.FieldBool},
		},
		Capabilities: map[string]string{"theme_sync": "1.0"},
		BasePort:     8930,
		Policy:       ExclusiveFlagPolicy("isDefault"),
		Default:      FlagDefault("isDefault"),
	}
}

// fakeTransport собирает вызовы TransportMock и дает тесту канал входящих изменений
type fakeTransport struct {
	*transport.TransportMock
	in chan transport.Change
}

func newFakeTransport() *fakeTransport {
	in := make(chan transport.Change, 16)
	return &fakeTransport{
		in: in,
		TransportMock: &transport.TransportMock{
			StartFunc:          func(ctx context.Context) error { return nil },
			StopFunc:           func(ctx context.Context) error { return nil },
			ChangesFunc:        func() <-chan transport.Change { return in },
			RegisterObjectFunc: func(ctx context.Context, schema models.Schema, entity *models.SyncEntity) error { return nil },
			UpdateObjectFunc:   func(ctx context.Context, id string, fields models.FieldMap) error { return nil },
			DeleteObjectFunc:   func(ctx context.Context, id string) error { return nil },
		},
	}
}

func (f *fakeTransport) factory() transport.Factory {
	return func(cfg transport.Config) (transport.Transport, error) {
		return f, nil
	}
}

type fixture struct {
	m         *Manager
	store     storage.EntityStore
	transport *fakeTransport
}

func newFixture(t *testing.T, spec KindSpec, mutate ...func(cfg *Config)) *fixture {
	t.Helper()

	var ids atomic.Int64
	store := memory.New(nil)
	tr := newFakeTransport()
	cfg := Config{
		Store:     store,
		Transport: tr.factory(),
		Allocator: &ports.Allocator{Probe: func(int) bool { return true }},
		AppID:     localApp,
		Spec:      spec,
		Now:       func() time.Time { return fixedNow },
		NewID:     func() string { return fmt.Sprintf("gen-%d", ids.Add(1)) },
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	m, err := New(cfg)
	require.NoError(t, err)
	return &fixture{m: m, store: store, transport: tr}
}

func bookmark(id string, version int64, title string) *models.SyncEntity {
	return &models.SyncEntity{
		ID:           id,
		Kind:         "bookmark",
		Version:      version,
		SourceApp:    "peer-app",
		LastModified: fixedNow,
		Payload: models.Payload{
			"url":      models.StringValue("https://example.org/" + id),
			"title":    models.StringValue(title),
			"position": models.IntValue(0),
		},
	}
}

func updated(schema models.Schema, e *models.SyncEntity) transport.Change {
	return transport.Change{Op: transport.OpUpdated, ID: e.ID, Fields: schema.Encode(e), Origin: e.SourceApp}
}

func deleted(id string) transport.Change {
	return transport.Change{Op: transport.OpDeleted, ID: id, Origin: "peer-app"}
}

func recv(t *testing.T, sub *broadcast.Subscription[*models.SyncEntity]) *models.SyncEntity {
	t.Helper()
	select {
	case e, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
		return nil
	}
}

func requireNoNotification(t *testing.T, sub *broadcast.Subscription[*models.SyncEntity]) {
	t.Helper()
	select {
	case e := <-sub.C():
		t.Fatalf("unexpected notification: %+v", e)
	default:
	}
}

// interleavingStore выполняет hook сразу после очередного чтения, до того как
// вызывающий код успеет записать. Так воспроизводится гонка чтение-запись.
type interleavingStore struct {
	*memory.Store
	hook func()
	mu   sync.Mutex
}

func newInterleavingStore() *interleavingStore {
	return &interleavingStore{Store: memory.New(nil)}
}

func (s *interleavingStore) beforeNextRead(hook func()) {
	s.mu.Lock()
	s.hook = hook
	s.mu.Unlock()
}

func (s *interleavingStore) Get(ctx context.Context, id string) (*models.SyncEntity, error) {
	entity, err := s.Store.Get(ctx, id)

	s.mu.Lock()
	hook := s.hook
	s.hook = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return entity, err
}
