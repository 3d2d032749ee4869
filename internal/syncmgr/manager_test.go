package syncmgr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/storage/memory"
	"github.com/iudanet/peersync/internal/transport"
	memtransport "github.com/iudanet/peersync/internal/transport/memory"
)

func TestNew_Validation(t *testing.T) {
	base := Config{
		Store:     memory.New(nil),
		Transport: newFakeTransport().factory(),
		Allocator: &ports.Allocator{Probe: func(int) bool { return true }},
		AppID:     localApp,
		Spec:      bookmarkSpec(),
	}

	tests := []struct {
		mutate func(cfg *Config)
		name   string
	}{
		{name: "bad app id", mutate: func(cfg *Config) { cfg.AppID = "" }},
		{name: "no store", mutate: func(cfg *Config) { cfg.Store = nil }},
		{name: "no transport", mutate: func(cfg *Config) { cfg.Transport = nil }},
		{name: "bad kind", mutate: func(cfg *Config) { cfg.Spec.Kind = "Bad Kind" }},
		{name: "empty schema", mutate: func(cfg *Config) { cfg.Spec.Schema = nil }},
		{name: "bad base port", mutate: func(cfg *Config) { cfg.Spec.BasePort = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Spec.Schema = append(models.Schema(nil), base.Spec.Schema...)
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_TransportConfig(t *testing.T) {
	var got transport.Config
	tr := newFakeTransport()
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) {
		cfg.AppName = "Reader"
		cfg.AppVersion = "2.1.0"
		cfg.Transport = func(c transport.Config) (transport.Transport, error) {
			got = c
			return tr, nil
		}
	})

	assert.Equal(t, localApp, got.AppID)
	assert.Equal(t, "Reader", got.AppName)
	assert.Equal(t, "2.1.0", got.AppVersion)
	assert.Equal(t, "peersync.bookmark", got.ServiceName)
	assert.Equal(t, ports.Preferred(localApp, 9330), got.ServerPort)
	assert.Equal(t, f.m.Port(), got.ServerPort)
	assert.Equal(t, map[string]string{"bookmark_sync": "1.0"}, got.Capabilities)
	assert.Equal(t, bookmarkSpec().Schema, got.Schema)
}

func TestNew_PortFallback(t *testing.T) {
	preferred := ports.Preferred(localApp, 9330)
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) {
		cfg.Allocator = &ports.Allocator{Probe: func(port int) bool { return port != preferred }}
	})
	assert.Equal(t, preferred+1, f.m.Port())
}

func TestNew_NoAvailablePort(t *testing.T) {
	_, err := New(Config{
		Store:     memory.New(nil),
		Transport: newFakeTransport().factory(),
		Allocator: &ports.Allocator{Probe: func(int) bool { return false }},
		AppID:     localApp,
		Spec:      bookmarkSpec(),
	})

	var npe *ports.NoAvailablePortError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, ports.Preferred(localApp, 9330), npe.Start)
	assert.Equal(t, npe.Start+ports.DefaultAttempts-1, npe.End)
}

func TestManager_StartSequence(t *testing.T) {
	ctx := context.Background()
	var order []string
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) {
		cfg.Spec.Bootstrap = func(ctx context.Context, store storage.EntityStore, appID string, now time.Time) error {
			order = append(order, "bootstrap")
			return store.Insert(ctx, bookmark("seed", 1, "seed"))
		}
	})
	f.transport.StartFunc = func(ctx context.Context) error {
		order = append(order, "transport")
		return nil
	}
	f.transport.RegisterObjectFunc = func(ctx context.Context, schema models.Schema, entity *models.SyncEntity) error {
		order = append(order, "register:"+entity.ID)
		return nil
	}
	require.NoError(t, f.store.Insert(ctx, bookmark("a", 2, "a")))

	assert.Equal(t, StateUninitialized, f.m.State())
	require.NoError(t, f.m.Start(ctx))
	assert.Equal(t, StateRunning, f.m.State())
	assert.Equal(t, []string{"bootstrap", "transport", "register:a", "register:seed"}, order)

	// повторный Start ничего не делает
	require.NoError(t, f.m.Start(ctx))
	assert.Len(t, f.transport.StartCalls(), 1)

	require.NoError(t, f.m.Stop(ctx))
	assert.Equal(t, StateStopped, f.m.State())
}

func TestManager_StartTransportFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	boom := errors.New("address in use")
	f.transport.StartFunc = func(ctx context.Context) error { return boom }

	err := f.m.Start(ctx)
	var tse *TransportStartError
	require.ErrorAs(t, err, &tse)
	assert.Equal(t, "bookmark", tse.Kind)
	assert.Equal(t, f.m.Port(), tse.Port)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateUninitialized, f.m.State())
	assert.Empty(t, f.transport.RegisterObjectCalls())
}

func TestManager_StartBootstrapFailure(t *testing.T) {
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) {
		cfg.Spec.Bootstrap = func(context.Context, storage.EntityStore, string, time.Time) error {
			return errors.New("read only")
		}
	})

	var serr *StoreError
	require.ErrorAs(t, f.m.Start(context.Background()), &serr)
	assert.Equal(t, "bootstrap", serr.Op)
	assert.Empty(t, f.transport.StartCalls())
}

func TestManager_StopIsIdempotentAndClosesSubscriptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())

	require.NoError(t, f.m.Stop(ctx))
	assert.Empty(t, f.transport.StopCalls())

	require.NoError(t, f.m.Start(ctx))
	sub := f.m.Subscribe()
	require.NoError(t, f.m.Stop(ctx))
	require.NoError(t, f.m.Stop(ctx))
	assert.Len(t, f.transport.StopCalls(), 1)

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestManager_RestartRepublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("a", 1, "a")))

	require.NoError(t, f.m.Start(ctx))
	require.NoError(t, f.m.Stop(ctx))
	require.NoError(t, f.store.Insert(ctx, bookmark("b", 1, "b")))
	require.NoError(t, f.m.Start(ctx))
	defer f.m.Stop(ctx)

	assert.Len(t, f.transport.StartCalls(), 2)
	assert.Len(t, f.transport.RegisterObjectCalls(), 3)
}

func TestManager_ConsumerSurvivesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.m.Start(ctx))
	defer f.m.Stop(ctx)
	sub := f.m.Subscribe()

	f.transport.in <- transport.Change{Op: transport.OpUpdated, ID: "bad", Fields: models.FieldMap{"id": "bad"}}
	f.transport.in <- updated(f.m.Schema(), bookmark("good", 1, "ok"))

	assert.Equal(t, "good", recv(t, sub).ID)
	assert.Equal(t, uint64(1), f.m.Failures())
}

func TestManager_ConsumerRecoversPanic(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)
	store := &storage.EntityStoreMock{
		GetFunc: func(ctx context.Context, id string) (*models.SyncEntity, error) {
			if id == "boom" {
				panic("corrupted row")
			}
			return inner.Get(ctx, id)
		},
		InsertFunc: inner.Insert,
		UpdateFunc: inner.Update,
		DeleteFunc: inner.Delete,
		ListFunc:   inner.List,
		WatchFunc:  inner.Watch,
	}
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) { cfg.Store = store })
	require.NoError(t, f.m.Start(ctx))
	defer f.m.Stop(ctx)
	sub := f.m.Subscribe()

	f.transport.in <- updated(f.m.Schema(), bookmark("boom", 1, "x"))
	f.transport.in <- updated(f.m.Schema(), bookmark("next", 1, "y"))

	assert.Equal(t, "next", recv(t, sub).ID)
	assert.Equal(t, uint64(1), f.m.Failures())
}

func TestManager_Add(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	sub := f.m.Subscribe()

	added, err := f.m.Add(ctx, &models.SyncEntity{Payload: models.Payload{"title": models.StringValue("Go")}})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", added.ID)
	assert.Equal(t, "bookmark", added.Kind)
	assert.Equal(t, int64(1), added.Version)
	assert.Equal(t, localApp, added.SourceApp)
	assert.Equal(t, fixedNow, added.LastModified)
	// недостающие поля получают нулевые значения
	assert.Equal(t, models.IntValue(0), added.Payload["position"])

	assert.Equal(t, "gen-1", recv(t, sub).ID)
	require.Len(t, f.transport.RegisterObjectCalls(), 1)
	assert.Equal(t, "gen-1", f.transport.RegisterObjectCalls()[0].Entity.ID)

	// повторный Add того же id не откатывает версию
	again, err := f.m.Add(ctx, &models.SyncEntity{ID: "gen-1", Payload: models.Payload{"title": models.StringValue("Go 2")}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Version)
}

func TestManager_AddInvalidPayload(t *testing.T) {
	f := newFixture(t, bookmarkSpec())

	_, err := f.m.Add(context.Background(), &models.SyncEntity{Payload: models.Payload{"color": models.StringValue("red")}})
	assert.ErrorIs(t, err, models.ErrUnknownField)

	_, err = f.m.Add(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
}

func TestManager_AddRegistrationFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(t, bookmarkSpec())
	f.transport.RegisterObjectFunc = func(context.Context, models.Schema, *models.SyncEntity) error {
		return errors.New("peer gone")
	}

	added, err := f.m.Add(context.Background(), bookmark("b1", 0, "x"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), added.Version)
}

func TestManager_AddStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := &storage.EntityStoreMock{
		GetFunc:    func(context.Context, string) (*models.SyncEntity, error) { return nil, storage.ErrEntityNotFound },
		InsertFunc: func(context.Context, *models.SyncEntity) error { return boom },
	}
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) { cfg.Store = store })
	sub := f.m.Subscribe()

	_, err := f.m.Add(context.Background(), bookmark("b1", 0, "x"))
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "add", serr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.transport.RegisterObjectCalls())
	requireNoNotification(t, sub)
}

func TestManager_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("b1", 4, "old")))
	sub := f.m.Subscribe()

	// версия из аргумента игнорируется
	next := bookmark("b1", 1, "new")
	got, err := f.m.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, localApp, got.SourceApp)
	assert.Equal(t, fixedNow, got.LastModified)

	stored, err := f.store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Version)
	assert.Equal(t, "new", stored.Payload.String("title"))

	calls := f.transport.UpdateObjectCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "b1", calls[0].ID)
	assert.Equal(t, int64(5), calls[0].Fields[models.KeyVersion])
	assert.Equal(t, "new", calls[0].Fields["title"])
	assert.Equal(t, localApp, calls[0].Fields[models.KeySourceApp])

	assert.Equal(t, "new", recv(t, sub).Payload.String("title"))
}

func TestManager_UpdateRereadsAfterRemoteWrite(t *testing.T) {
	ctx := context.Background()
	store := newInterleavingStore()
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) { cfg.Store = store })
	require.NoError(t, store.Insert(ctx, bookmark("b1", 3, "base")))

	// входящая v10 применяется между чтением версии и локальной записью
	store.beforeNextRead(func() {
		got, err := f.m.apply(ctx, updated(f.m.Schema(), bookmark("b1", 10, "Remote")))
		require.NoError(t, err)
		require.Equal(t, outcomeUpdated, got)
	})

	got, err := f.m.Update(ctx, bookmark("b1", 0, "Local"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.Version)

	stored, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), stored.Version)
	assert.Equal(t, "Local", stored.Payload.String("title"))

	calls := f.transport.UpdateObjectCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(11), calls[0].Fields[models.KeyVersion])
}

func TestManager_AddRereadsAfterRemoteInsert(t *testing.T) {
	ctx := context.Background()
	store := newInterleavingStore()
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) { cfg.Store = store })

	store.beforeNextRead(func() {
		got, err := f.m.apply(ctx, updated(f.m.Schema(), bookmark("b1", 7, "Remote")))
		require.NoError(t, err)
		require.Equal(t, outcomeInserted, got)
	})

	got, err := f.m.Add(ctx, bookmark("b1", 0, "Local"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Version)

	stored, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), stored.Version)
	assert.Equal(t, "Local", stored.Payload.String("title"))
}

func TestManager_UpdateGivesUpOnPersistentConflict(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)
	require.NoError(t, inner.Insert(ctx, bookmark("b1", 1, "base")))
	store := &storage.EntityStoreMock{
		GetFunc:    inner.Get,
		InsertFunc: inner.Insert,
		UpdateFunc: func(context.Context, *models.SyncEntity, int64) error { return storage.ErrVersionConflict },
		DeleteFunc: inner.Delete,
		ListFunc:   inner.List,
		WatchFunc:  inner.Watch,
	}
	f := newFixture(t, bookmarkSpec(), func(cfg *Config) { cfg.Store = store })

	_, err := f.m.Update(ctx, bookmark("b1", 0, "Local"))
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
	assert.Len(t, store.UpdateCalls(), maxWriteAttempts)
	assert.Empty(t, f.transport.UpdateObjectCalls())
}

func TestManager_UpdateMissing(t *testing.T) {
	f := newFixture(t, bookmarkSpec())

	_, err := f.m.Update(context.Background(), bookmark("nope", 1, "x"))
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
	assert.Empty(t, f.transport.UpdateObjectCalls())
}

func TestManager_UpdatePushFailureAfterWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("b1", 1, "old")))
	boom := errors.New("broken pipe")
	f.transport.UpdateObjectFunc = func(context.Context, string, models.FieldMap) error { return boom }

	got, err := f.m.Update(ctx, bookmark("b1", 1, "new"))
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, got)

	stored, err := f.store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}

func TestManager_UpdateWhileStoppedIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("b1", 1, "old")))
	f.transport.UpdateObjectFunc = func(context.Context, string, models.FieldMap) error { return transport.ErrNotStarted }

	got, err := f.m.Update(ctx, bookmark("b1", 1, "new"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("b1", 6, "x")))
	sub := f.m.Subscribe()

	require.NoError(t, f.m.Delete(ctx, "b1"))
	_, err := f.store.Get(ctx, "b1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
	require.Len(t, f.transport.DeleteObjectCalls(), 1)
	assert.Equal(t, "b1", f.transport.DeleteObjectCalls()[0].ID)
	requireNoNotification(t, sub)

	// отсутствующий id не ошибка
	require.NoError(t, f.m.Delete(ctx, "b1"))

	// повторное добавление продолжает версию удаленной записи
	again, err := f.m.Add(ctx, bookmark("b1", 0, "back"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), again.Version)
}

func TestManager_Reads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, themeSpec())

	_, err := f.m.GetDefault(ctx)
	assert.ErrorIs(t, err, ErrNoDefault)

	_, err = f.m.Add(ctx, &models.SyncEntity{ID: "light", Payload: models.Payload{"name": models.StringValue("Light")}})
	require.NoError(t, err)
	_, err = f.m.Add(ctx, &models.SyncEntity{ID: "dark", Payload: models.Payload{"name": models.StringValue("Dark"), "isDefault": models.BoolValue(true)}})
	require.NoError(t, err)

	def, err := f.m.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", def.ID)

	list, err := f.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dark", list[0].ID)

	got, err := f.m.Get(ctx, "light")
	require.NoError(t, err)
	assert.Equal(t, "Light", got.Payload.String("name"))

	_, err = f.m.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	bm := newFixture(t, bookmarkSpec())
	_, err = bm.m.GetDefault(ctx)
	assert.ErrorIs(t, err, ErrNoDefault)
}

func TestManager_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, bookmarkSpec())

	ch, err := f.m.Watch(ctx)
	require.NoError(t, err)
	assert.Empty(t, <-ch)

	_, err = f.m.Add(ctx, bookmark("b1", 0, "x"))
	require.NoError(t, err)

	select {
	case list := <-ch:
		require.Len(t, list, 1)
		assert.Equal(t, "b1", list[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch snapshot")
	}
}

func TestManager_Republish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bookmarkSpec())
	require.NoError(t, f.store.Insert(ctx, bookmark("a", 1, "a")))

	assert.ErrorIs(t, f.m.Republish(ctx), ErrNotRunning)

	require.NoError(t, f.m.Start(ctx))
	defer f.m.Stop(ctx)
	require.NoError(t, f.m.Republish(ctx))
	assert.Len(t, f.transport.RegisterObjectCalls(), 2)
}

func TestManagers_ConvergeOverHub(t *testing.T) {
	ctx := context.Background()
	hub := memtransport.NewHub(nil)

	build := func(appID string) *Manager {
		m, err := New(Config{
			Store:     memory.New(nil),
			Transport: hub.Factory(),
			Allocator: &ports.Allocator{Probe: func(int) bool { return true }},
			AppID:     appID,
			Spec:      bookmarkSpec(),
		})
		require.NoError(t, err)
		return m
	}

	a := build("app-a")
	b := build("app-b")
	require.NoError(t, a.Start(ctx))
	defer a.Stop(ctx)

	added, err := a.Add(ctx, bookmark("b1", 0, "first"))
	require.NoError(t, err)

	// b стартует позже и получает состояние a
	require.NoError(t, b.Start(ctx))
	defer b.Stop(ctx)

	require.Eventually(t, func() bool {
		e, err := b.Get(ctx, added.ID)
		return err == nil && e.Version == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = b.Update(ctx, bookmark("b1", 0, "second"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		e, err := a.Get(ctx, "b1")
		return err == nil && e.Version == 2 && e.Payload.String("title") == "second"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Delete(ctx, "b1"))
	require.Eventually(t, func() bool {
		_, err := b.Get(ctx, "b1")
		return errors.Is(err, storage.ErrEntityNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "state(9)", State(9).String())
}
