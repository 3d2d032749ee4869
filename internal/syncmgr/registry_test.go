package syncmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/peersync/internal/ports"
	"github.com/iudanet/peersync/internal/storage/memory"
)

func registryConfig(appID string, spec KindSpec) Config {
	return Config{
		Store:     memory.New(nil),
		Transport: newFakeTransport().factory(),
		Allocator: &ports.Allocator{Probe: func(int) bool { return true }},
		AppID:     appID,
		Spec:      spec,
	}
}

func TestRegistry_ConcurrentGetOrCreateReturnsOneInstance(t *testing.T) {
	r := NewRegistry()
	var builds atomic.Int32
	build := func(cfg Config) (*Manager, error) {
		builds.Add(1)
		return New(cfg)
	}

	const workers = 64
	results := make([]*Manager, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.GetOrCreate("bookmark", registryConfig(localApp, bookmarkSpec()), build)
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestRegistry_FirstConfigWins(t *testing.T) {
	r := NewRegistry()

	first, err := r.GetOrCreate("bookmark", registryConfig("first-app", bookmarkSpec()), nil)
	require.NoError(t, err)
	second, err := r.GetOrCreate("bookmark", registryConfig("second-app", bookmarkSpec()), nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "first-app", second.AppID())
}

func TestRegistry_FailedBuildLeavesNothing(t *testing.T) {
	r := NewRegistry()
	cfg := registryConfig(localApp, bookmarkSpec())
	cfg.Allocator = &ports.Allocator{Probe: func(int) bool { return false }}

	_, err := r.GetOrCreate("bookmark", cfg, nil)
	assert.True(t, ports.IsNoAvailablePort(err))

	_, ok := r.Get("bookmark")
	assert.False(t, ok)
	assert.Empty(t, r.Kinds())

	// следующая попытка с рабочей конфигурацией создает менеджер
	m, err := r.GetOrCreate("bookmark", registryConfig(localApp, bookmarkSpec()), nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestRegistry_KindMismatch(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetOrCreate("theme", registryConfig(localApp, bookmarkSpec()), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegistry_Reset(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	m, err := r.GetOrCreate("bookmark", registryConfig(localApp, bookmarkSpec()), nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(ctx))
	defer m.Stop(ctx)

	r.Reset()
	assert.Empty(t, r.Kinds())
	// сброс не останавливает менеджер
	assert.Equal(t, StateRunning, m.State())

	other, err := r.GetOrCreate("bookmark", registryConfig(localApp, bookmarkSpec()), nil)
	require.NoError(t, err)
	assert.NotSame(t, m, other)
}

func TestRegistry_StartAllStopAll(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	bm, err := r.GetOrCreate("bookmark", registryConfig(localApp, bookmarkSpec()), nil)
	require.NoError(t, err)
	th, err := r.GetOrCreate("theme", registryConfig(localApp, themeSpec()), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"bookmark", "theme"}, r.Kinds())

	require.NoError(t, r.StartAll(ctx))
	assert.Equal(t, StateRunning, bm.State())
	assert.Equal(t, StateRunning, th.State())

	require.NoError(t, r.StopAll(ctx))
	assert.Equal(t, StateStopped, bm.State())
	assert.Equal(t, StateStopped, th.State())
}

func TestRegistry_StartAllReportsFailure(t *testing.T) {
	r := NewRegistry()
	tr := newFakeTransport()
	boom := errors.New("bind failed")
	tr.StartFunc = func(context.Context) error { return boom }

	cfg := registryConfig(localApp, bookmarkSpec())
	cfg.Transport = tr.factory()
	_, err := r.GetOrCreate("bookmark", cfg, nil)
	require.NoError(t, err)

	err = r.StartAll(context.Background())
	var tse *TransportStartError
	assert.ErrorAs(t, err, &tse)
	assert.ErrorIs(t, err, boom)
}
