package syncmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BuildFunc constructs a manager; New is used when nil is passed.
type BuildFunc func(cfg Config) (*Manager, error)

// Registry keeps at most one Manager per kind. It is created once per
// process and passed to the code that needs managers.
type Registry struct {
	managers map[string]*Manager
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]*Manager)}
}

// GetOrCreate returns the manager of kind, building it on first use.
// The first caller's configuration wins; later configurations are ignored.
// If build fails nothing is registered and the error is returned.
func (r *Registry) GetOrCreate(kind string, cfg Config, build BuildFunc) (*Manager, error) {
	r.mu.RLock()
	m, ok := r.managers[kind]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// повторная проверка под эксклюзивной блокировкой
	if m, ok := r.managers[kind]; ok {
		return m, nil
	}

	if cfg.Spec.Kind != kind {
		return nil, fmt.Errorf("%w: config for kind %q registered as %q", ErrInvalidConfig, cfg.Spec.Kind, kind)
	}
	if build == nil {
		build = New
	}

	m, err := build(cfg)
	if err != nil {
		return nil, err
	}
	r.managers[kind] = m
	return m, nil
}

// Get returns the registered manager of kind.
func (r *Registry) Get(kind string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[kind]
	return m, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.managers))
	for k := range r.managers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Reset drops every reference. Managers are not stopped and no data is
// deleted.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = make(map[string]*Manager)
}

// StartAll starts every registered manager concurrently and returns the
// first error.
func (r *Registry) StartAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range r.snapshot() {
		g.Go(func() error {
			return m.Start(gctx)
		})
	}
	return g.Wait()
}

// StopAll stops every registered manager and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	managers := r.snapshot()
	errs := make([]error, len(managers))

	var wg sync.WaitGroup
	for i, m := range managers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.Stop(ctx)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (r *Registry) snapshot() []*Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		out = append(out, m)
	}
	return out
}
