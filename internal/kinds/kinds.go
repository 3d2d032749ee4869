// Package kinds defines the synchronized entity kinds: schema, base port,
// capability tag, typed model and kind specific hooks.
package kinds

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

// ErrUnknownKind is returned for names that are not a known kind.
var ErrUnknownKind = errors.New("unknown kind")

// CapabilityVersion версия протокола синхронизации, общая для всех типов
const CapabilityVersion = "1.0"

// Meta is the envelope shared by every typed model.
type Meta struct {
	LastModified time.Time
	ID           string
	SourceApp    string
	Version      int64
}

func metaOf(e *models.SyncEntity) Meta {
	return Meta{ID: e.ID, Version: e.Version, LastModified: e.LastModified, SourceApp: e.SourceApp}
}

// Definition binds a typed model to its kind.
type Definition[T any] struct {
	encode func(T) (Meta, models.Payload)
	decode func(Meta, models.Payload) T
	Spec   syncmgr.KindSpec
}

// ToEntity converts a model to a sync entity.
func (d Definition[T]) ToEntity(v T) *models.SyncEntity {
	meta, payload := d.encode(v)
	return &models.SyncEntity{
		ID:           meta.ID,
		Kind:         d.Spec.Kind,
		Version:      meta.Version,
		LastModified: meta.LastModified,
		SourceApp:    meta.SourceApp,
		Payload:      payload,
	}
}

// FromEntity converts a sync entity to the model.
func (d Definition[T]) FromEntity(e *models.SyncEntity) T {
	return d.decode(metaOf(e), e.Payload)
}

func capabilities(kind string) map[string]string {
	return map[string]string{kind + "_sync": CapabilityVersion}
}

// Specs returns every kind ordered by base port.
func Specs() []syncmgr.KindSpec {
	specs := []syncmgr.KindSpec{
		Themes.Spec,
		Profiles.Spec,
		History.Spec,
		Feeds.Spec,
		Bookmarks.Spec,
		Preferences.Spec,
		Languages.Spec,
		Torrents.Spec,
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].BasePort < specs[j].BasePort })
	return specs
}

// Names returns every kind name ordered by base port.
func Names() []string {
	specs := Specs()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Kind)
	}
	return names
}

// Lookup returns the spec of a kind by name.
func Lookup(name string) (syncmgr.KindSpec, error) {
	for _, s := range Specs() {
		if s.Kind == name {
			return s, nil
		}
	}
	return syncmgr.KindSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
