package syncmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/storage"
	"github.com/iudanet/peersync/internal/transport"
)

// outcome результат применения входящего изменения
type outcome int

const (
	outcomeDiscarded outcome = iota // устаревшая версия, эхо или надгробие
	outcomeInserted
	outcomeUpdated
	outcomeDeleted
	outcomeAbsent // удаление отсутствующей записи
)

func (o outcome) String() string {
	switch o {
	case outcomeDiscarded:
		return "discarded"
	case outcomeInserted:
		return "inserted"
	case outcomeUpdated:
		return "updated"
	case outcomeDeleted:
		return "deleted"
	case outcomeAbsent:
		return "absent"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (m *Manager) apply(ctx context.Context, c transport.Change) (outcome, error) {
	switch c.Op {
	case transport.OpUpdated:
		return m.applyUpdate(ctx, c)
	case transport.OpDeleted:
		return m.applyDelete(ctx, c)
	default:
		return outcomeDiscarded, &ReconciliationError{Kind: m.spec.Kind, ID: c.ID, Op: c.Op.String(), Err: errors.New("unknown operation")}
	}
}

// applyUpdate is last-writer-wins by version:
// no local record inserts, a strictly greater version overwrites,
// everything else is discarded. lastModified never breaks ties.
func (m *Manager) applyUpdate(ctx context.Context, c transport.Change) (outcome, error) {
	fail := func(op string, err error) (outcome, error) {
		return outcomeDiscarded, &ReconciliationError{Kind: m.spec.Kind, ID: c.ID, Op: op, Err: err}
	}

	remote, err := m.spec.Schema.Decode(m.spec.Kind, c.Fields)
	if err != nil {
		return fail("decode", err)
	}
	if c.ID != "" && remote.ID != c.ID {
		return fail("decode", fmt.Errorf("%w: id %q in fields of change %q", models.ErrInvalidEntity, remote.ID, c.ID))
	}
	if remote.SourceApp == "" {
		remote.SourceApp = c.Origin
	}

	for range maxWriteAttempts {
		var result outcome
		result, err = m.storeRemote(ctx, remote)
		if !errors.Is(err, errConcurrentWrite) {
			return result, err
		}
		m.logger.Debug("Retrying remote update after concurrent change", "id", remote.ID, "version", remote.Version)
	}
	return fail("update", err)
}

// errConcurrentWrite значит, что запись изменилась между чтением и записью
var errConcurrentWrite = errors.New("entity changed concurrently")

// storeRemote compares remote with the stored record and writes it when it
// wins. The write is conditional on the version that was compared against.
func (m *Manager) storeRemote(ctx context.Context, remote *models.SyncEntity) (outcome, error) {
	fail := func(op string, err error) (outcome, error) {
		return outcomeDiscarded, &ReconciliationError{Kind: m.spec.Kind, ID: remote.ID, Op: op, Err: err}
	}

	local, err := m.store.Get(ctx, remote.ID)
	switch {
	case errors.Is(err, storage.ErrEntityNotFound):
		local = nil
	case err != nil:
		return fail("get", err)
	}

	// эхо собственной записи
	if remote.SourceApp == m.appID && local != nil && !remote.IsNewerThan(local) {
		m.logger.Debug("Dropping echo", "id", remote.ID, "version", remote.Version)
		return outcomeDiscarded, nil
	}

	if deletedAt, ok := m.tombstones.get(remote.ID); ok {
		if remote.Version <= deletedAt {
			m.logger.Debug("Dropping update of deleted entity", "id", remote.ID, "version", remote.Version, "deleted_at", deletedAt)
			return outcomeDiscarded, nil
		}
	}

	if m.spec.Policy != nil {
		m.spec.Policy(m.appID, remote)
	}

	var result outcome
	if local == nil {
		err = m.store.Insert(ctx, remote)
		switch {
		case errors.Is(err, storage.ErrEntityExists):
			// локальный Add успел раньше - сравним с ним на следующей попытке
			return outcomeDiscarded, errConcurrentWrite
		case err != nil:
			return fail("insert", err)
		}
		result = outcomeInserted
	} else {
		if !remote.IsNewerThan(local) {
			m.logger.Debug("Discarding stale update", "id", remote.ID, "remote_version", remote.Version, "local_version", local.Version)
			return outcomeDiscarded, nil
		}
		err = m.store.Update(ctx, remote, local.Version)
		switch {
		case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, storage.ErrEntityNotFound):
			return outcomeDiscarded, errConcurrentWrite
		case err != nil:
			return fail("update", err)
		}
		result = outcomeUpdated
	}

	m.tombstones.clear(remote.ID)
	m.notify(remote)
	m.logger.Debug("Applied remote update", "id", remote.ID, "version", remote.Version, "source_app", remote.SourceApp, "outcome", result.String())
	return result, nil
}

// applyDelete removes the record regardless of its version.
func (m *Manager) applyDelete(ctx context.Context, c transport.Change) (outcome, error) {
	local, err := m.store.Get(ctx, c.ID)
	switch {
	case errors.Is(err, storage.ErrEntityNotFound):
		return outcomeAbsent, nil
	case err != nil:
		return outcomeDiscarded, &ReconciliationError{Kind: m.spec.Kind, ID: c.ID, Op: "get", Err: err}
	}

	m.tombstones.record(c.ID, local.Version)

	if err := m.store.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return outcomeAbsent, nil
		}
		return outcomeDiscarded, &ReconciliationError{Kind: m.spec.Kind, ID: c.ID, Op: "delete", Err: err}
	}

	m.logger.Debug("Applied remote delete", "id", c.ID, "origin", c.Origin)
	return outcomeDeleted, nil
}
