package storage

import (
	"context"
	"log/slog"

	"github.com/iudanet/peersync/internal/broadcast"
	"github.com/iudanet/peersync/internal/models"
)

// ListFunc loads the current full list of entities.
type ListFunc func(ctx context.Context) ([]*models.SyncEntity, error)

// WatchList turns change signals into a stream of full snapshots.
// Only the latest snapshot is kept for a slow reader: an unread snapshot is
// replaced by the newer one instead of blocking the writer side.
func WatchList(ctx context.Context, changes *broadcast.Broadcaster[struct{}], list ListFunc, logger *slog.Logger) <-chan []*models.SyncEntity {
	out := make(chan []*models.SyncEntity, 1)
	sub := changes.Subscribe()

	go func() {
		defer close(out)
		defer sub.Close()

		send := func() {
			entities, err := list(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("Failed to load snapshot for watcher", "error", err)
				}
				return
			}
			// заменяем непрочитанный снимок свежим
			select {
			case <-out:
			default:
			}
			out <- entities
		}

		send()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				send()
			}
		}
	}()

	return out
}
