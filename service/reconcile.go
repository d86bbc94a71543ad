package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"audio-ingest/config"
	"audio-ingest/pkg/storage"
	"audio-ingest/repository"
)

// Reconciler closes the crash window between the object write and the
// metadata insert: a periodic sweep removes storage objects that have no
// corresponding recordings row. Objects younger than the grace period are
// skipped so an ingestion still in flight is never mistaken for an orphan.
type Reconciler struct {
	repo     repository.RecordingRepository
	store    storage.ObjectStore
	interval time.Duration
	grace    time.Duration
}

func NewReconciler(repo repository.RecordingRepository, store storage.ObjectStore, cfg config.Reconcile) *Reconciler {
	return &Reconciler{
		repo:     repo,
		store:    store,
		interval: cfg.Interval,
		grace:    cfg.GracePeriod,
	}
}

// Run sweeps on a fixed ticker until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("reconciliation sweep failed")
				continue
			}
			if removed > 0 {
				zerolog.Ctx(ctx).Info().Int("removed", removed).Msg("reconciliation sweep removed orphaned objects")
			}
		}
	}
}

// Sweep scans the bucket once and removes aged objects with no matching
// row. Everything is best-effort: a failure on one object does not stop
// the rest of the scan.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	objects, err := r.store.List(ctx, "")
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-r.grace)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}

		exists, err := r.repo.ExistsByFilePath(ctx, obj.Key)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("file_path", obj.Key).Msg("orphan lookup failed")
			continue
		}
		if exists {
			continue
		}

		if err := r.store.Remove(ctx, obj.Key); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("file_path", obj.Key).Msg("failed to remove orphaned object")
			continue
		}
		removed++
	}

	return removed, nil
}
