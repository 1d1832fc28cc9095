// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sweeper retries deletes of orphaned object-store keys.
// Project image deletes are best-effort at request time; keys that fail
// land in the image_orphans queue and are retried here on a schedule.
package sweeper

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/folio-go/internal/objectstore"
	"github.com/olegiv/folio-go/internal/store"
)

// maxAttempts is the retry ceiling before an orphan is dropped from the
// queue. The key is logged so it can be cleaned up manually.
const maxAttempts = 10

// batchSize limits how many orphans one sweep processes.
const batchSize = 50

// Sweeper periodically drains the orphaned image queue.
type Sweeper struct {
	queries  *store.Queries
	objects  objectstore.Store
	cron     *cron.Cron
	schedule string
	log      *slog.Logger
}

// New creates a sweeper. schedule is a cron expression, e.g. "@every 1h".
func New(db *sql.DB, objects objectstore.Store, schedule string, log *slog.Logger) *Sweeper {
	return &Sweeper{
		queries:  store.New(db),
		objects:  objects,
		cron:     cron.New(),
		schedule: schedule,
		log:      log,
	}
}

// Start begins the sweep schedule.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.log.Error("orphan sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("orphan sweeper started", "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the sweeper, waiting for a running sweep.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("orphan sweeper stopped")
}

// Sweep retries every queued orphan once. Keys that delete cleanly
// leave the queue; failures bump the attempt counter until the ceiling.
func (s *Sweeper) Sweep(ctx context.Context) error {
	orphans, err := s.queries.ListImageOrphans(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	s.log.Info("sweeping orphaned images", "count", len(orphans))

	for _, orphan := range orphans {
		if err := s.objects.Delete(ctx, orphan.StorageKey); err != nil {
			if orphan.Attempts+1 >= maxAttempts {
				s.log.Error("giving up on orphaned image",
					"key", orphan.StorageKey,
					"attempts", orphan.Attempts+1,
					"error", err,
				)
				_ = s.queries.DeleteImageOrphan(ctx, orphan.StorageKey)
				continue
			}
			if berr := s.queries.BumpImageOrphan(ctx, orphan.StorageKey, err.Error()); berr != nil {
				s.log.Error("failed to record orphan retry", "key", orphan.StorageKey, "error", berr)
			}
			continue
		}

		if err := s.queries.DeleteImageOrphan(ctx, orphan.StorageKey); err != nil {
			s.log.Error("failed to dequeue orphan", "key", orphan.StorageKey, "error", err)
			continue
		}
		s.log.Info("orphaned image deleted", "key", orphan.StorageKey, "attempts", orphan.Attempts)
	}

	return nil
}
