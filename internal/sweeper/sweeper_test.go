// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package sweeper

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/testutil"
)

// flakyStore fails deletes for keys listed in failing.
type flakyStore struct {
	mu      sync.Mutex
	failing map[string]bool
	deleted []string
}

func (f *flakyStore) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *flakyStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[key] {
		return fmt.Errorf("still unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestSweeper(t *testing.T) (*Sweeper, *store.Queries, *flakyStore) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	objects := &flakyStore{failing: map[string]bool{}}
	s := New(db, objects, "@every 1h", testutil.TestLogger())
	return s, store.New(db), objects
}

func TestSweepDeletesOrphans(t *testing.T) {
	s, queries, objects := newTestSweeper(t)
	ctx := context.Background()

	for _, key := range []string{"projects/a.jpg", "projects/b.jpg"} {
		if err := queries.EnqueueImageOrphan(ctx, key, "initial failure"); err != nil {
			t.Fatalf("EnqueueImageOrphan() error = %v", err)
		}
	}

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(objects.deleted) != 2 {
		t.Errorf("deleted = %v, want 2 keys", objects.deleted)
	}
	remaining, err := queries.ListImageOrphans(ctx, 10)
	if err != nil {
		t.Fatalf("ListImageOrphans() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("orphans remaining = %d, want 0", len(remaining))
	}
}

func TestSweepBumpsFailedRetries(t *testing.T) {
	s, queries, objects := newTestSweeper(t)
	ctx := context.Background()

	objects.failing["projects/stuck.jpg"] = true
	if err := queries.EnqueueImageOrphan(ctx, "projects/stuck.jpg", "initial failure"); err != nil {
		t.Fatalf("EnqueueImageOrphan() error = %v", err)
	}

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	orphans, err := queries.ListImageOrphans(ctx, 10)
	if err != nil {
		t.Fatalf("ListImageOrphans() error = %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("orphans = %d, want 1 still queued", len(orphans))
	}
	if orphans[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2 after one retry", orphans[0].Attempts)
	}
}

func TestSweepGivesUpAfterMaxAttempts(t *testing.T) {
	s, queries, objects := newTestSweeper(t)
	ctx := context.Background()

	objects.failing["projects/dead.jpg"] = true
	if err := queries.EnqueueImageOrphan(ctx, "projects/dead.jpg", "initial failure"); err != nil {
		t.Fatalf("EnqueueImageOrphan() error = %v", err)
	}

	for i := 0; i < maxAttempts; i++ {
		if err := s.Sweep(ctx); err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
	}

	orphans, err := queries.ListImageOrphans(ctx, 10)
	if err != nil {
		t.Fatalf("ListImageOrphans() error = %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("orphans = %d, want 0 after giving up", len(orphans))
	}
}

func TestSweepEmptyQueue(t *testing.T) {
	s, _, objects := newTestSweeper(t)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(objects.deleted) != 0 {
		t.Errorf("deleted = %v, want none", objects.deleted)
	}
}
