// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/testutil"
)

func newTestHandler(t *testing.T) (*slog.Logger, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewEventLogHandler(inner, db)), store.New(db)
}

func TestWarnAndErrorRecorded(t *testing.T) {
	log, queries := newTestHandler(t)
	ctx := context.Background()

	log.Warn("image delete failed", "key", "projects/x.jpg")
	log.Error("cache invalidation failed", "target", "/")

	events, err := queries.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	levels := map[string]bool{}
	for _, e := range events {
		levels[e.Level] = true
	}
	if !levels[EventLevelWarning] || !levels[EventLevelError] {
		t.Errorf("levels = %v, want warning and error", levels)
	}
}

func TestInfoNotRecorded(t *testing.T) {
	log, queries := newTestHandler(t)

	log.Info("project created", "slug", "demo")
	log.Debug("noise")

	events, err := queries.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0 for info/debug logs", len(events))
	}
}

func TestSourceInference(t *testing.T) {
	log, queries := newTestHandler(t)

	log.Warn("login failed for account")
	log.Warn("image upload rejected")
	log.Warn("something odd happened")

	events, err := queries.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents() error = %v", err)
	}
	sources := map[string]bool{}
	for _, e := range events {
		sources[e.Source] = true
	}
	for _, want := range []string{EventSourceAuth, EventSourceStorage, EventSourceSystem} {
		if !sources[want] {
			t.Errorf("sources = %v, want %s present", sources, want)
		}
	}
}

func TestMetadataCaptured(t *testing.T) {
	log, queries := newTestHandler(t)

	log.Warn("image delete failed", "key", "projects/a.jpg", "attempts", 3)

	events, err := queries.ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if !events[0].Metadata.Valid {
		t.Fatal("metadata not recorded")
	}
}
