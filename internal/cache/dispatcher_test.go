// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedResponses(t *testing.T, c Cache, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := c.Set(context.Background(), ResponseKeyPrefix+p, []byte("cached"), 0); err != nil {
			t.Fatalf("Set(%q) error = %v", p, err)
		}
	}
}

func TestDispatcherInvalidateHero(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer func() { _ = c.Close() }()
	d := NewDispatcher(c, testLogger())
	ctx := context.Background()

	seedResponses(t, c, "/api/hero", "/", "/api/about")

	targets, err := d.Invalidate(ctx, "hero")
	if err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("targets = %v, want 2 entries", targets)
	}

	if _, err := c.Get(ctx, ResponseKeyPrefix+"/api/hero"); !errors.Is(err, ErrCacheMiss) {
		t.Error("/api/hero still cached after invalidation")
	}
	if _, err := c.Get(ctx, ResponseKeyPrefix+"/"); !errors.Is(err, ErrCacheMiss) {
		t.Error("/ still cached after invalidation")
	}
	// Other content types are untouched.
	if _, err := c.Get(ctx, ResponseKeyPrefix+"/api/about"); err != nil {
		t.Errorf("/api/about dropped by hero invalidation: %v", err)
	}
}

func TestDispatcherInvalidateProjectsCoversSubPaths(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer func() { _ = c.Close() }()
	d := NewDispatcher(c, testLogger())
	ctx := context.Background()

	seedResponses(t, c, "/api/projects", "/api/projects/my-project", "/projects")

	if _, err := d.Invalidate(ctx, "projects"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	for _, p := range []string{"/api/projects", "/api/projects/my-project", "/projects"} {
		if _, err := c.Get(ctx, ResponseKeyPrefix+p); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("%s still cached after projects invalidation", p)
		}
	}
}

func TestDispatcherUnknownContentType(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer func() { _ = c.Close() }()
	d := NewDispatcher(c, testLogger())

	_, err := d.Invalidate(context.Background(), "gallery")
	if !errors.Is(err, ErrUnknownContentType) {
		t.Errorf("Invalidate() error = %v, want ErrUnknownContentType", err)
	}
}

func TestDispatcherInvalidateAll(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer func() { _ = c.Close() }()
	d := NewDispatcher(c, testLogger())
	ctx := context.Background()

	seedResponses(t, c, "/api/hero", "/api/about", "/projects")
	// Non-response keys survive a full invalidation.
	_ = c.Set(ctx, "other:key", []byte("x"), 0)

	if err := d.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	for _, p := range []string{"/api/hero", "/api/about", "/projects"} {
		if _, err := c.Get(ctx, ResponseKeyPrefix+p); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("%s still cached after InvalidateAll", p)
		}
	}
	if _, err := c.Get(ctx, "other:key"); err != nil {
		t.Errorf("non-response key dropped by InvalidateAll: %v", err)
	}
}

func TestContentTypes(t *testing.T) {
	types := ContentTypes()
	want := map[string]bool{"hero": false, "about": false, "expertise": false, "navigation": false, "projects": false}
	for _, ct := range types {
		if _, ok := want[ct]; !ok {
			t.Errorf("unexpected content type %q", ct)
		}
		want[ct] = true
	}
	for ct, seen := range want {
		if !seen {
			t.Errorf("content type %q missing", ct)
		}
	}
}

// failingCache wraps a Cache and fails deletes for one key prefix.
type failingCache struct {
	Cache
	failPrefix string
}

func (f *failingCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if prefix == f.failPrefix {
		return errors.New("backend unavailable")
	}
	return f.Cache.DeleteByPrefix(ctx, prefix)
}

func TestDispatcherBestEffortFanOut(t *testing.T) {
	mem := NewMemoryCache(time.Minute, 0)
	defer func() { _ = mem.Close() }()
	c := &failingCache{Cache: mem, failPrefix: ResponseKeyPrefix + "/api/hero"}
	d := NewDispatcher(c, testLogger())
	ctx := context.Background()

	seedResponses(t, mem, "/api/hero", "/")

	targets, err := d.Invalidate(ctx, "hero")
	if err != nil {
		t.Fatalf("Invalidate() error = %v, want best-effort success", err)
	}
	// The failing target is skipped, the rest still invalidated.
	if len(targets) != 1 || targets[0] != "/" {
		t.Errorf("targets = %v, want [/]", targets)
	}
}

func TestContentTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/api/hero", "hero", true},
		{"/api/projects", "projects", true},
		{"/projects", "projects", true},
		{"/", "", false},
		{"/api/widgets", "", false},
	}
	for _, tt := range tests {
		got, ok := ContentTypeForPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ContentTypeForPath(%q) = (%q, %v), want (%q, %v)", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDispatcherInvalidatePath(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer func() { _ = c.Close() }()
	d := NewDispatcher(c, testLogger())
	ctx := context.Background()

	seedResponses(t, c, "/api/hero", "/")

	targets, err := d.InvalidatePath(ctx, "/api/hero")
	if err != nil {
		t.Fatalf("InvalidatePath() error = %v", err)
	}
	// The owning type's whole target set is dropped.
	if len(targets) != 2 {
		t.Errorf("targets = %v, want 2 entries", targets)
	}
	if _, err := c.Get(ctx, ResponseKeyPrefix+"/"); !errors.Is(err, ErrCacheMiss) {
		t.Error("/ still cached after path invalidation")
	}

	if _, err := d.InvalidatePath(ctx, "/api/widgets"); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("InvalidatePath(unknown) error = %v, want ErrUnknownPath", err)
	}
}
