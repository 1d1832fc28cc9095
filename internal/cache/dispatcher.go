// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// ResponseKeyPrefix namespaces cached HTTP responses. The response
// cache middleware stores under ResponseKeyPrefix + path; the
// dispatcher invalidates by the same convention.
const ResponseKeyPrefix = "resp:"

// ErrUnknownContentType is returned when a revalidation request names a
// content type outside the static mapping.
const ErrUnknownContentType Error = "unknown content type"

// ErrUnknownPath is returned when a path-based revalidation request
// names a path no content type maps to.
const ErrUnknownPath Error = "unknown path"

// invalidationTargets is the static mapping from content type to the
// paths whose cached responses become stale when that content changes.
// Every singleton feeds the landing page, so "/" appears everywhere.
var invalidationTargets = map[string][]string{
	"hero":       {"/api/hero", "/"},
	"about":      {"/api/about", "/"},
	"expertise":  {"/api/expertise", "/"},
	"navigation": {"/api/navigation", "/"},
	"projects":   {"/api/projects", "/projects", "/"},
}

// Dispatcher fans content-change notifications out to the response
// cache. Invalidation is best-effort: a failing target is logged and
// skipped, never retried inline, and never fails the triggering write.
type Dispatcher struct {
	cache Cache
	log   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given cache.
func NewDispatcher(cache Cache, log *slog.Logger) *Dispatcher {
	return &Dispatcher{cache: cache, log: log}
}

// ContentTypes returns the content types the dispatcher knows about.
func ContentTypes() []string {
	types := make([]string, 0, len(invalidationTargets))
	for t := range invalidationTargets {
		types = append(types, t)
	}
	return types
}

// ContentTypeForPath resolves a target path back to the content type
// that owns it. The landing page is fed by every type, so "/" resolves
// to nothing and callers should use InvalidateAll for it.
func ContentTypeForPath(path string) (string, bool) {
	for contentType, targets := range invalidationTargets {
		for _, target := range targets {
			if target == path && target != "/" {
				return contentType, true
			}
		}
	}
	return "", false
}

// InvalidatePath drops the cached responses for the content type that
// owns the given path. The whole target set of that type is
// invalidated, not just the named path.
func (d *Dispatcher) InvalidatePath(ctx context.Context, path string) ([]string, error) {
	contentType, ok := ContentTypeForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	return d.Invalidate(ctx, contentType)
}

// Invalidate drops the cached responses mapped to a content type and
// returns the targets it touched. Unknown content types are rejected so
// callers can't silently no-op on a typo.
func (d *Dispatcher) Invalidate(ctx context.Context, contentType string) ([]string, error) {
	targets, ok := invalidationTargets[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	invalidated := make([]string, 0, len(targets))
	for _, target := range targets {
		// The root target is deleted exactly; a prefix delete on "/"
		// would wipe every cached response.
		var err error
		if target == "/" {
			err = d.cache.Delete(ctx, ResponseKeyPrefix+target)
		} else {
			err = d.cache.DeleteByPrefix(ctx, ResponseKeyPrefix+target)
		}
		if err != nil {
			d.log.Warn("cache invalidation failed", "content_type", contentType, "target", target, "error", err)
			continue
		}
		invalidated = append(invalidated, target)
	}

	d.log.Info("cache invalidated", "content_type", contentType, "targets", invalidated)
	return invalidated, nil
}

// InvalidateAll drops every cached response.
func (d *Dispatcher) InvalidateAll(ctx context.Context) error {
	if err := d.cache.DeleteByPrefix(ctx, ResponseKeyPrefix); err != nil {
		return fmt.Errorf("clearing response cache: %w", err)
	}
	d.log.Info("cache invalidated", "content_type", "all")
	return nil
}
