// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 503 if the
// handler has not produced a response by then. The handler keeps running
// in its goroutine; once the 503 is out, everything it writes is dropped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			guarded := &guardedWriter{w: w}
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(guarded, r.WithContext(ctx))
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				guarded.timeout()
			}
		})
	}
}

// guardedWriter serializes the handler goroutine and the timeout branch
// onto one ResponseWriter. Whoever writes first owns the response; after
// the timeout branch has answered, handler writes are discarded.
type guardedWriter struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	started  bool
	timedOut bool
}

func (g *guardedWriter) Header() http.Header {
	return g.w.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut || g.started {
		return
	}
	g.started = true
	g.w.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut {
		// Pretend success so the abandoned handler finishes quietly.
		return len(b), nil
	}
	if !g.started {
		g.started = true
		g.w.WriteHeader(http.StatusOK)
	}
	return g.w.Write(b)
}

// timeout sends the 503, unless the handler already started responding.
func (g *guardedWriter) timeout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.timedOut = true
	g.w.Header().Set("Content-Type", "application/json")
	g.w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = g.w.Write([]byte(`{"error":{"message":"Request timed out"}}`))
}
