// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors WARN and ERROR
// level logs into the database-backed event log for later inspection.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/folio-go/internal/store"
)

// Event levels stored in the events table.
const (
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event sources recorded with each entry.
const (
	EventSourceAuth    = "auth"
	EventSourceContent = "content"
	EventSourceCache   = "cache"
	EventSourceStorage = "storage"
	EventSourceSystem  = "system"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level logs to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler creates an EventLogHandler that wraps the given
// handler. Logs at WARN and above are written to both.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

func (h *EventLogHandler) writeEvent(r slog.Record) {
	level := EventLevelWarning
	if r.Level >= slog.LevelError {
		level = EventLevelError
	}

	// A background context so the event lands even when the request
	// context is already cancelled.
	_ = h.queries.InsertEvent(context.Background(), level, r.Message,
		extractSource(r), extractMetadata(r))
}

// extractSource reads a "source" attribute, falling back to inference
// from the message.
func extractSource(r slog.Record) string {
	var source string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "source" {
			source = a.Value.String()
			return false
		}
		return true
	})
	if source != "" {
		return source
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "token") || strings.Contains(msg, "account"):
		return EventSourceAuth
	case strings.Contains(msg, "project") || strings.Contains(msg, "document") || strings.Contains(msg, "content"):
		return EventSourceContent
	case strings.Contains(msg, "cache"):
		return EventSourceCache
	case strings.Contains(msg, "image") || strings.Contains(msg, "upload") || strings.Contains(msg, "storage"):
		return EventSourceStorage
	default:
		return EventSourceSystem
	}
}

// extractMetadata collects the record's attributes into a JSON string.
func extractMetadata(r slog.Record) sql.NullString {
	if r.NumAttrs() == 0 {
		return sql.NullString{}
	}

	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

var _ slog.Handler = (*EventLogHandler)(nil)
