// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the folio project.
package testutil

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/folio-go/internal/store"
)

// TestLogger returns a logger that discards everything. Tests that need
// to observe log output build their own handler instead.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB opens a migrated SQLite database under the test's temp dir.
// The file is removed with the temp dir; the cleanup closes the handle.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "folio.db")
	db, err := store.NewDB(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	return db, func() { _ = db.Close() }
}
