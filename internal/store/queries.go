// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors surfaced by queries.
var (
	// ErrAdminExists is returned when creating an admin with an email that
	// is already registered.
	ErrAdminExists = errors.New("admin already exists")
	// ErrDuplicateSlug is returned when inserting a project whose slug
	// collides with an existing one.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// Queries provides typed access to the database.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance backed by the given database handle.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// DB returns the underlying database handle.
func (q *Queries) DB() *sql.DB {
	return q.db
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// -----------------------------------------------------------------------------
// Admins

// Admin is the admins table row.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
	MinIssuedAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// CreateAdmin inserts a new administrator. Returns ErrAdminExists if the
// email is already registered.
func (q *Queries) CreateAdmin(ctx context.Context, email, passwordHash string) (Admin, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		email, passwordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Admin{}, ErrAdminExists
		}
		return Admin{}, fmt.Errorf("inserting admin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Admin{}, fmt.Errorf("reading admin id: %w", err)
	}
	return Admin{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}, nil
}

// GetAdminByEmail fetches an administrator by email.
func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	var a Admin
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, min_issued_at, created_at, updated_at, last_login_at
		 FROM admins WHERE email = ?`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.MinIssuedAt, &a.CreatedAt, &a.UpdatedAt, &a.LastLoginAt)
	return a, err
}

// UpdateAdminPassword replaces an administrator's password hash.
func (q *Queries) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = ?, updated_at = ? WHERE email = ?`,
		passwordHash, time.Now().UTC(), email)
	return err
}

// UpdateAdminLastLogin records a successful login.
func (q *Queries) UpdateAdminLastLogin(ctx context.Context, email string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE admins SET last_login_at = ? WHERE email = ?`, at.UTC(), email)
	return err
}

// SetAdminMinIssuedAt bumps the token revocation watermark: session tokens
// issued before this instant stop validating immediately.
func (q *Queries) SetAdminMinIssuedAt(ctx context.Context, email string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE admins SET min_issued_at = ?, updated_at = ? WHERE email = ?`,
		at.UTC(), time.Now().UTC(), email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAdminMinIssuedAt returns the revocation watermark for an admin email.
// A NULL watermark means no revocation has been issued.
func (q *Queries) GetAdminMinIssuedAt(ctx context.Context, email string) (sql.NullTime, error) {
	var t sql.NullTime
	err := q.db.QueryRowContext(ctx,
		`SELECT min_issued_at FROM admins WHERE email = ?`, email).Scan(&t)
	return t, err
}

// -----------------------------------------------------------------------------
// Content documents

// Document is the documents table row. Payload is the kind-specific JSON body.
type Document struct {
	Kind      string
	Payload   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetDocument fetches the canonical document for a kind.
func (q *Queries) GetDocument(ctx context.Context, kind string) (Document, error) {
	var d Document
	err := q.db.QueryRowContext(ctx,
		`SELECT kind, payload, created_at, updated_at FROM documents WHERE kind = ?`, kind).
		Scan(&d.Kind, &d.Payload, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// SeedDocument inserts the document for a kind only if none exists yet.
// The conditional insert is atomic at the storage layer, so concurrent
// first reads of the same singleton cannot produce divergent seeds.
func (q *Queries) SeedDocument(ctx context.Context, kind, payload string) error {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO documents (kind, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind) DO NOTHING`,
		kind, payload, now, now)
	return err
}

// UpsertDocument replaces the document payload for a kind, creating the row
// if absent, and bumps updated_at.
func (q *Queries) UpsertDocument(ctx context.Context, kind, payload string) (Document, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO documents (kind, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		kind, payload, now, now)
	if err != nil {
		return Document{}, fmt.Errorf("upserting document %q: %w", kind, err)
	}
	return q.GetDocument(ctx, kind)
}

// -----------------------------------------------------------------------------
// Projects

// Project is the projects table row. Tags and Images are JSON arrays.
type Project struct {
	ID          int64
	Slug        string
	Title       string
	Summary     string
	Description string
	Tags        string
	Featured    bool
	SortOrder   int64
	Images      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const projectColumns = `id, slug, title, summary, description, tags, featured, sort_order, images, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Description, &p.Tags,
		&p.Featured, &p.SortOrder, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProjectParams holds the fields for inserting a project.
type CreateProjectParams struct {
	Slug        string
	Title       string
	Summary     string
	Description string
	Tags        string
	Featured    bool
	SortOrder   int64
	Images      string
}

// CreateProject inserts a new project. Returns ErrDuplicateSlug when the slug
// collides with an existing project.
func (q *Queries) CreateProject(ctx context.Context, p CreateProjectParams) (Project, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (slug, title, summary, description, tags, featured, sort_order, images, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Summary, p.Description, p.Tags, p.Featured, p.SortOrder, p.Images, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Project{}, ErrDuplicateSlug
		}
		return Project{}, fmt.Errorf("inserting project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Project{}, fmt.Errorf("reading project id: %w", err)
	}
	return Project{
		ID: id, Slug: p.Slug, Title: p.Title, Summary: p.Summary, Description: p.Description,
		Tags: p.Tags, Featured: p.Featured, SortOrder: p.SortOrder, Images: p.Images,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// GetProjectBySlug fetches a project by slug.
func (q *Queries) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	return scanProject(row)
}

// ListProjects returns all projects, featured first, then by sort order.
func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY featured DESC, sort_order, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProjectParams holds the full set of mutable project fields.
type UpdateProjectParams struct {
	Slug        string
	Title       string
	Summary     string
	Description string
	Tags        string
	Featured    bool
	SortOrder   int64
	Images      string
}

// UpdateProject replaces the mutable fields of the project identified by slug
// and bumps updated_at. Returns sql.ErrNoRows if the project does not exist.
func (q *Queries) UpdateProject(ctx context.Context, p UpdateProjectParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, summary = ?, description = ?, tags = ?, featured = ?,
		        sort_order = ?, images = ?, updated_at = ?
		 WHERE slug = ?`,
		p.Title, p.Summary, p.Description, p.Tags, p.Featured, p.SortOrder, p.Images,
		time.Now().UTC(), p.Slug)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProject removes a project by slug. Returns sql.ErrNoRows if absent.
func (q *Queries) DeleteProject(ctx context.Context, slug string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// -----------------------------------------------------------------------------
// Events

// InsertEvent records an application event.
func (q *Queries) InsertEvent(ctx context.Context, level, message, source string, metadata sql.NullString) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, message, source, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		level, message, source, metadata, time.Now().UTC())
	return err
}

// Event is the events table row.
type Event struct {
	ID        int64
	Level     string
	Message   string
	Source    string
	Metadata  sql.NullString
	CreatedAt time.Time
}

// ListRecentEvents returns the most recent events, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, message, source, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &e.Source, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// -----------------------------------------------------------------------------
// Image orphans

// ImageOrphan is an object-store key whose delete failed and is pending retry.
type ImageOrphan struct {
	ID         int64
	StorageKey string
	Attempts   int64
	LastError  string
	CreatedAt  time.Time
}

// EnqueueImageOrphan records a storage key whose external delete failed so the
// sweeper can retry it later. Re-enqueueing an existing key is a no-op.
func (q *Queries) EnqueueImageOrphan(ctx context.Context, storageKey, lastError string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO image_orphans (storage_key, attempts, last_error, created_at) VALUES (?, 1, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET attempts = attempts + 1, last_error = excluded.last_error`,
		storageKey, lastError, time.Now().UTC())
	return err
}

// ListImageOrphans returns pending orphaned storage keys, oldest first.
func (q *Queries) ListImageOrphans(ctx context.Context, limit int64) ([]ImageOrphan, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, storage_key, attempts, last_error, created_at
		 FROM image_orphans ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing image orphans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orphans []ImageOrphan
	for rows.Next() {
		var o ImageOrphan
		if err := rows.Scan(&o.ID, &o.StorageKey, &o.Attempts, &o.LastError, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning image orphan: %w", err)
		}
		orphans = append(orphans, o)
	}
	return orphans, rows.Err()
}

// DeleteImageOrphan removes a storage key from the retry queue.
func (q *Queries) DeleteImageOrphan(ctx context.Context, storageKey string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM image_orphans WHERE storage_key = ?`, storageKey)
	return err
}

// BumpImageOrphan increments the attempt counter after a failed retry.
func (q *Queries) BumpImageOrphan(ctx context.Context, storageKey, lastError string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE image_orphans SET attempts = attempts + 1, last_error = ? WHERE storage_key = ?`,
		lastError, storageKey)
	return err
}
