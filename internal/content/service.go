// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content is the storage façade for the portfolio's editable
// content: four singleton documents (hero, about, expertise, navigation)
// and the project collection. Singleton reads seed a compiled-in default
// on first access; all writes are validated before anything is persisted.
package content

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/objectstore"
	"github.com/olegiv/folio-go/internal/store"
)

// Service mediates all content reads and writes.
type Service struct {
	queries *store.Queries
	objects objectstore.Store
	images  *imaging.Processor
	log     *slog.Logger
}

// NewService creates the content service. objects may be
// objectstore.Disabled when no object storage is configured, in which
// case image uploads are rejected but all other operations work.
func NewService(queries *store.Queries, objects objectstore.Store, log *slog.Logger) *Service {
	return &Service{
		queries: queries,
		objects: objects,
		images:  imaging.NewProcessor(),
		log:     log,
	}
}

// GetDocument returns the singleton document for a kind, seeding the
// compiled-in default on first read. Concurrent first reads race on an
// atomic conditional insert, so exactly one seed wins and every caller
// observes the same document.
func (s *Service) GetDocument(ctx context.Context, kind model.DocumentKind) (*model.Document, error) {
	if !model.IsSingletonKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	row, err := s.queries.GetDocument(ctx, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		seed, serr := defaultPayload(kind)
		if serr != nil {
			return nil, serr
		}
		if serr := s.queries.SeedDocument(ctx, string(kind), seed); serr != nil {
			return nil, fmt.Errorf("seeding %s document: %w", kind, serr)
		}
		row, err = s.queries.GetDocument(ctx, string(kind))
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s document: %w", kind, err)
	}

	doc := &model.Document{
		Kind:      kind,
		Payload:   []byte(row.Payload),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if kind == model.DocumentAbout {
		if doc.Payload, err = withRenderedBody(doc.Payload); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// UpdateDocument validates and replaces the payload of a singleton
// document. On validation failure nothing is written and the stored
// document is unchanged.
func (s *Service) UpdateDocument(ctx context.Context, kind model.DocumentKind, payload []byte) (*model.Document, error) {
	if !model.IsSingletonKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	normalized, err := validatePayload(kind, payload)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.UpsertDocument(ctx, string(kind), string(normalized))
	if err != nil {
		return nil, err
	}
	s.log.Info("content document updated", "kind", kind)

	doc := &model.Document{
		Kind:      kind,
		Payload:   []byte(row.Payload),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if kind == model.DocumentAbout {
		if doc.Payload, err = withRenderedBody(doc.Payload); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// validatePayload decodes a payload into its typed form, applies the
// kind's validation rules, and re-marshals the normalized value. Unknown
// JSON fields are rejected so typos don't silently vanish.
func validatePayload(kind model.DocumentKind, payload []byte) ([]byte, error) {
	var (
		target any
		check  func() map[string]string
	)
	switch kind {
	case model.DocumentHero:
		v := &model.Hero{}
		target, check = v, func() map[string]string { return validateHero(v) }
	case model.DocumentAbout:
		v := &model.About{}
		target, check = v, func() map[string]string { return validateAbout(v) }
	case model.DocumentExpertise:
		v := &model.Expertise{}
		target, check = v, func() map[string]string { return validateExpertise(v) }
	case model.DocumentNavigation:
		v := &model.Navigation{}
		target, check = v, func() map[string]string { return validateNavigation(v) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if err := decodeStrict(payload, target); err != nil {
		return nil, newValidationError(map[string]string{"payload": err.Error()})
	}
	if kind == model.DocumentAbout {
		// body_html is derived on read, never accepted from clients
		target.(*model.About).BodyHTML = ""
	}
	if fields := check(); len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	normalized, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", kind, err)
	}
	return normalized, nil
}

func decodeStrict(payload []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// withRenderedBody decodes an about payload, renders its markdown body
// to sanitized HTML, and re-marshals with body_html populated.
func withRenderedBody(payload []byte) ([]byte, error) {
	var about model.About
	if err := json.Unmarshal(payload, &about); err != nil {
		return nil, fmt.Errorf("decoding about payload: %w", err)
	}
	html, err := renderMarkdown(about.Body)
	if err != nil {
		return nil, err
	}
	about.BodyHTML = html
	return json.Marshal(about)
}
