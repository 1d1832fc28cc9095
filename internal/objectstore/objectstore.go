// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package objectstore provides external object storage for uploaded project
// images, backed by any S3-compatible service.
package objectstore

import (
	"context"
	"io"
)

// Store is the object storage interface the content layer depends on.
// Upload returns the public URL of the stored object.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Disabled is a Store that rejects every operation. It is used when the
// object storage credential triple is not configured, so that image
// operations fail with a clear storage error instead of a nil dereference.
type Disabled struct{}

// Error is the error type for object storage operations.
type Error string

func (e Error) Error() string { return string(e) }

// ErrNotConfigured indicates the object store credentials are missing.
const ErrNotConfigured Error = "object storage is not configured"

// Upload always fails with ErrNotConfigured.
func (Disabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

// Delete always fails with ErrNotConfigured.
func (Disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}
