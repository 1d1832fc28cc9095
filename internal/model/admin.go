// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Admin, the content documents, and Project.
package model

import (
	"database/sql"
	"time"
)

// Admin represents a site administrator. Admins are provisioned out of band
// via folioctl, never through the public site.
type Admin struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	// MinIssuedAt is the token revocation watermark: session tokens issued
	// before this instant are rejected even when their signature and expiry
	// are otherwise valid.
	MinIssuedAt sql.NullTime `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	LastLoginAt sql.NullTime `json:"last_login_at,omitempty"`
}
