// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// MaxProjectImages is the number of image slots a project carries.
const MaxProjectImages = 3

// ProjectImage describes one externally stored image slot. StorageKey and
// ThumbKey identify the original and thumbnail objects in the object store so
// they can be released when the slot is replaced or the project deleted.
type ProjectImage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	ThumbURL    string `json:"thumb_url,omitempty"`
	StorageKey  string `json:"storage_key"`
	ThumbKey    string `json:"thumb_key,omitempty"`
}

// Project is a portfolio project. Unlike the singleton documents, projects
// are addressed by a slug derived from the title at creation time.
type Project struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	// DescriptionHTML is rendered from Description on read, never stored.
	DescriptionHTML string         `json:"description_html,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Featured        bool           `json:"featured"`
	SortOrder       int            `json:"sort_order"`
	Images          []ProjectImage `json:"images"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
