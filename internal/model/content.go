// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// DocumentKind identifies a singleton content document. Each kind has exactly
// one canonical document, addressed by this well-known key.
type DocumentKind string

// Singleton document kinds.
const (
	DocumentHero       DocumentKind = "hero"
	DocumentAbout      DocumentKind = "about"
	DocumentExpertise  DocumentKind = "expertise"
	DocumentNavigation DocumentKind = "navigation"
)

// SingletonKinds lists all singleton document kinds.
var SingletonKinds = []DocumentKind{
	DocumentHero,
	DocumentAbout,
	DocumentExpertise,
	DocumentNavigation,
}

// IsSingletonKind reports whether the kind names a singleton document.
func IsSingletonKind(k DocumentKind) bool {
	switch k {
	case DocumentHero, DocumentAbout, DocumentExpertise, DocumentNavigation:
		return true
	}
	return false
}

// Hero is the landing section content.
type Hero struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
	CTALabel    string `json:"cta_label,omitempty"`
	CTAHref     string `json:"cta_href,omitempty"`
}

// About is the about section content. Body is markdown; BodyHTML is rendered
// and sanitized on read and never stored.
type About struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	BodyHTML    string `json:"body_html,omitempty"`
	PortraitURL string `json:"portrait_url,omitempty"`
}

// Skill is a single expertise entry.
type Skill struct {
	Name       string   `json:"name"`
	Percentage int      `json:"percentage"`
	Icon       IconKind `json:"icon"`
}

// Expertise is the skills section content.
type Expertise struct {
	Title  string  `json:"title"`
	Skills []Skill `json:"skills"`
}

// NavLink is a single navigation entry.
type NavLink struct {
	Label    string   `json:"label"`
	Href     string   `json:"href"`
	Icon     IconKind `json:"icon,omitempty"`
	External bool     `json:"external,omitempty"`
}

// Navigation is the site navigation content.
type Navigation struct {
	Brand string    `json:"brand"`
	Links []NavLink `json:"links"`
}

// Document is the stored envelope for a singleton content document. Payload
// holds the kind-specific JSON body.
type Document struct {
	Kind      DocumentKind `json:"kind"`
	Payload   []byte       `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
