// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"encoding/json"
	"fmt"

	"github.com/olegiv/folio-go/internal/model"
)

// defaultDocument returns the compiled-in seed for a singleton kind. The
// first read of a kind persists this value, so every deployment starts
// from the same placeholder content.
func defaultDocument(kind model.DocumentKind) (any, error) {
	switch kind {
	case model.DocumentHero:
		return model.Hero{
			Headline:    "Hi, I build software.",
			Subheadline: "Full-stack engineer with a focus on clean, maintainable systems.",
			CTALabel:    "View my work",
			CTAHref:     "/projects",
		}, nil
	case model.DocumentAbout:
		return model.About{
			Title: "About me",
			Body:  "I am a software engineer. Edit this section to introduce yourself.",
		}, nil
	case model.DocumentExpertise:
		return model.Expertise{
			Title: "Expertise",
			Skills: []model.Skill{
				{Name: "Backend Development", Percentage: 90, Icon: model.IconKindCode},
				{Name: "Databases", Percentage: 80, Icon: model.IconKindDatabase},
				{Name: "Cloud Infrastructure", Percentage: 75, Icon: model.IconKindCloud},
			},
		}, nil
	case model.DocumentNavigation:
		return model.Navigation{
			Brand: "Portfolio",
			Links: []model.NavLink{
				{Label: "Home", Href: "/"},
				{Label: "Projects", Href: "/projects"},
				{Label: "About", Href: "/#about"},
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// defaultPayload marshals the compiled-in seed for a kind.
func defaultPayload(kind model.DocumentKind) (string, error) {
	doc, err := defaultDocument(kind)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling default %s document: %w", kind, err)
	}
	return string(data), nil
}
