// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/folio-go/internal/model"
)

// Field length limits for singleton documents and projects.
const (
	maxHeadlineLen    = 160
	maxSubheadlineLen = 300
	maxCTALabelLen    = 60
	maxAboutTitleLen  = 120
	maxBodyLen        = 20000
	maxSkills         = 50
	maxSkillNameLen   = 80
	maxSectionTitle   = 120
	maxBrandLen       = 80
	maxNavLinks       = 20
	maxNavLabelLen    = 60
	maxHrefLen        = 500

	maxProjectTitleLen   = 120
	maxProjectSummaryLen = 300
	maxProjectDescLen    = 20000
	maxProjectTags       = 10
	maxTagLen            = 40
)

// runeLen counts characters, not bytes, so multibyte text is not
// penalized by the limits.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func checkRequired(fields map[string]string, field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		fields[field] = "Required"
	case runeLen(value) > maxLen:
		fields[field] = fmt.Sprintf("Must be at most %d characters", maxLen)
	}
}

func checkOptional(fields map[string]string, field, value string, maxLen int) {
	if runeLen(value) > maxLen {
		fields[field] = fmt.Sprintf("Must be at most %d characters", maxLen)
	}
}

func validateHero(h *model.Hero) map[string]string {
	fields := map[string]string{}
	checkRequired(fields, "headline", h.Headline, maxHeadlineLen)
	checkOptional(fields, "subheadline", h.Subheadline, maxSubheadlineLen)
	checkOptional(fields, "cta_label", h.CTALabel, maxCTALabelLen)
	checkOptional(fields, "cta_href", h.CTAHref, maxHrefLen)
	return fields
}

func validateAbout(a *model.About) map[string]string {
	fields := map[string]string{}
	checkRequired(fields, "title", a.Title, maxAboutTitleLen)
	checkRequired(fields, "body", a.Body, maxBodyLen)
	checkOptional(fields, "portrait_url", a.PortraitURL, maxHrefLen)
	return fields
}

func validateExpertise(e *model.Expertise) map[string]string {
	fields := map[string]string{}
	checkRequired(fields, "title", e.Title, maxSectionTitle)
	if len(e.Skills) == 0 {
		fields["skills"] = "At least one skill is required"
	} else if len(e.Skills) > maxSkills {
		fields["skills"] = fmt.Sprintf("Must have at most %d skills", maxSkills)
	}
	for i := range e.Skills {
		s := &e.Skills[i]
		checkRequired(fields, fmt.Sprintf("skills[%d].name", i), s.Name, maxSkillNameLen)
		if s.Percentage < 0 || s.Percentage > 100 {
			fields[fmt.Sprintf("skills[%d].percentage", i)] = "Must be between 0 and 100"
		}
		// Unknown icons degrade to the generic glyph instead of failing
		s.Icon = model.ParseIconKind(string(s.Icon))
	}
	return fields
}

func validateNavigation(n *model.Navigation) map[string]string {
	fields := map[string]string{}
	checkRequired(fields, "brand", n.Brand, maxBrandLen)
	if len(n.Links) > maxNavLinks {
		fields["links"] = fmt.Sprintf("Must have at most %d links", maxNavLinks)
	}
	for i := range n.Links {
		l := &n.Links[i]
		checkRequired(fields, fmt.Sprintf("links[%d].label", i), l.Label, maxNavLabelLen)
		checkRequired(fields, fmt.Sprintf("links[%d].href", i), l.Href, maxHrefLen)
		l.Icon = model.ParseIconKind(string(l.Icon))
	}
	return fields
}

// ProjectInput holds the writable project fields as submitted by a client.
type ProjectInput struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
	SortOrder   int      `json:"sort_order"`
}

// ProjectPatch is a partial project update. Nil fields keep the stored
// value; the singletons replace wholesale, projects merge.
type ProjectPatch struct {
	Title       *string   `json:"title"`
	Summary     *string   `json:"summary"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Featured    *bool     `json:"featured"`
	SortOrder   *int      `json:"sort_order"`
}

// apply merges the patch over an existing project's fields.
func (p ProjectPatch) apply(existing *model.Project) ProjectInput {
	in := ProjectInput{
		Title:       existing.Title,
		Summary:     existing.Summary,
		Description: existing.Description,
		Tags:        existing.Tags,
		Featured:    existing.Featured,
		SortOrder:   existing.SortOrder,
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Summary != nil {
		in.Summary = *p.Summary
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	if p.Featured != nil {
		in.Featured = *p.Featured
	}
	if p.SortOrder != nil {
		in.SortOrder = *p.SortOrder
	}
	return in
}

func validateProjectInput(in *ProjectInput) map[string]string {
	fields := map[string]string{}
	checkRequired(fields, "title", in.Title, maxProjectTitleLen)
	checkOptional(fields, "summary", in.Summary, maxProjectSummaryLen)
	checkOptional(fields, "description", in.Description, maxProjectDescLen)
	if len(in.Tags) > maxProjectTags {
		fields["tags"] = fmt.Sprintf("Must have at most %d tags", maxProjectTags)
	}
	for i, tag := range in.Tags {
		if strings.TrimSpace(tag) == "" {
			fields[fmt.Sprintf("tags[%d]", i)] = "Required"
		} else if runeLen(tag) > maxTagLen {
			fields[fmt.Sprintf("tags[%d]", i)] = fmt.Sprintf("Must be at most %d characters", maxTagLen)
		}
	}
	return fields
}
