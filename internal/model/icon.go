// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// IconKind identifies one of the closed set of icons the frontend knows how
// to render. Unknown values coming from stored documents or API payloads are
// mapped to IconKindGeneric rather than dispatched by name at runtime.
type IconKind string

// Known icon kinds.
const (
	IconKindGeneric  IconKind = "generic"
	IconKindCode     IconKind = "code"
	IconKindDesign   IconKind = "design"
	IconKindDatabase IconKind = "database"
	IconKindCloud    IconKind = "cloud"
	IconKindMobile   IconKind = "mobile"
	IconKindTerminal IconKind = "terminal"
	IconKindGlobe    IconKind = "globe"
	IconKindMail     IconKind = "mail"
	IconKindGitHub   IconKind = "github"
	IconKindLinkedIn IconKind = "linkedin"
)

// iconKinds is the exhaustive set of valid icon kinds.
var iconKinds = map[IconKind]struct{}{
	IconKindGeneric:  {},
	IconKindCode:     {},
	IconKindDesign:   {},
	IconKindDatabase: {},
	IconKindCloud:    {},
	IconKindMobile:   {},
	IconKindTerminal: {},
	IconKindGlobe:    {},
	IconKindMail:     {},
	IconKindGitHub:   {},
	IconKindLinkedIn: {},
}

// ParseIconKind maps a raw string to a known IconKind, falling back to
// IconKindGeneric for unknown or empty values.
func ParseIconKind(s string) IconKind {
	k := IconKind(s)
	if _, ok := iconKinds[k]; ok {
		return k
	}
	return IconKindGeneric
}

// IsValid reports whether the kind is one of the known icon kinds.
func (k IconKind) IsValid() bool {
	_, ok := iconKinds[k]
	return ok
}
