// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation collapsed", "My Project!", "my-project"},
		{"multiple spaces", "a  b   c", "a-b-c"},
		{"accents", "Café Révolution", "cafe-revolution"},
		{"cyrillic transliterated", "Привет", "privet"},
		{"leading trailing junk", "--Hello--", "hello"},
		{"mixed symbols", "Go & Rust: a (short) tour", "go-rust-a-short-tour"},
		{"numbers kept", "Top 10 of 2026", "top-10-of-2026"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	for range 3 {
		if got := Slugify("My Project!"); got != "my-project" {
			t.Fatalf("Slugify not deterministic, got %q", got)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"top-10", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"UpperCase", false},
		{"with space", false},
		{"юникод", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}
