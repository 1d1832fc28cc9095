// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty hash")
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ (random salt)")
	}
	if !CheckPassword("changeme", h1) || !CheckPassword("changeme", h2) {
		t.Fatal("both salted hashes should verify")
	}
}

func TestCheckPassword_Correct(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if !CheckPassword("changeme", hash) {
		t.Fatal("correct password was rejected")
	}
}

func TestCheckPassword_Wrong(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if CheckPassword("wrongpassword", hash) {
		t.Fatal("wrong password was accepted")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"bad hash encoding", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!"},
		{"truncated", "$argon2id$v=19$m=19456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CheckPassword("changeme", tt.hash) {
				t.Fatal("malformed hash should never verify")
			}
		})
	}
}

func TestBurnHash_FullCost(t *testing.T) {
	// The dummy hash must decode with the current parameters, otherwise
	// CheckPassword bails out before the argon2 work and unknown-account
	// logins answer measurably faster than wrong-password logins.
	p, ok := decodeHash(dummyHash)
	if !ok {
		t.Fatal("dummy hash does not decode")
	}
	if p.memory != Argon2Memory || p.time != Argon2Time || p.threads != Argon2Threads {
		t.Fatalf("dummy hash parameters m=%d,t=%d,p=%d differ from the defaults", p.memory, p.time, p.threads)
	}
	if CheckPassword("folio-no-such-account", "") {
		t.Fatal("empty stored hash should never verify")
	}
	BurnHash("anything")
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Fatal("fresh hash should not need rehash")
	}

	// Old parameters (64MB memory) should trigger a rehash.
	old := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"
	if !NeedsRehash(old) {
		t.Fatal("hash with old parameters should need rehash")
	}

	if !NeedsRehash("garbage") {
		t.Fatal("malformed hash should need rehash")
	}
}
