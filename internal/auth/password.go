// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth provides password hashing with argon2id and the issuing and
// validation of the signed admin session tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters (OWASP recommended second choice: m=19456, t=2, p=1)
const (
	Argon2Time    = 2
	Argon2Memory  = 19 * 1024 // 19 MB, fits on 256MB VMs
	Argon2Threads = 1
	Argon2KeyLen  = 32
	Argon2SaltLen = 16
)

// hashParams is the parameter set decoded from a stored hash string.
type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	digest  []byte
}

// decodeHash parses the $argon2id$v=19$m=...,t=...,p=...$salt$digest form.
func decodeHash(encoded string) (hashParams, bool) {
	var p hashParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, false
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, false
	}
	if p.digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.digest) == 0 {
		return p, false
	}
	return p, true
}

// HashPassword creates an Argon2id hash of the password.
// Returns the encoded hash in format: $argon2id$v=19$m=19456,t=2,p=1$salt$hash
func HashPassword(password string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest)), nil
}

// dummyHash is a well-formed hash of a throwaway password, compared
// against when no account matches a login attempt.
var dummyHash = func() string {
	h, err := HashPassword("folio-no-such-account")
	if err != nil {
		panic(err)
	}
	return h
}()

// BurnHash runs a throwaway comparison with the same argon2 cost as a
// real password check. Call it on unknown-account logins so response
// timing does not reveal which emails are registered.
func BurnHash(password string) {
	CheckPassword(password, dummyHash)
}

// CheckPassword verifies a password against an Argon2id hash using a
// constant-time comparison. A malformed hash is reported as a non-match, not
// an error: login must fail closed on bad stored material.
func CheckPassword(password, encodedHash string) bool {
	p, ok := decodeHash(encodedHash)
	if !ok {
		return false
	}
	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.digest)))
	return subtle.ConstantTimeCompare(computed, p.digest) == 1
}

// NeedsRehash reports whether a stored hash was created with parameters
// other than the current defaults and should be re-created on next login.
func NeedsRehash(encodedHash string) bool {
	p, ok := decodeHash(encodedHash)
	if !ok {
		return true
	}
	return p.memory != Argon2Memory || p.time != Argon2Time || p.threads != Argon2Threads
}
