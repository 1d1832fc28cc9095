// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is the fixed validity window of an admin session token.
const TokenLifetime = 24 * time.Hour

// Claims is the session token claim set. IsAdmin is always true for tokens
// minted by this application; it is carried explicitly so the frontend can
// read it from the verify endpoint.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// WatermarkFunc returns the revocation watermark for an admin email: tokens
// issued before the returned time are rejected. A zero time (or a nil
// function) means no watermark is set. Errors fail closed.
type WatermarkFunc func(ctx context.Context, email string) (time.Time, error)

// TokenService mints and validates signed admin session tokens. Validation is
// pure over the secret except for the optional revocation watermark lookup.
type TokenService struct {
	secret    []byte
	watermark WatermarkFunc
	now       func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
// The watermark function may be nil to disable revocation checks.
func NewTokenService(secret []byte, watermark WatermarkFunc) *TokenService {
	return &TokenService{
		secret:    secret,
		watermark: watermark,
		now:       time.Now,
	}
}

// Issue mints a signed token asserting the admin identity, valid for
// TokenLifetime from now.
func (s *TokenService) Issue(email string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token signing secret is not configured")
	}

	now := s.now()
	claims := Claims{
		Email:   email,
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token. It returns the claims and true only
// when the signature verifies, the token is not expired, and the issue time
// is not older than the admin's revocation watermark. Every failure mode
// (malformed token, bad signature, expiry, watermark lookup error) yields
// (nil, false); callers never see an error.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*Claims, bool) {
	if tokenString == "" || len(s.secret) == 0 {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, false
	}

	if !claims.IsAdmin || claims.Email == "" {
		return nil, false
	}

	if s.watermark != nil {
		minIssued, err := s.watermark(ctx, claims.Email)
		if err != nil {
			return nil, false
		}
		if !minIssued.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(minIssued) {
			return nil, false
		}
	}

	return claims, true
}
