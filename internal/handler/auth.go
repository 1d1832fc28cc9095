// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/store"
)

// AuthHandler handles login, logout, and token verification.
type AuthHandler struct {
	queries         *store.Queries
	tokens          *auth.TokenService
	loginProtection *middleware.LoginProtection
	secureCookies   bool
	log             *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookies should be
// true in production so the token cookie is HTTPS-only.
func NewAuthHandler(db *sql.DB, tokens *auth.TokenService, lp *middleware.LoginProtection, secureCookies bool, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		tokens:          tokens,
		loginProtection: lp,
		secureCookies:   secureCookies,
		log:             log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. On success it issues a signed
// token and sets it as the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.loginProtection != nil && !h.loginProtection.CheckIPRateLimit(ip) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many login attempts, slow down", nil)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(req.Email); locked {
			h.log.Warn("login attempt on locked account", "email", req.Email, "ip", ip)
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Account temporarily locked, try again in "+remaining.Round(time.Second).String(), nil)
			return
		}
	}

	admin, err := h.queries.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.log.Error("loading admin for login", "error", err)
			WriteInternalError(w, "Internal error")
			return
		}
		// Burn a full-cost comparison so missing accounts take as long
		// as wrong passwords.
		auth.BurnHash(req.Password)
		h.recordFailure(req.Email, ip)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	if !auth.CheckPassword(req.Password, admin.PasswordHash) {
		h.recordFailure(req.Email, ip)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(admin.Email)
	if err != nil {
		h.log.Error("issuing token", "error", err)
		WriteInternalError(w, "Internal error")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Email)
	}
	if err := h.queries.UpdateAdminLastLogin(r.Context(), admin.Email, time.Now().UTC()); err != nil {
		h.log.Warn("recording last login", "email", admin.Email, "error", err)
	}

	http.SetCookie(w, h.tokenCookie(token, auth.TokenLifetime))
	h.log.Info("admin logged in", "email", admin.Email, "ip", ip)

	WriteSuccess(w, map[string]any{"email": admin.Email})
}

// Verify handles GET /api/auth/verify. The API gate has already
// validated the cookie; this just reports who the caller is.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, map[string]any{
		"email":      claims.Email,
		"is_admin":   claims.IsAdmin,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout handles POST /api/auth/logout by expiring the token cookie.
// The token itself stays valid until expiry; revocation is handled by
// the watermark (see folioctl revoke-tokens).
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	cookie := h.tokenCookie("", 0)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	WriteSuccess(w, map[string]any{"logged_out": true})
}

func (h *AuthHandler) tokenCookie(value string, lifetime time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) recordFailure(email, ip string) {
	if h.loginProtection == nil {
		return
	}
	if locked, duration := h.loginProtection.RecordFailedAttempt(email); locked {
		h.log.Warn("account locked after failed logins", "email", email, "ip", ip, "duration", duration)
	}
}

// clientIP extracts the remote host, without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
