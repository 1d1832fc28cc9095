// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/store"
)

const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sign In — Folio</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;justify-content:center;align-items:center;min-height:100vh;margin:0;background:#f5f5f5}
form{background:#fff;padding:2rem;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.1);width:320px}
label{display:block;margin-bottom:.25rem;font-size:.875rem}
input{width:100%;padding:.5rem;margin-bottom:1rem;border:1px solid #ccc;border-radius:4px;box-sizing:border-box}
button{width:100%;padding:.5rem;background:#1a1a2e;color:#fff;border:none;border-radius:4px;cursor:pointer}
.error{color:#c0392b;font-size:.875rem;margin-bottom:1rem;display:none}
</style>
</head>
<body>
<form id="login-form">
<h1>Sign In</h1>
<p class="error" id="error"></p>
<label for="email">Email</label>
<input type="email" id="email" name="email" required autocomplete="username">
<label for="password">Password</label>
<input type="password" id="password" name="password" required autocomplete="current-password">
<button type="submit">Sign In</button>
</form>
<script>
document.getElementById('login-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const errEl = document.getElementById('error');
  errEl.style.display = 'none';
  const res = await fetch('/api/auth/login', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      email: document.getElementById('email').value,
      password: document.getElementById('password').value
    })
  });
  if (res.ok) {
    window.location.href = '/admin';
    return;
  }
  const body = await res.json().catch(() => null);
  errEl.textContent = (body && body.error && body.error.message) || 'Sign in failed';
  errEl.style.display = 'block';
});
</script>
</body>
</html>`

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Admin — Folio</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f5f5}
header{background:#1a1a2e;color:#fff;padding:1rem 2rem;display:flex;justify-content:space-between;align-items:center}
main{padding:2rem;max-width:960px;margin:0 auto}
a{color:inherit}
nav a{margin-right:1rem}
button{padding:.25rem .75rem;border:1px solid #fff;background:transparent;color:#fff;border-radius:4px;cursor:pointer}
section{background:#fff;padding:1.5rem;border-radius:8px;margin-bottom:1.5rem;box-shadow:0 1px 4px rgba(0,0,0,.1)}
code{background:#eee;padding:.125rem .375rem;border-radius:3px}
</style>
</head>
<body>
<header>
<strong>Folio Admin</strong>
<div><span>{{.Email}}</span> <button id="logout">Sign Out</button></div>
</header>
<main>
<section>
<h2>Content</h2>
<p>Singleton documents: <code>GET/PUT /api/{kind}</code> for
<code>hero</code>, <code>about</code>, <code>expertise</code>, <code>navigation</code>.</p>
</section>
<section>
<h2>Projects</h2>
<p>Manage via <code>/api/projects</code>. Create and update accept
multipart form data with a <code>payload</code> JSON part and up to three
<code>images</code> files.</p>
</section>
<section>
<h2>Cache</h2>
<p>Invalidate rendered responses with <code>POST /api/revalidate</code>.</p>
</section>
</main>
<script>
document.getElementById('logout').addEventListener('click', async () => {
  await fetch('/api/auth/logout', {method: 'POST'});
  window.location.href = '/admin/login';
});
</script>
</body>
</html>`

var (
	loginPageTmpl = template.Must(template.New("login").Parse(loginPageHTML))
	dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))
)

// AdminHandler serves the minimal admin UI shell.
type AdminHandler struct {
	queries *store.Queries
	log     *slog.Logger
}

// NewAdminHandler creates a new admin UI handler.
func NewAdminHandler(queries *store.Queries, log *slog.Logger) *AdminHandler {
	return &AdminHandler{queries: queries, log: log}
}

// LoginPage serves GET /admin/login.
func (h *AdminHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPageTmpl.Execute(w, nil); err != nil {
		h.log.Error("render login page", "error", err)
	}
}

// Dashboard serves GET /admin behind the admin gate.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Email string }{Email: claims.Email}
	if err := dashboardTmpl.Execute(w, data); err != nil {
		h.log.Error("render dashboard", "error", err)
	}
}

// Events handles GET /api/admin/events returning recent operational events.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListRecentEvents(r.Context(), 100)
	if err != nil {
		h.log.Error("list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	type eventResponse struct {
		ID        int64  `json:"id"`
		Level     string `json:"level"`
		Message   string `json:"message"`
		Source    string `json:"source"`
		Metadata  string `json:"metadata,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		e := eventResponse{
			ID:        ev.ID,
			Level:     ev.Level,
			Message:   ev.Message,
			Source:    ev.Source,
			CreatedAt: ev.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if ev.Metadata.Valid {
			e.Metadata = ev.Metadata.String
		}
		out = append(out, e)
	}
	WriteSuccess(w, out)
}
