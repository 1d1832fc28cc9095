// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/handler"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/testutil"
	"github.com/olegiv/folio-go/internal/version"
)

var testTokenSecret = []byte("handler-test-secret-32-bytes-ok!")

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse"
)

// fakeObjects is an in-memory object store for handler tests.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// testEnv wires the full router the way main does, against a temp
// database, a memory cache, and a fake object store.
type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
	objects *fakeObjects
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	queries := store.New(db)
	logger := testutil.TestLogger()

	memCache := cache.NewMemoryCache(time.Minute, 0)
	t.Cleanup(func() { _ = memCache.Close() })
	dispatcher := cache.NewDispatcher(memCache, logger)

	objects := newFakeObjects()
	service := content.NewService(queries, objects, logger)

	tokens := auth.NewTokenService(testTokenSecret, func(ctx context.Context, email string) (time.Time, error) {
		minIssued, err := queries.GetAdminMinIssuedAt(ctx, email)
		if err != nil {
			return time.Time{}, err
		}
		if !minIssued.Valid {
			return time.Time{}, nil
		}
		return minIssued.Time, nil
	})

	// Lenient IP limits so sequential test logins don't trip them.
	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	authHandler := handler.NewAuthHandler(db, tokens, loginProtection, false, logger)
	contentHandler := handler.NewContentHandler(service, dispatcher, logger)
	projectsHandler := handler.NewProjectsHandler(service, dispatcher, logger)
	revalidateHandler := handler.NewRevalidateHandler(dispatcher, logger)
	adminHandler := handler.NewAdminHandler(queries, logger)
	healthHandler := handler.NewHealthHandler(db, memCache, &version.Info{Version: "test"})

	apiGate := middleware.APIGate(tokens)
	adminGate := middleware.AdminGate(tokens)

	r := chi.NewRouter()
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ResponseCache(memCache, time.Minute))
		r.Get("/api/projects", projectsHandler.List)
		r.Get("/api/projects/{slug}", projectsHandler.Get)
		r.Get("/api/{kind}", contentHandler.Get)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(apiGate).Get("/verify", authHandler.Verify)
	})

	r.Group(func(r chi.Router) {
		r.Use(apiGate)
		r.Post("/api/projects", projectsHandler.Create)
		r.Put("/api/projects/{slug}", projectsHandler.Update)
		r.Delete("/api/projects/{slug}", projectsHandler.Delete)
		r.Put("/api/{kind}", contentHandler.Update)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(apiGate)
		r.Get("/health", healthHandler.Detail)
		r.Get("/events", adminHandler.Events)
	})

	r.With(apiGate).Post("/api/revalidate", revalidateHandler.Revalidate)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", adminHandler.LoginPage)
		r.Group(func(r chi.Router) {
			r.Use(adminGate)
			r.Get("/", adminHandler.Dashboard)
			r.HandleFunc("/*", http.NotFound)
		})
	})

	return &testEnv{
		db:      db,
		queries: queries,
		cache:   memCache,
		objects: objects,
		router:  r,
	}
}

// createAdmin inserts the standard test admin account.
func (e *testEnv) createAdmin(t *testing.T) {
	t.Helper()
	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := e.queries.CreateAdmin(context.Background(), testAdminEmail, hash); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
}

// login performs a login request and returns the token cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, testAdminEmail, testAdminPassword)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("login response has no token cookie")
	return nil
}

// do runs a request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

// decodeData unmarshals the "data" envelope field into out.
func decodeData(t *testing.T, body *bytes.Buffer, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshaling envelope: %v (body %s)", err, body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("unmarshaling data: %v (body %s)", err, body.String())
	}
}

// decodeError unmarshals the error envelope.
func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorDetail {
	t.Helper()
	var envelope struct {
		Error handler.ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshaling error envelope: %v (body %s)", err, body.String())
	}
	return envelope.Error
}
