// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/olegiv/folio-go/internal/model"
)

// testPNG encodes a small valid PNG for upload tests.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

// multipartProject builds a multipart body with a payload part and
// optional image files and keep keys.
func multipartProject(t *testing.T, payload string, images [][]byte, keep []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload", payload); err != nil {
		t.Fatalf("writing payload field: %v", err)
	}
	for _, k := range keep {
		if err := mw.WriteField("keep", k); err != nil {
			t.Fatalf("writing keep field: %v", err)
		}
	}
	for i, img := range images {
		part, err := mw.CreateFormFile("images", "photo.png")
		if err != nil {
			t.Fatalf("creating image part %d: %v", i, err)
		}
		if _, err := part.Write(img); err != nil {
			t.Fatalf("writing image part %d: %v", i, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

const projectPayload = `{"title":"My First Project","summary":"A thing I built","description":"Built with **Go**","tags":["go","web"],"featured":true,"sort_order":1}`

func TestCreateProject_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(projectPayload), withCookie(cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var project model.Project
	decodeData(t, rec.Body, &project)
	if project.Slug != "my-first-project" {
		t.Errorf("slug = %q, want my-first-project", project.Slug)
	}
	if !strings.Contains(project.DescriptionHTML, "<strong>Go</strong>") {
		t.Errorf("description_html = %q, want rendered markdown", project.DescriptionHTML)
	}
	if len(project.Images) != 0 {
		t.Errorf("images = %d, want 0", len(project.Images))
	}
}

func TestCreateProject_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(projectPayload))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateProject_Multipart(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	body, contentType := multipartProject(t, projectPayload, [][]byte{testPNG(t)}, nil)
	rec := env.do(t, http.MethodPost, "/api/projects", body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var project model.Project
	decodeData(t, rec.Body, &project)
	if len(project.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(project.Images))
	}
	img := project.Images[0]
	if !strings.HasPrefix(img.URL, "https://cdn.example.com/projects/") {
		t.Errorf("image URL = %q, want cdn prefix", img.URL)
	}
	if img.ThumbURL == "" {
		t.Error("image has no thumbnail URL")
	}
	// Original plus thumbnail stored.
	if got := env.objects.count(); got != 2 {
		t.Errorf("stored objects = %d, want 2", got)
	}
}

func TestCreateProject_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(projectPayload), withCookie(cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/projects", strings.NewReader(projectPayload), withCookie(cookie))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409, body %s", rec.Code, rec.Body.String())
	}
	e := decodeError(t, rec.Body)
	if e.Code != "conflict" {
		t.Errorf("code = %q, want conflict", e.Code)
	}
	if _, ok := e.Details["slug"]; !ok {
		t.Errorf("details = %v, want slug entry", e.Details)
	}
}

func TestCreateProject_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(`{"title":""}`), withCookie(cookie))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	e := decodeError(t, rec.Body)
	if _, ok := e.Details["title"]; !ok {
		t.Errorf("details = %v, want title entry", e.Details)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/projects/no-such-project", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetProject_InvalidSlug(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/projects/Not%20A%20Slug", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	first := `{"title":"Background Job","featured":false,"sort_order":2}`
	second := `{"title":"Flagship App","featured":true,"sort_order":1}`
	for _, payload := range []string{first, second} {
		rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(payload), withCookie(cookie))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/api/projects", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var projects []model.Project
	decodeData(t, rec.Body, &projects)
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	// Featured first.
	if projects[0].Slug != "flagship-app" {
		t.Errorf("first project = %q, want flagship-app", projects[0].Slug)
	}
}

func TestUpdateProject_ReplacesImages(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	body, contentType := multipartProject(t, projectPayload, [][]byte{testPNG(t)}, nil)
	rec := env.do(t, http.MethodPost, "/api/projects", body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created model.Project
	decodeData(t, rec.Body, &created)
	oldKey := created.Images[0].StorageKey

	// Update with a fresh image and without keeping the old one.
	body, contentType = multipartProject(t, projectPayload, [][]byte{testPNG(t)}, nil)
	rec = env.do(t, http.MethodPut, "/api/projects/"+created.Slug, body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated model.Project
	decodeData(t, rec.Body, &updated)
	if len(updated.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(updated.Images))
	}
	if updated.Images[0].StorageKey == oldKey {
		t.Error("image was not replaced")
	}
	// Old pair released, new pair stored.
	if got := env.objects.count(); got != 2 {
		t.Errorf("stored objects = %d, want 2", got)
	}
}

func TestUpdateProject_KeepsListedImages(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	body, contentType := multipartProject(t, projectPayload, [][]byte{testPNG(t)}, nil)
	rec := env.do(t, http.MethodPost, "/api/projects", body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	var created model.Project
	decodeData(t, rec.Body, &created)
	kept := created.Images[0].StorageKey

	body, contentType = multipartProject(t, projectPayload, nil, []string{kept})
	rec = env.do(t, http.MethodPut, "/api/projects/"+created.Slug, body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated model.Project
	decodeData(t, rec.Body, &updated)
	if len(updated.Images) != 1 || updated.Images[0].StorageKey != kept {
		t.Fatalf("images = %+v, want kept key %q", updated.Images, kept)
	}
}

func TestUpdateProject_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	rec := env.do(t, http.MethodPut, "/api/projects/no-such-project", strings.NewReader(projectPayload), withCookie(cookie))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteProject_ReleasesImages(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	body, contentType := multipartProject(t, projectPayload, [][]byte{testPNG(t)}, nil)
	rec := env.do(t, http.MethodPost, "/api/projects", body, withCookie(cookie), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	var created model.Project
	decodeData(t, rec.Body, &created)

	rec = env.do(t, http.MethodDelete, "/api/projects/"+created.Slug, nil, withCookie(cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := env.objects.count(); got != 0 {
		t.Errorf("stored objects after delete = %d, want 0", got)
	}

	rec = env.do(t, http.MethodGet, "/api/projects/"+created.Slug, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestProjectWrite_InvalidatesListCache(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t)
	cookie := env.login(t)

	env.do(t, http.MethodGet, "/api/projects", nil)
	rec := env.do(t, http.MethodGet, "/api/projects", nil)
	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("warm X-Cache = %q, want HIT", got)
	}

	rec = env.do(t, http.MethodPost, "/api/projects", strings.NewReader(projectPayload), withCookie(cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/projects", nil)
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("post-create X-Cache = %q, want MISS", got)
	}
	var projects []model.Project
	decodeData(t, rec.Body, &projects)
	if len(projects) != 1 {
		t.Errorf("projects = %d, want 1", len(projects))
	}
}
