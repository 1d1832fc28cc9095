// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/util"
)

// maxUploadSize bounds a whole project write request, images included.
const maxUploadSize = 32 << 20 // 32MB

// ProjectsHandler serves the project collection.
type ProjectsHandler struct {
	service    *content.Service
	dispatcher *cache.Dispatcher
	log        *slog.Logger
}

// NewProjectsHandler creates a new ProjectsHandler.
func NewProjectsHandler(service *content.Service, dispatcher *cache.Dispatcher, log *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		service:    service,
		dispatcher: dispatcher,
		log:        log,
	}
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}
	WriteSuccess(w, projects)
}

// Get handles GET /api/projects/{slug}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteNotFound(w, "Project not found")
		return
	}

	project, err := h.service.GetProject(r.Context(), slug)
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}
	WriteSuccess(w, project)
}

// Create handles POST /api/projects. The request is multipart:
// a "payload" part with the project JSON plus up to three "images"
// file parts. A plain JSON body works for projects without images.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, uploads, _, ok := h.readProjectRequest(w, r)
	if !ok {
		return
	}
	defer closeUploads(uploads)

	var input content.ProjectInput
	if err := json.Unmarshal(payload, &input); err != nil {
		WriteBadRequest(w, "Invalid payload JSON", nil)
		return
	}

	project, err := h.service.CreateProject(r.Context(), input, toImageUploads(uploads))
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}

	h.invalidate(r)
	WriteCreated(w, project)
}

// Update handles PUT /api/projects/{slug}. Existing images listed
// in the "keep" field survive; new "images" parts fill the remaining
// slots; everything else is released.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteNotFound(w, "Project not found")
		return
	}

	payload, uploads, keep, ok := h.readProjectRequest(w, r)
	if !ok {
		return
	}
	defer closeUploads(uploads)

	var patch content.ProjectPatch
	if err := json.Unmarshal(payload, &patch); err != nil {
		WriteBadRequest(w, "Invalid payload JSON", nil)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), slug, patch, toImageUploads(uploads), keep)
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}

	h.invalidate(r)
	WriteSuccess(w, project)
}

// Delete handles DELETE /api/projects/{slug}.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteNotFound(w, "Project not found")
		return
	}

	if err := h.service.DeleteProject(r.Context(), slug); err != nil {
		writeContentError(w, err, h.log)
		return
	}

	h.invalidate(r)
	WriteSuccess(w, map[string]any{"deleted": slug})
}

// upload pairs a multipart file with its header so it can be closed
// after the service consumed it.
type upload struct {
	file   multipart.File
	header *multipart.FileHeader
}

// readProjectRequest parses either a multipart or a plain JSON project
// write request and returns the raw payload JSON. On failure it writes
// the error response and returns ok=false.
func (h *ProjectsHandler) readProjectRequest(w http.ResponseWriter, r *http.Request) ([]byte, []upload, []string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		payload, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(payload) {
			WriteBadRequest(w, "Invalid JSON body", nil)
			return nil, nil, nil, false
		}
		return payload, nil, nil, true
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteBadRequest(w, "Invalid multipart request", nil)
		return nil, nil, nil, false
	}

	payload := []byte(r.FormValue("payload"))
	if len(payload) == 0 {
		WriteBadRequest(w, "Missing payload field", nil)
		return nil, nil, nil, false
	}
	if !json.Valid(payload) {
		WriteBadRequest(w, "Invalid payload JSON", nil)
		return nil, nil, nil, false
	}

	var keep []string
	for _, k := range r.MultipartForm.Value["keep"] {
		for _, key := range strings.Split(k, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keep = append(keep, key)
			}
		}
	}

	var uploads []upload
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			closeUploads(uploads)
			WriteBadRequest(w, "Failed to read uploaded file", nil)
			return nil, nil, nil, false
		}
		uploads = append(uploads, upload{file: file, header: header})
	}

	return payload, uploads, keep, true
}

func toImageUploads(uploads []upload) []content.ImageUpload {
	out := make([]content.ImageUpload, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, content.ImageUpload{
			Filename:    u.header.Filename,
			ContentType: u.header.Header.Get("Content-Type"),
			Body:        u.file,
		})
	}
	return out
}

func closeUploads(uploads []upload) {
	for _, u := range uploads {
		_ = u.file.Close()
	}
}

func (h *ProjectsHandler) invalidate(r *http.Request) {
	if _, err := h.dispatcher.Invalidate(r.Context(), "projects"); err != nil {
		h.log.Warn("cache invalidation after project write failed", "error", err)
	}
}
