// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/model"
)

// maxDocumentBody bounds singleton document payloads.
const maxDocumentBody = 1 << 20 // 1MB

// ContentHandler serves the singleton content documents.
type ContentHandler struct {
	service    *content.Service
	dispatcher *cache.Dispatcher
	log        *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(service *content.Service, dispatcher *cache.Dispatcher, log *slog.Logger) *ContentHandler {
	return &ContentHandler{
		service:    service,
		dispatcher: dispatcher,
		log:        log,
	}
}

// documentResponse is the wire shape of a singleton document.
type documentResponse struct {
	Kind      model.DocumentKind `json:"kind"`
	Content   json.RawMessage    `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toDocumentResponse(doc *model.Document) documentResponse {
	return documentResponse{
		Kind:      doc.Kind,
		Content:   json.RawMessage(doc.Payload),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// Get handles GET /api/{kind}. The first read of a kind seeds its
// default document.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind := model.DocumentKind(chi.URLParam(r, "kind"))

	doc, err := h.service.GetDocument(r.Context(), kind)
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}
	WriteSuccess(w, toDocumentResponse(doc))
}

// Update handles PUT /api/{kind}. The body is the kind-specific
// content object.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind := model.DocumentKind(chi.URLParam(r, "kind"))

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBody))
	if err != nil {
		WriteBadRequest(w, "Failed to read request body", nil)
		return
	}

	doc, err := h.service.UpdateDocument(r.Context(), kind, payload)
	if err != nil {
		writeContentError(w, err, h.log)
		return
	}

	// Cache invalidation is best-effort and never fails the write.
	if _, err := h.dispatcher.Invalidate(r.Context(), string(kind)); err != nil {
		h.log.Warn("cache invalidation after document update failed", "kind", kind, "error", err)
	}

	WriteSuccess(w, toDocumentResponse(doc))
}
