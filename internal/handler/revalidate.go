// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/folio-go/internal/cache"
)

// RevalidateHandler exposes cache invalidation as an API operation.
type RevalidateHandler struct {
	dispatcher *cache.Dispatcher
	log        *slog.Logger
}

// NewRevalidateHandler creates a new RevalidateHandler.
func NewRevalidateHandler(dispatcher *cache.Dispatcher, log *slog.Logger) *RevalidateHandler {
	return &RevalidateHandler{dispatcher: dispatcher, log: log}
}

// revalidateRequest selects what to invalidate. Type is "path", "tag",
// or "all"; "path" names a cached target, "tag" a content type. The
// contentType field is shorthand for {type: "tag", tag: ...}.
type revalidateRequest struct {
	Type        string `json:"type"`
	Path        string `json:"path,omitempty"`
	Tag         string `json:"tag,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Revalidate handles POST /api/revalidate.
func (h *RevalidateHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	var req revalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Type == "" && req.ContentType != "" {
		req.Type = "tag"
		req.Tag = req.ContentType
	}
	if req.Type == "all" || req.Tag == "all" {
		if err := h.dispatcher.InvalidateAll(r.Context()); err != nil {
			h.log.Error("full cache invalidation failed", "error", err)
			WriteInternalError(w, "Cache invalidation failed")
			return
		}
		WriteSuccess(w, map[string]any{"invalidated": "all"})
		return
	}

	var (
		targets []string
		err     error
	)
	switch req.Type {
	case "path":
		if req.Path == "" {
			WriteBadRequest(w, "path is required for type \"path\"", nil)
			return
		}
		targets, err = h.dispatcher.InvalidatePath(r.Context(), req.Path)
	case "tag":
		if req.Tag == "" {
			WriteBadRequest(w, "tag is required for type \"tag\"", nil)
			return
		}
		targets, err = h.dispatcher.Invalidate(r.Context(), req.Tag)
	default:
		WriteBadRequest(w, "type must be \"path\", \"tag\", or \"all\"", map[string]string{
			"type": "Must be one of: path, tag, all",
		})
		return
	}

	if err != nil {
		if errors.Is(err, cache.ErrUnknownContentType) || errors.Is(err, cache.ErrUnknownPath) {
			WriteBadRequest(w, "Nothing maps to the requested target", map[string]string{
				req.Type: "Not covered by the invalidation mapping",
			})
			return
		}
		h.log.Error("cache invalidation failed", "type", req.Type, "error", err)
		WriteInternalError(w, "Cache invalidation failed")
		return
	}

	WriteSuccess(w, map[string]any{
		"type":        req.Type,
		"invalidated": targets,
	})
}
