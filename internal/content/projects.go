// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// ImageUpload is one incoming image file for a project slot.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreateProject validates the input, derives a slug from the title,
// uploads all images, and only then persists the project row. If the
// insert fails the already uploaded objects are released best-effort.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput, uploads []ImageUpload) (*model.Project, error) {
	if fields := validateProjectInput(&in); len(fields) > 0 {
		return nil, newValidationError(fields)
	}
	if len(uploads) > model.MaxProjectImages {
		return nil, newValidationError(map[string]string{
			"images": fmt.Sprintf("Must have at most %d images", model.MaxProjectImages),
		})
	}

	slug := util.Slugify(in.Title)
	if slug == "" {
		return nil, newValidationError(map[string]string{"title": "Cannot derive a slug from this title"})
	}

	images, err := s.uploadImages(ctx, uploads)
	if err != nil {
		return nil, err
	}

	params, err := createParams(slug, in, images)
	if err != nil {
		s.releaseImages(ctx, images)
		return nil, err
	}
	row, err := s.queries.CreateProject(ctx, params)
	if err != nil {
		// The objects are already in storage; release them so a failed
		// create leaves nothing behind.
		s.releaseImages(ctx, images)
		return nil, err
	}

	s.log.Info("project created", "slug", slug, "images", len(images))
	return s.toProject(row)
}

// GetProject fetches a project by slug.
func (s *Service) GetProject(ctx context.Context, slug string) (*model.Project, error) {
	row, err := s.queries.GetProjectBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %q: %w", slug, err)
	}
	return s.toProject(row)
}

// ListProjects returns all projects, featured first.
func (s *Service) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.queries.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]*model.Project, 0, len(rows))
	for _, row := range rows {
		p, err := s.toProject(row)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// UpdateProject merges the patch over a project's stored fields; only
// supplied fields change. New uploads fill the image slots from the
// start; retained keys listed in keepKeys survive, and any previously
// stored image no longer referenced is released after the row is
// persisted. The slug never changes on update.
func (s *Service) UpdateProject(ctx context.Context, slug string, patch ProjectPatch, uploads []ImageUpload, keepKeys []string) (*model.Project, error) {
	existing, err := s.GetProject(ctx, slug)
	if err != nil {
		return nil, err
	}

	in := patch.apply(existing)
	if fields := validateProjectInput(&in); len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	kept := make([]model.ProjectImage, 0, len(existing.Images))
	for _, img := range existing.Images {
		for _, k := range keepKeys {
			if img.StorageKey == k {
				kept = append(kept, img)
				break
			}
		}
	}
	if len(kept)+len(uploads) > model.MaxProjectImages {
		return nil, newValidationError(map[string]string{
			"images": fmt.Sprintf("Must have at most %d images", model.MaxProjectImages),
		})
	}

	uploaded, err := s.uploadImages(ctx, uploads)
	if err != nil {
		return nil, err
	}
	images := append(kept, uploaded...)

	imagesJSON, err := json.Marshal(images)
	if err != nil {
		s.releaseImages(ctx, uploaded)
		return nil, fmt.Errorf("marshaling images: %w", err)
	}
	tagsJSON, err := marshalTags(in.Tags)
	if err != nil {
		s.releaseImages(ctx, uploaded)
		return nil, err
	}

	err = s.queries.UpdateProject(ctx, store.UpdateProjectParams{
		Slug:        slug,
		Title:       in.Title,
		Summary:     in.Summary,
		Description: in.Description,
		Tags:        tagsJSON,
		Featured:    in.Featured,
		SortOrder:   int64(in.SortOrder),
		Images:      string(imagesJSON),
	})
	if errors.Is(err, sql.ErrNoRows) {
		s.releaseImages(ctx, uploaded)
		return nil, ErrNotFound
	}
	if err != nil {
		s.releaseImages(ctx, uploaded)
		return nil, err
	}

	// The row now references the new image set; drop what it no longer
	// points at. Failures here must not fail the update.
	var dropped []model.ProjectImage
	for _, img := range existing.Images {
		if !containsKey(images, img.StorageKey) {
			dropped = append(dropped, img)
		}
	}
	s.releaseImages(ctx, dropped)

	s.log.Info("project updated", "slug", slug, "images", len(images))
	return s.GetProject(ctx, slug)
}

// DeleteProject removes a project and releases its stored images.
// Object deletions are best-effort: a storage failure is recorded for
// later retry and never resurrects the project row.
func (s *Service) DeleteProject(ctx context.Context, slug string) error {
	existing, err := s.GetProject(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteProject(ctx, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	s.releaseImages(ctx, existing.Images)
	s.log.Info("project deleted", "slug", slug)
	return nil
}

// uploadImages processes and uploads all incoming files before any row
// is written. If any upload fails the ones that succeeded are released
// and the whole batch is rejected.
func (s *Service) uploadImages(ctx context.Context, uploads []ImageUpload) ([]model.ProjectImage, error) {
	var images []model.ProjectImage
	for i, up := range uploads {
		img, err := s.uploadImage(ctx, up)
		if err != nil {
			s.releaseImages(ctx, images)
			if ve, ok := AsValidationError(err); ok {
				return nil, newValidationError(map[string]string{
					fmt.Sprintf("images[%d]", i): ve.Fields["image"],
				})
			}
			return nil, fmt.Errorf("uploading image %q: %w", up.Filename, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *Service) uploadImage(ctx context.Context, up ImageUpload) (model.ProjectImage, error) {
	result, err := s.images.Process(up.Body)
	if err != nil {
		return model.ProjectImage{}, newValidationError(map[string]string{"image": "Unsupported or corrupt image file"})
	}

	id := uuid.New().String()
	ext := extensionFor(result.MimeType, up.Filename)
	key := "projects/" + id + ext
	thumbKey := "projects/thumbs/" + id + ext

	url, err := s.objects.Upload(ctx, key, result.MimeType, bytes.NewReader(result.Original))
	if err != nil {
		return model.ProjectImage{}, err
	}
	thumbURL, err := s.objects.Upload(ctx, thumbKey, result.MimeType, bytes.NewReader(result.Thumbnail))
	if err != nil {
		// The original made it up; don't leave it stranded.
		s.releaseKey(ctx, key, err)
		return model.ProjectImage{}, err
	}

	return model.ProjectImage{
		Filename:    filepath.Base(up.Filename),
		ContentType: result.MimeType,
		URL:         url,
		ThumbURL:    thumbURL,
		StorageKey:  key,
		ThumbKey:    thumbKey,
	}, nil
}

// releaseImages deletes stored objects best-effort. Keys that fail to
// delete are queued for the orphan sweeper instead of being retried
// inline.
func (s *Service) releaseImages(ctx context.Context, images []model.ProjectImage) {
	for _, img := range images {
		if img.StorageKey != "" {
			s.releaseKey(ctx, img.StorageKey, nil)
		}
		if img.ThumbKey != "" {
			s.releaseKey(ctx, img.ThumbKey, nil)
		}
	}
}

func (s *Service) releaseKey(ctx context.Context, key string, cause error) {
	err := cause
	if err == nil {
		err = s.objects.Delete(ctx, key)
	}
	if err == nil {
		return
	}
	s.log.Warn("image delete failed, queueing for sweep", "key", key, "error", err)
	if qerr := s.queries.EnqueueImageOrphan(ctx, key, err.Error()); qerr != nil {
		s.log.Error("failed to queue orphaned image", "key", key, "error", qerr)
	}
}

func createParams(slug string, in ProjectInput, images []model.ProjectImage) (store.CreateProjectParams, error) {
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return store.CreateProjectParams{}, fmt.Errorf("marshaling images: %w", err)
	}
	tagsJSON, err := marshalTags(in.Tags)
	if err != nil {
		return store.CreateProjectParams{}, err
	}
	return store.CreateProjectParams{
		Slug:        slug,
		Title:       in.Title,
		Summary:     in.Summary,
		Description: in.Description,
		Tags:        tagsJSON,
		Featured:    in.Featured,
		SortOrder:   int64(in.SortOrder),
		Images:      string(imagesJSON),
	}, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshaling tags: %w", err)
	}
	return string(data), nil
}

// toProject converts a storage row into the API model, rendering the
// description markdown on the way out.
func (s *Service) toProject(row store.Project) (*model.Project, error) {
	p := &model.Project{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Summary:     row.Summary,
		Description: row.Description,
		Featured:    row.Featured,
		SortOrder:   int(row.SortOrder),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags for %q: %w", row.Slug, err)
		}
	}
	if row.Images != "" {
		if err := json.Unmarshal([]byte(row.Images), &p.Images); err != nil {
			return nil, fmt.Errorf("decoding images for %q: %w", row.Slug, err)
		}
	}
	if p.Images == nil {
		p.Images = []model.ProjectImage{}
	}
	if p.Description != "" {
		html, err := renderMarkdown(p.Description)
		if err != nil {
			return nil, err
		}
		p.DescriptionHTML = html
	}
	return p, nil
}

func containsKey(images []model.ProjectImage, key string) bool {
	for _, img := range images {
		if img.StorageKey == key {
			return true
		}
	}
	return false
}

// extensionFor picks a file extension from the detected MIME type,
// falling back to the upload's own extension.
func extensionFor(mimeType, filename string) string {
	switch mimeType {
	case imaging.MimeTypeJPEG:
		return ".jpg"
	case imaging.MimeTypePNG:
		return ".png"
	case imaging.MimeTypeGIF:
		return ".gif"
	case imaging.MimeTypeWebP:
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return filepath.Ext(filename)
}
