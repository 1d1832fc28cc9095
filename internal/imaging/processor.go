// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Thumbnail bounds for project card images.
const (
	ThumbWidth  = 640
	ThumbHeight = 480
)

// MIME types accepted for project image uploads.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// ErrUnsupportedFormat means the upload is not a decodable image type.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// format describes one accepted upload type and how to re-encode it.
type format struct {
	mime   string
	encode func(w io.Writer, img image.Image, quality int) error
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// WebP re-encodes as JPEG since no pure-Go encoder exists.
var formats = map[string]format{
	"jpeg": {MimeTypeJPEG, encodeJPEG},
	"png":  {MimeTypePNG, func(w io.Writer, img image.Image, _ int) error { return png.Encode(w, img) }},
	"gif":  {MimeTypeGIF, func(w io.Writer, img image.Image, _ int) error { return gif.Encode(w, img, nil) }},
	"webp": {MimeTypeWebP, encodeJPEG},
}

// sniff maps detected content types onto the format table. TIFF is
// rejected outright (CVE-2023-36308 in disintegration/imaging).
func sniff(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	if strings.Contains(contentType, "tiff") {
		return "", false
	}
	for name := range formats {
		if strings.Contains(contentType, name) {
			return name, true
		}
	}
	return "", false
}

// Result contains a processed original and its thumbnail, both ready
// for upload to object storage.
type Result struct {
	Original  []byte
	Thumbnail []byte
	Width     int
	Height    int
	MimeType  string
}

// Processor normalizes uploaded images using pure Go libraries.
type Processor struct {
	thumbQuality    int
	originalQuality int
}

// NewProcessor creates a new image processor.
func NewProcessor() *Processor {
	return &Processor{thumbQuality: 90, originalQuality: 95}
}

// Process reads an uploaded image, applies EXIF orientation, strips
// metadata by re-encoding, and produces a thumbnail variant.
func (p *Processor) Process(reader io.Reader) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	name, ok := sniff(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	f := formats[name]

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = normalizeOrientation(img, bytes.NewReader(data))
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	// Re-encoding drops EXIF; the pure Go encoders keep no metadata.
	var original bytes.Buffer
	if err := f.encode(&original, img, p.originalQuality); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	thumbSrc := img
	if w > ThumbWidth || h > ThumbHeight {
		thumbSrc = imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)
	}
	var thumb bytes.Buffer
	if err := f.encode(&thumb, thumbSrc, p.thumbQuality); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return &Result{
		Original:  original.Bytes(),
		Thumbnail: thumb.Bytes(),
		Width:     w,
		Height:    h,
		MimeType:  f.mime,
	}, nil
}

// IsSupportedType checks if a MIME type can be processed.
func (p *Processor) IsSupportedType(mimeType string) bool {
	for _, f := range formats {
		if f.mime == mimeType {
			return true
		}
	}
	return false
}

// DetectMimeType detects the MIME type of image data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType may append parameters like "; charset=utf-8".
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// normalizeOrientation undoes the camera rotation recorded in the EXIF
// orientation tag (values 2-8; 1 and anything unreadable mean no-op).
func normalizeOrientation(img image.Image, raw io.Reader) image.Image {
	x, err := exif.Decode(raw)
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}
	return orient(img, orientation)
}

func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
