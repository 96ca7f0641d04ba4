package listings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"rentlona/internal/app/dto"
	"rentlona/internal/domain/shared/validation"
)

const (
	uploadImagesKey = "listings.upload_images"

	// MaxUploadFiles caps one multipart request.
	MaxUploadFiles = 5
)

// ErrUploadsDisabled is returned when no object storage is configured.
var ErrUploadsDisabled = errors.New("listings: image uploads are not configured")

// Uploader stores binary content and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

// Thumbnailer renders a smaller preview of an image.
type Thumbnailer interface {
	Thumbnail(data []byte) ([]byte, string, error)
}

type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadImagesCommand struct {
	OwnerID string
	Files   []ImageFile
}

func (c UploadImagesCommand) Key() string     { return uploadImagesKey }
func (c UploadImagesCommand) ActorID() string { return c.OwnerID }

func (c UploadImagesCommand) Validate() error {
	var v validation.Collector
	v.Check(len(c.Files) > 0, "images", "at least one file is required")
	v.Check(len(c.Files) <= MaxUploadFiles, "images", fmt.Sprintf("at most %d files per request", MaxUploadFiles))
	for _, f := range c.Files {
		if len(f.Data) == 0 {
			v.Add("images", "file is empty")
			break
		}
		if !IsAllowedImageType(f.ContentType) {
			v.Add("images", "unsupported content type "+f.ContentType)
			break
		}
	}
	return v.Err()
}

type UploadImagesHandler struct {
	Uploader    Uploader
	Thumbnailer Thumbnailer
	Logger      *slog.Logger
}

func (h *UploadImagesHandler) Handle(ctx context.Context, cmd UploadImagesCommand) (*dto.UploadedImages, error) {
	if h.Uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	result := &dto.UploadedImages{Images: make([]dto.Image, 0, len(cmd.Files))}
	for _, f := range cmd.Files {
		key := buildImageObjectKey(cmd.OwnerID, f.Filename, f.ContentType)
		url, err := h.Uploader.Upload(ctx, key, bytes.NewReader(f.Data), f.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Filename, err)
		}
		img := dto.Image{URL: url, Alt: altFromFilename(f.Filename)}
		if h.Thumbnailer != nil {
			img.ThumbnailURL = h.uploadThumbnail(ctx, key, f)
		}
		result.Images = append(result.Images, img)
	}
	if h.Logger != nil {
		h.Logger.Info("listing images uploaded", "owner_id", cmd.OwnerID, "count", len(result.Images))
	}
	return result, nil
}

// uploadThumbnail is best effort; a failure leaves the image without preview.
func (h *UploadImagesHandler) uploadThumbnail(ctx context.Context, key string, f ImageFile) string {
	data, contentType, err := h.Thumbnailer.Thumbnail(f.Data)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("thumbnail generation failed", "file", f.Filename, "error", err)
		}
		return ""
	}
	thumbKey := strings.TrimSuffix(key, path.Ext(key)) + "-thumb" + ExtensionForContentType(contentType)
	url, err := h.Uploader.Upload(ctx, thumbKey, bytes.NewReader(data), contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("thumbnail upload failed", "key", thumbKey, "error", err)
		}
		return ""
	}
	return url
}

func IsAllowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return true
	default:
		return false
	}
}

func ExtensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func buildImageObjectKey(ownerID, filename, contentType string) string {
	ext := ExtensionForContentType(contentType)
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	if ext == "" {
		ext = ".img"
	}
	return fmt.Sprintf("listings/%s/%s%s", sanitizePathToken(ownerID), uuid.NewString(), ext)
}

func sanitizePathToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "user"
	}
	return result
}

func altFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
