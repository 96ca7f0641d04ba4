// Package localfs stores uploads on the local disk for development setups
// without object storage. Files are served by the HTTP server under /uploads.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	applistings "rentlona/internal/app/handlers/listings"
)

type Uploader struct {
	Dir string
	// URLPrefix is the public path the directory is served at.
	URLPrefix string
	Logger    *slog.Logger
}

func (u Uploader) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("localfs: reader is required")
	}
	key = filepath.ToSlash(filepath.Clean("/" + strings.TrimSpace(key)))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", errors.New("localfs: object key is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(u.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("localfs: mkdir: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("localfs: create: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return "", fmt.Errorf("localfs: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("localfs: close: %w", err)
	}
	prefix := strings.TrimRight(u.URLPrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}
	if u.Logger != nil {
		u.Logger.Debug("upload stored on disk", "path", target, "content_type", contentType)
	}
	return prefix + "/" + key, nil
}

var _ applistings.Uploader = Uploader{}
