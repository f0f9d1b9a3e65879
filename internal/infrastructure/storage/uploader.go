// Package storage pushes locally spooled media files to a remote object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when the backend has no bucket or client.
var ErrNotConfigured = errors.New("media storage not configured")

// Object is an uploaded file.
type Object struct {
	URL string
	Key string
}

// Uploader uploads local files and deletes previously uploaded objects.
// Upload always removes localPath, whether or not the upload succeeded.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a collision-free key under folder keeping the file extension.
func ObjectKey(folder, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

// openLocal opens localPath and sniffs its content type.
func openLocal(localPath string) (*os.File, string, string, error) {
	if localPath == "" {
		return nil, "", "", errors.New("empty file path")
	}
	mt, err := mimetype.DetectFile(localPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("detect content type: %w", err)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", "", err
	}
	return f, mt.String(), mt.Extension(), nil
}

// removeLocal deletes the spooled file; a missing file is not an error.
func removeLocal(localPath string) {
	if localPath == "" {
		return
	}
	_ = os.Remove(localPath)
}
