package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/go-user-auth/internal/application"
)

// spool saves the multipart file in field to dir and returns its path.
// A missing file yields an empty path and no error.
func spool(c *gin.Context, field, dir string, maxBytes int64) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", application.ValidationError("invalid multipart form")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", application.ValidationError(fmt.Sprintf("%s exceeds %d bytes", field, maxBytes))
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", application.InternalError("upload spool failed", err)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return "", application.InternalError("upload spool failed", err)
	}
	return path, nil
}

func cleanup(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
