package storage

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-user-auth/config"
)

// New selects the media backend from cfg.MediaBackend. The returned close
// func releases the backend client and is never nil.
func New(ctx context.Context, cfg *config.Config) (Uploader, func() error, error) {
	switch cfg.MediaBackend {
	case "gcs", "":
		client, err := NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		return NewGCSUploader(client, cfg.GCSBucket), client.Close, nil
	case "s3":
		u, err := NewS3Uploader(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return u, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
