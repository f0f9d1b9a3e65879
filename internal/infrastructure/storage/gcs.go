package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSUploader stores media in a single GCS bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(client *storage.Client, bucket string) *GCSUploader {
	return &GCSUploader{client: client, bucket: bucket}
}

func (u *GCSUploader) Upload(ctx context.Context, localPath, folder string) (Object, error) {
	defer removeLocal(localPath)
	if u.client == nil || u.bucket == "" {
		return Object{}, ErrNotConfigured
	}
	f, contentType, ext, err := openLocal(localPath)
	if err != nil {
		return Object{}, err
	}
	defer func() { _ = f.Close() }()

	key := ObjectKey(folder, ext)
	wc := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return Object{}, fmt.Errorf("gcs upload: %w", err)
	}
	if err := wc.Close(); err != nil {
		return Object{}, fmt.Errorf("gcs upload: %w", err)
	}
	return Object{URL: PublicURL(u.bucket, key), Key: key}, nil
}

func (u *GCSUploader) Delete(ctx context.Context, key string) error {
	if u.client == nil || u.bucket == "" {
		return ErrNotConfigured
	}
	return u.client.Bucket(u.bucket).Object(key).Delete(ctx)
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

var _ Uploader = (*GCSUploader)(nil)
