package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-auth/config"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func writeTemp(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "upload-avatar")
	require.NoError(t, os.WriteFile(p, pngBytes, 0o600))
	return p
}

func TestObjectKey(t *testing.T) {
	a := ObjectKey("/avatars/", ".PNG")
	b := ObjectKey("avatars", "png")
	assert.True(t, strings.HasPrefix(a, "avatars/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.True(t, strings.HasSuffix(b, ".png"))
	assert.NotEqual(t, a, b)
	assert.False(t, strings.Contains(ObjectKey("covers", ""), "."))
}

func TestGCSUploader_NotConfiguredStillRemovesLocalFile(t *testing.T) {
	p := writeTemp(t)

	_, err := NewGCSUploader(nil, "").Upload(context.Background(), p, "avatars")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/avatars/x.png", PublicURL("b", "avatars/x.png"))
}

func TestS3Uploader_UploadAndDelete(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
		paths   []string
		ctype   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		if r.Method == http.MethodPut {
			ctype = r.Header.Get("Content-Type")
		}
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{
		S3Bucket:       "media",
		S3Region:       "us-east-1",
		S3Endpoint:     srv.URL,
		S3AccessKey:    "key",
		S3SecretKey:    "secret",
		S3UsePathStyle: true,
	}
	u, err := NewS3Uploader(context.Background(), cfg)
	require.NoError(t, err)

	p := writeTemp(t)
	obj, err := u.Upload(context.Background(), p, "avatars")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, srv.URL+"/media/"+obj.Key, obj.URL)
	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, u.Delete(context.Background(), obj.Key))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
	assert.Equal(t, "/media/"+obj.Key, paths[0])
	assert.Equal(t, "image/png", ctype)
}

func TestS3Uploader_ObjectURL(t *testing.T) {
	u := &S3Uploader{bucket: "media", region: "eu-west-1"}
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/a/b.png", u.objectURL("a/b.png"))

	u.publicBaseURL = "https://cdn.test"
	assert.Equal(t, "https://cdn.test/a/b.png", u.objectURL("a/b.png"))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, _, err := New(context.Background(), &config.Config{MediaBackend: "ftp"})
	assert.Error(t, err)
}
