package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/container"
	"github.com/oksasatya/go-user-auth/internal/infrastructure/storage"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

// localUploader pretends to be a CDN and records what it received.
type localUploader struct {
	uploads int
	fail    bool
}

func (u *localUploader) Upload(_ context.Context, localPath, folder string) (storage.Object, error) {
	defer func() { _ = os.Remove(localPath) }()
	if u.fail {
		return storage.Object{}, storage.ErrNotConfigured
	}
	u.uploads++
	key := storage.ObjectKey(folder, filepath.Ext(localPath))
	return storage.Object{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (u *localUploader) Delete(context.Context, string) error { return nil }

type env struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
	RequestID  string          `json:"requestId"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	media  *localUploader
	tmp    string
}

func newServer(t *testing.T, opts ...func(*container.Container)) *server {
	t.Helper()
	tmp := t.TempDir()
	cfg := &config.Config{
		AppName:             "test",
		JWTAccessSecret:     "access",
		JWTRefreshSecret:    "refresh",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
		BcryptCost:          4,
		CookieSecure:        true,
		UploadTmpDir:        tmp,
		UploadMaxBytes:      1 << 20,
		ESUsersIndex:        "users",
		DebugMetricsEnabled: true,
	}
	c := container.New(cfg, helpers.NewNopLogger())
	media := &localUploader{}
	c.Media = media
	for _, opt := range opts {
		opt(c)
	}
	return &server{t: t, engine: New(c), media: media, tmp: tmp}
}

func (s *server) do(req *http.Request, cookies ...*http.Cookie) (*httptest.ResponseRecorder, env) {
	s.t.Helper()
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var e env
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	}
	return w, e
}

func (s *server) json(method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, env) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, cookies...)
}

func (s *server) multipart(method, path string, fields map[string]string, files map[string]string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, env) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(s.t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, cookies...)
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func aliceFields() map[string]string {
	return map[string]string{"username": "Alice", "email": "alice@example.com", "fullname": "Alice A", "password": "pw1"}
}

func TestUserFlow(t *testing.T) {
	s := newServer(t)

	// register
	w, e := s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusCreated, e.StatusCode)
	assert.True(t, e.Success)
	assert.NotEmpty(t, e.RequestID)
	var user map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &user))
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "", user["coverImage"])
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "refreshToken")

	entries, err := os.ReadDir(s.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "spooled uploads must be removed")

	// login
	w, e = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := cookie(w, helpers.AccessTokenCookie)
	refresh := cookie(w, helpers.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.Secure)
	var login struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &login))
	assert.Equal(t, refresh.Value, login.RefreshToken)
	assert.Equal(t, "alice", login.User["username"])

	// current user
	w, e = s.json(http.MethodGet, "/api/v1/users/current-user", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, e.StatusCode)
	assert.Contains(t, string(e.Data), `"username":"alice"`)

	// bearer header works too
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w, _ = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	// refresh rotates; the superseded token is rejected
	w, e = s.json(http.MethodPost, "/api/v1/users/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := cookie(w, helpers.RefreshTokenCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	w, e = s.json(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": refresh.Value})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, e.Success)

	// change password
	w, _ = s.json(http.MethodPost, "/api/v1/users/change-password", map[string]string{"oldPassword": "nope", "newPassword": "pw2"}, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, e = s.json(http.MethodPost, "/api/v1/users/change-password", map[string]string{"oldPassword": "pw1", "newPassword": "pw2"}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, string(e.Data))

	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"email": "alice@example.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"email": "ALICE@example.com", "password": "pw2"})
	require.Equal(t, http.StatusOK, w.Code)
	refresh = cookie(w, helpers.RefreshTokenCookie)

	// update account
	w, e = s.json(http.MethodPatch, "/api/v1/users/update-account", map[string]string{"fullname": "Alice B", "email": "alice.b@example.com"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(e.Data), `"fullname":"Alice B"`)
	assert.NotContains(t, w.Body.String(), refresh.Value)

	// avatar replacement
	w, e = s.multipart(http.MethodPatch, "/api/v1/users/avatar", nil, map[string]string{"avatar": "b.png"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(e.Data), "https://cdn.test/avatars/")

	// search without an index returns nothing
	w, e = s.json(http.MethodGet, "/api/v1/users/search?q=alice", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(e.Data))

	// logout clears the session
	w, e = s.json(http.MethodPost, "/api/v1/users/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(e.Data))
	cleared := cookie(w, helpers.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	w, _ = s.json(http.MethodPost, "/api/v1/users/refresh-token", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterErrors(t *testing.T) {
	s := newServer(t)

	w, e := s.multipart(http.MethodPost, "/api/v1/users/register",
		map[string]string{"username": "bob", "email": "bob@example.com", "fullname": "  ", "password": "pw"},
		map[string]string{"avatar": "a.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(e.Errors), "fullname")

	w, e = s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Avatar file is required", e.Message)

	w, _ = s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png", "coverImage": "c.png"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, s.media.uploads)

	w, e = s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, e.Success)

	s.media.fail = true
	fields := aliceFields()
	fields["username"], fields["email"] = "carol", "carol@example.com"
	w, e = s.multipart(http.MethodPost, "/api/v1/users/register", fields, map[string]string{"avatar": "a.png"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload avatar image", e.Message)
}

func TestPasswordLimitIsInBytes(t *testing.T) {
	s := newServer(t)
	long := strings.Repeat("é", 40) // 40 characters, 80 bytes

	fields := aliceFields()
	fields["password"] = long
	w, e := s.multipart(http.MethodPost, "/api/v1/users/register", fields, map[string]string{"avatar": "a.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(e.Errors), "password")
	assert.Equal(t, 0, s.media.uploads)

	w, _ = s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code)
	access := cookie(w, helpers.AccessTokenCookie)

	w, e = s.json(http.MethodPost, "/api/v1/users/change-password", map[string]string{"oldPassword": "pw1", "newPassword": long}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(e.Errors), "newPassword")

	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := newServer(t, func(c *container.Container) { c.Redis = rdb })

	limited := 0
	for i := 1; i <= 12; i++ {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"username": "nobody", "password": "x"}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w, _ := s.do(req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 2, limited)
}

func TestLoginErrors(t *testing.T) {
	s := newServer(t)
	w, _ := s.multipart(http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "nobody", "password": "pw1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, e := s.json(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookie(w, helpers.AccessTokenCookie))
	assert.Empty(t, e.Data)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newServer(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/users/logout"},
		{http.MethodPost, "/api/v1/users/change-password"},
		{http.MethodGet, "/api/v1/users/current-user"},
		{http.MethodPatch, "/api/v1/users/update-account"},
		{http.MethodPatch, "/api/v1/users/avatar"},
		{http.MethodPatch, "/api/v1/users/cover-image"},
		{http.MethodGet, "/api/v1/users/search?q=a"},
	} {
		w, e := s.json(r.method, r.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
		assert.Equal(t, http.StatusUnauthorized, e.StatusCode, r.path)
	}

	w, _ := s.json(http.MethodPost, "/api/v1/users/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthAndDebug(t *testing.T) {
	s := newServer(t)

	w, e := s.json(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "users_registered_total")
}
