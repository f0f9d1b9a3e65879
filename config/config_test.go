package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "gcs", cfg.MediaBackend)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 24*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL)
	assert.False(t, cfg.MailSendEnabled)
	assert.Empty(t, cfg.CORSOrigins())
	assert.Empty(t, cfg.TrustedProxyList())
	assert.False(t, cfg.TrustCloudflare)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("MEDIA_BACKEND", "s3")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es:9200")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")

	cfg := Load()

	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "s3", cfg.MediaBackend)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, cfg.ESAddrs())
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.TrustedProxyList())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_REFRESH_TTL", "ten days")
	t.Setenv("BCRYPT_COST", "x")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg := Load()

	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.CookieSecure)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "db", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", cfg.PostgresDSN())
}
