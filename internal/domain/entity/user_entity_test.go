package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublic_OmitsSecrets(t *testing.T) {
	tok := "refresh-abc"
	u := &User{
		ID:           "id-1",
		Username:     "alice",
		Email:        "alice@x.com",
		Fullname:     "Alice",
		PasswordHash: "$2a$10$hash",
		AvatarURL:    "https://cdn/a.png",
		RefreshToken: &tok,
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	body := string(b)
	assert.Contains(t, body, `"username":"alice"`)
	assert.Contains(t, body, `"avatar":"https://cdn/a.png"`)
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, body, tok)
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "refreshToken")
}

func TestHasRefreshToken(t *testing.T) {
	tok := "current"
	u := &User{RefreshToken: &tok}

	assert.True(t, u.HasRefreshToken("current"))
	assert.False(t, u.HasRefreshToken("current "))
	assert.False(t, u.HasRefreshToken(""))

	u.RefreshToken = nil
	assert.False(t, u.HasRefreshToken("current"))
}
