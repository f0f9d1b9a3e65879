package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/domain/repository"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	u := &entity.User{Username: "alice", Email: "alice@x.com", Fullname: "Alice", PasswordHash: "h"}
	require.NoError(t, r.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byName, err := r.FindByUsernameOrEmail(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := r.FindByUsernameOrEmail(ctx, "", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = r.FindByUsernameOrEmail(ctx, "", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	require.NoError(t, r.Create(ctx, &entity.User{Username: "alice", Email: "alice@x.com"}))
	bob := &entity.User{Username: "bob", Email: "bob@x.com"}
	require.NoError(t, r.Create(ctx, bob))

	assert.ErrorIs(t, r.Create(ctx, &entity.User{Username: "alice", Email: "other@x.com"}), repository.ErrDuplicate)
	assert.ErrorIs(t, r.Create(ctx, &entity.User{Username: "carol", Email: "alice@x.com"}), repository.ErrDuplicate)

	_, err := r.UpdateAccount(ctx, bob.ID, "Bob", "alice@x.com")
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	updated, err := r.UpdateAccount(ctx, bob.ID, "Bobby", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Bobby", updated.Fullname)
	assert.Equal(t, 2, r.Len())
}

func TestUserRepository_RefreshTokenIsolation(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	u := &entity.User{Username: "alice", Email: "alice@x.com"}
	require.NoError(t, r.Create(ctx, u))

	tok := "t1"
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, &tok))
	tok = "mutated"

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "t1", *got.RefreshToken)

	*got.RefreshToken = "also mutated"
	again, _ := r.GetByID(ctx, u.ID)
	assert.Equal(t, "t1", *again.RefreshToken)

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, nil))
	cleared, _ := r.GetByID(ctx, u.ID)
	assert.Nil(t, cleared.RefreshToken)

	assert.ErrorIs(t, r.SetRefreshToken(ctx, "missing", nil), repository.ErrNotFound)
}
