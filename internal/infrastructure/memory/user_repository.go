// Package memory keeps users in process memory. It backs DB_DRIVER=memory for
// local runs and the service/handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]*entity.User{}}
}

// clone copies u so callers never share the stored record.
func clone(u *entity.User) *entity.User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

// conflicts must be called with mu held.
func (r *UserRepository) conflicts(selfID, username, email string) bool {
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts("", u.Username, u.Email) {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *entity.User
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			if found == nil || u.CreatedAt.Before(found.CreatedAt) {
				found = u
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return clone(found), nil
}

func (r *UserRepository) update(id string, fn func(u *entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (r *UserRepository) UpdateAccount(_ context.Context, id, fullname, email string) (*entity.User, error) {
	return r.update(id, func(u *entity.User) error {
		if r.conflicts(id, "", email) {
			return repository.ErrDuplicate
		}
		u.Fullname = fullname
		u.Email = email
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := r.update(id, func(u *entity.User) error {
		u.PasswordHash = hash
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	return err
}

func (r *UserRepository) SetRefreshToken(_ context.Context, id string, token *string) error {
	_, err := r.update(id, func(u *entity.User) error {
		if token == nil {
			u.RefreshToken = nil
			return nil
		}
		t := *token
		u.RefreshToken = &t
		return nil
	})
	return err
}

func (r *UserRepository) UpdateAvatar(_ context.Context, id, url string) (*entity.User, error) {
	return r.update(id, func(u *entity.User) error {
		u.AvatarURL = url
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *UserRepository) UpdateCoverImage(_ context.Context, id, url string) (*entity.User, error) {
	return r.update(id, func(u *entity.User) error {
		u.CoverImageURL = url
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

var _ repository.UserRepository = (*UserRepository)(nil)
