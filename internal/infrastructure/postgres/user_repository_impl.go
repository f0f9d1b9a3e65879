package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, fullname, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.PasswordHash,
		&u.AvatarURL, &u.CoverImageURL, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, fullname, password_hash, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.Fullname, u.PasswordHash, u.AvatarURL, u.CoverImageURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	if username == "" && email == "" {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 <> '' AND lower(username) = $1) OR ($2 <> '' AND lower(email) = $2)
		ORDER BY created_at
		LIMIT 1
	`, username, email))
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullname, email string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET fullname = $1, email = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns, fullname, email, id))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, id)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET avatar_url = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, url, id))
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET cover_image_url = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, url, id))
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
