package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/domain/repository"
	pginfra "github.com/oksasatya/go-user-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
)

// seed inserts a demo user directly through the repository. Media uploads are
// skipped; the avatar URL is taken from -avatar.
func main() {
	username := flag.String("username", "demouser", "username")
	email := flag.String("email", "demo@example.com", "email")
	fullname := flag.String("fullname", "Demo User", "full name")
	password := flag.String("password", "password123", "password")
	avatar := flag.String("avatar", "https://www.gravatar.com/avatar/?d=mp", "avatar URL")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := pginfra.NewUserRepository(pool)

	hash, err := helpers.HashPassword(*password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	u := &entity.User{
		Username:     strings.ToLower(strings.TrimSpace(*username)),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		Fullname:     *fullname,
		PasswordHash: hash,
		AvatarURL:    *avatar,
	}
	if err := repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fmt.Printf("user %s already exists; nothing to do\n", u.Username)
			return
		}
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s username=%s email=%s\n", u.ID, u.Username, u.Email)
}
