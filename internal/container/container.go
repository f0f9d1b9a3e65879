// Package container holds the components built at startup so the router can
// wire modules from them. Optional backends are nil when not configured.
package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/domain/repository"
	"github.com/oksasatya/go-user-auth/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-auth/internal/infrastructure/storage"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
	"github.com/oksasatya/go-user-auth/pkg/mailer"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	JWT    *helpers.JWTManager

	PGPool    *pgxpool.Pool // nil with DB_DRIVER=memory
	Redis     *redis.Client
	Media     storage.Uploader
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher
	Mail      *mailer.Queue // nil without RabbitMQ

	users repository.UserRepository
}

// New creates a container with the pieces every deployment needs.
func New(cfg *config.Config, logger *logrus.Logger) *Container {
	return &Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
	}
}

// Users returns the user store for the configured driver. It is created once.
func (c *Container) Users() repository.UserRepository {
	if c.users != nil {
		return c.users
	}
	if c.PGPool != nil {
		c.users = pginfra.NewUserRepository(c.PGPool)
	} else {
		c.users = memory.NewUserRepository()
	}
	return c.users
}
