package router

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-auth/internal/application"
	"github.com/oksasatya/go-user-auth/internal/container"
	"github.com/oksasatya/go-user-auth/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-user-auth/internal/interface/http"
	"github.com/oksasatya/go-user-auth/internal/interface/middleware"
	"github.com/oksasatya/go-user-auth/internal/router/modules"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
	"github.com/oksasatya/go-user-auth/pkg/validation"
)

// NewService builds the user service from the container's backends.
func NewService(c *container.Container) *application.Service {
	var idx application.Indexer
	if c.ES != nil {
		idx = search.NewUserIndex(c.ES, c.Config.ESUsersIndex)
	}
	var notify application.Notifier
	if c.Mail != nil {
		notify = c.Mail
	}
	return application.NewService(c.Users(), c.JWT, c.Media, idx, notify, c.Logger, c.Config)
}

func healthChecks(c *container.Container) map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{}
	if c.PGPool != nil {
		checks["postgres"] = c.PGPool.Ping
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	if c.RabbitPub != nil {
		checks["rabbitmq"] = c.RabbitPub.Ping
	}
	return checks
}

// InitModules builds handlers from the container and registers every module.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	validation.Init()

	svc := NewService(c)
	limiter := middleware.NewLimiter(c.Redis, c.Logger)
	auth := middleware.Auth(c.JWT, c.Users())

	r.AddVersioned("v1", modules.NewAuthModule(handlers.NewAuthHandler(svc, c.Logger, c.Config), auth, limiter))
	r.AddVersioned("v1", modules.NewUserModule(handlers.NewUserHandler(svc, c.Logger, c.Config), auth, limiter))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter))
	}

	r.Engine.GET("/healthz", handlers.NewHealthHandler(healthChecks(c)).Check)
}

// New returns a gin engine with the standard middleware and all routes registered.
func New(c *container.Container, extra ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.MaxMultipartMemory = c.Config.UploadMaxBytes
	if err := middleware.ConfigureClientIP(engine, c.Config.TrustedProxyList(), c.Config.TrustCloudflare); err != nil {
		helpers.LogWarn(c.Logger, "invalid TRUSTED_PROXIES; forwarding headers are ignored", err, nil)
	}
	engine.Use(middleware.RequestID(), middleware.RealIP(), middleware.Recovery(c.Logger))
	if c.Config.HTTPLogEnabled {
		engine.Use(gin.Logger())
	}
	engine.Use(extra...)

	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return engine
}
