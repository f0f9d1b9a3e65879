package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-auth/internal/interface/http"
	"github.com/oksasatya/go-user-auth/internal/interface/middleware"
)

// AuthModule registers session routes under <version>/users.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.Limiter
}

func NewAuthModule(h *handlers.AuthHandler, auth gin.HandlerFunc, limiter *middleware.Limiter) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	registerLimiter := m.Limiter.Limit(5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := m.Limiter.Limit(10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := m.Limiter.Limit(60, time.Minute, middleware.KeyByIP(), nil)

	users.POST("/register", registerLimiter, m.Handler.Register)
	users.POST("/login", loginLimiter, m.Handler.Login)
	users.POST("/refresh-token", refreshLimiter, m.Handler.Refresh)

	users.POST("/logout", m.Auth, m.Limiter.Limit(120, time.Minute, middleware.KeyByUserID(), nil), m.Handler.Logout)
}
