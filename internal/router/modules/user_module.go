package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-auth/internal/interface/http"
	"github.com/oksasatya/go-user-auth/internal/interface/middleware"
)

// UserModule wires the authenticated account routes.
// GET  /api/v1/users/current-user, /api/v1/users/search
// POST /api/v1/users/change-password
// PATCH /api/v1/users/update-account, /avatar, /cover-image
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.Limiter
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc, limiter *middleware.Limiter) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(m.Auth, m.Limiter.Limit(120, time.Minute, middleware.KeyByUserID(), nil))
	{
		users.GET("/current-user", m.Handler.CurrentUser)
		users.POST("/change-password", m.Handler.ChangePassword)
		users.PATCH("/update-account", m.Handler.UpdateAccount)
		users.PATCH("/avatar", m.Handler.UpdateAvatar)
		users.PATCH("/cover-image", m.Handler.UpdateCoverImage)
		users.GET("/search", m.Handler.Search)
	}
}
