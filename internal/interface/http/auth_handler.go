package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/application"
	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/interface/middleware"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
	"github.com/oksasatya/go-user-auth/pkg/response"
)

type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cfg     *config.Config
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cfg: cfg, Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)}
}

type registerForm struct {
	Username string `form:"username" binding:"required,username"`
	Email    string `form:"email" binding:"required,notblank,email"`
	Fullname string `form:"fullname" binding:"required,notblank"`
	Password string `form:"password" binding:"required,notblank,pwd"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginData struct {
	User         entity.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type tokenData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register POST /api/v1/users/register (multipart: avatar required, coverImage optional)
func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, "All fields are required", err)
		return
	}

	avatar, err := spool(c, "avatar", h.Cfg.UploadTmpDir, h.Cfg.UploadMaxBytes)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cover, err := spool(c, "coverImage", h.Cfg.UploadTmpDir, h.Cfg.UploadMaxBytes)
	if err != nil {
		cleanup(avatar)
		respondError(c, h.Logger, err)
		return
	}
	defer cleanup(avatar, cover)

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username:       form.Username,
		Email:          form.Email,
		Fullname:       form.Fullname,
		Password:       form.Password,
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "User registered successfully")
}

// Login POST /api/v1/users/login {username|email, password}
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "invalid payload", err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Meta: application.RequestMeta{
			IP:        middleware.ClientIP(c),
			UserAgent: c.GetHeader("User-Agent"),
		},
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	t := res.Tokens
	h.Cookies.SetPair(c, t.AccessToken, t.AccessTokenExpiry, t.RefreshToken, t.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, loginData{
		User:         res.User,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}, "User logged in successfully")
}

// Logout POST /api/v1/users/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "User logged out successfully")
}

// Refresh POST /api/v1/users/refresh-token; token from the refreshToken cookie or JSON body
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshTokenCookie)
	if token == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, tokenData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed successfully")
}
