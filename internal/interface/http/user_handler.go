package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/application"
	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	"github.com/oksasatya/go-user-auth/internal/interface/middleware"
	"github.com/oksasatya/go-user-auth/pkg/response"
)

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger, cfg *config.Config) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cfg: cfg}
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,notblank,pwd"`
}

type updateAccountRequest struct {
	Fullname string `json:"fullname" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required,notblank"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

// CurrentUser GET /api/v1/users/current-user
func (h *UserHandler) CurrentUser(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Unauthorized request", nil)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "Current user fetched successfully")
}

// ChangePassword POST /api/v1/users/change-password {oldPassword, newPassword}
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Old and new password are required", err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

// UpdateAccount PATCH /api/v1/users/update-account {fullname, email}
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "All fields are required", err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.UpdateAccount(c.Request.Context(), uid, req.Fullname, req.Email)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "Account details updated successfully")
}

// UpdateAvatar PATCH /api/v1/users/avatar (multipart: avatar)
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.replaceImage(c, "avatar", h.Svc.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage PATCH /api/v1/users/cover-image (multipart: coverImage)
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.replaceImage(c, "coverImage", h.Svc.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) replaceImage(
	c *gin.Context,
	field string,
	update func(ctx context.Context, userID, localPath string) (entity.PublicUser, error),
	message string,
) {
	path, err := spool(c, field, h.Cfg.UploadTmpDir, h.Cfg.UploadMaxBytes)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer cleanup(path)

	u, err := update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), path)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, message)
}

// Search GET /api/v1/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, "invalid query", err)
		return
	}
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "Users fetched successfully")
}
