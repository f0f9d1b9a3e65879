package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/internal/application"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
	"github.com/oksasatya/go-user-auth/pkg/response"
	"github.com/oksasatya/go-user-auth/pkg/validation"
)

// respondError is the single place service errors become HTTP responses.
// Clients only ever see the kind's message; causes go to the log.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := application.KindOf(err)
	message := "internal server error"
	var appErr *application.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logServerError(c, logger, kind, err)
	}
	response.Error(c, status, message, nil)
}

func logServerError(c *gin.Context, logger *logrus.Logger, kind application.Kind, err error) {
	helpers.LogError(logger, "request failed", err, logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
		"user_id":    c.GetString("userID"),
		"kind":       kind.String(),
	})
}

func respondBindError(c *gin.Context, message string, err error) {
	response.Error(c, http.StatusBadRequest, message, validation.ToDetails(err))
}
