package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/pkg/response"
)

// Recovery turns a panic into the standard 500 envelope. The panic value is
// logged, never returned.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.Request.URL.Path,
				"panic":      recovered,
			}).Error("panic recovered")
		}
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
	})
}
