package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope written for every request.
type APIResponse[T any] struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       T           `json:"data"`
	Errors     interface{} `json:"errors,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ErrorResponse omits data entirely so failures never echo a payload.
type ErrorResponse struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Errors     interface{} `json:"errors,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Success writes a success envelope with status inside the body and on the wire.
func Success[T any](ctx *gin.Context, status int, data T, message string) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
		RequestID:  ctx.GetString("request_id"),
		Timestamp:  time.Now().UTC(),
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and aborts the handler chain.
func Error(ctx *gin.Context, status int, message string, details interface{}) ErrorResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := ErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     details,
		RequestID:  ctx.GetString("request_id"),
		Timestamp:  time.Now().UTC(),
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}
