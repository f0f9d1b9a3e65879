package application

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("register: %w", UploadError("Failed to upload avatar image", cause))

	assert.Equal(t, KindUpload, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindAuth:       http.StatusUnauthorized,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
		KindUpload:     http.StatusInternalServerError,
		KindInternal:   http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.HTTPStatus(), k.String())
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "nope", AuthError("nope").Error())
	assert.Equal(t, "failed: x", InternalError("failed", errors.New("x")).Error())
}
