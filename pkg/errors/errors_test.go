package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("room", cause), http.StatusNotFound},
		{"invalid", Invalid("number is required", nil), http.StatusBadRequest},
		{"conflict", Conflict("room is not free", nil), http.StatusConflict},
		{"unavailable", Unavailable("store unreachable", cause), http.StatusServiceUnavailable},
		{"unauthorized", Unauthorized("missing token", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("invalid token", nil), http.StatusForbidden},
		{"internal", Internal(cause), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("allocate: %w", Conflict("patient already housed", nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrConflict, appErr.Code)
	assert.True(t, HasCode(wrapped, ErrConflict))
	assert.False(t, HasCode(errors.New("plain"), ErrConflict))
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(errors.New("pq: relation \"rooms\" does not exist"))

	assert.Equal(t, "internal server error", err.Message)
	assert.Contains(t, err.Error(), "pq:")
}
