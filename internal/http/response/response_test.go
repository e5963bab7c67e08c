package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("gym.Add: %w", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("gym.Import: %w", models.ErrMalformedImport), http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("activity.Undo: %w", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("gym.Edit: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrUndoUnsupported, http.StatusConflict},
		{errors.New("event loop stopped"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), tt.err.Error())
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation keeps details", fmt.Errorf("gym.Holiday: days must be positive: %w", models.ErrValidation), http.StatusBadRequest, "gym.Holiday: days must be positive: validation failed"},
		{"forbidden", fmt.Errorf("activity.Clear: %w", models.ErrForbidden), http.StatusForbidden, "admin role required"},
		{"internal hidden", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			Fail(w, r, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var got ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.message, got.Error)
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Ten    string `validate:"required"`
		SoNgay int    `validate:"min=1"`
		Role   string `validate:"omitempty,oneof=admin user"`
	}
	err := validator.New().Struct(request{Role: "owner"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "field Ten is a required field, field SoNgay must be at least 1, field Role must be one of [admin user]", resp.Error)
}
