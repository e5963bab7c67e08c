package login

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, name, role, password string) (string, models.Actor, error) {
	args := m.Called(ctx, name, role, password)
	return args.String(0), args.Get(1).(models.Actor), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantCode   int
		wantStatus string
		wantError  string
		wantData   map[string]any
	}{
		{
			name: "staff login",
			body: `{"name":"Minh","role":"user"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "Minh", "user", "").
					Return("tok", models.Actor{Name: "Minh", Role: "user", Color: "#0ea868"}, nil).Once()
			},
			wantCode:   http.StatusOK,
			wantStatus: "OK",
			wantData:   map[string]any{"token": "tok", "name": "Minh", "role": "user", "color": "#0ea868"},
		},
		{
			name:       "invalid json",
			body:       `not a json`,
			setupMock:  func(*ServiceMock) {},
			wantCode:   http.StatusBadRequest,
			wantStatus: "Error",
			wantError:  "invalid request body",
		},
		{
			name:       "missing name",
			body:       `{"role":"user"}`,
			setupMock:  func(*ServiceMock) {},
			wantCode:   http.StatusBadRequest,
			wantStatus: "Error",
			wantError:  "field Name is a required field",
		},
		{
			name:       "unknown role",
			body:       `{"name":"Lan","role":"owner"}`,
			setupMock:  func(*ServiceMock) {},
			wantCode:   http.StatusBadRequest,
			wantStatus: "Error",
			wantError:  "field Role must be one of [admin user]",
		},
		{
			name: "wrong admin password",
			body: `{"name":"Lan","role":"admin","password":"1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "Lan", "admin", "1").
					Return("", models.Actor{}, fmt.Errorf("auth.Login: %w", models.ErrUnauthorized)).Once()
			},
			wantCode:   http.StatusUnauthorized,
			wantStatus: "Error",
			wantError:  "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			if tt.wantData != nil {
				assert.Equal(t, tt.wantData, got["data"])
			}
			svc.AssertExpectations(t)
		})
	}
}
