package logundo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Undo(ctx context.Context, actor *models.Actor, entryID string) (string, error) {
	args := m.Called(ctx, actor, entryID)
	return args.String(0), args.Error(1)
}

func TestUndoHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := &models.Actor{Name: "Lan", Role: models.RoleAdmin}

	tests := []struct {
		name      string
		setupMock func(m *MockService)
		wantCode  int
		wantBody  string
	}{
		{
			name: "undone",
			setupMock: func(m *MockService) {
				m.On("Undo", mock.Anything, admin, "1741600000000_ab12").Return("Undo add: A", nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"message":"Undo add: A"}}`,
		},
		{
			name: "unsupported",
			setupMock: func(m *MockService) {
				m.On("Undo", mock.Anything, admin, "1741600000000_ab12").
					Return("", fmt.Errorf("gym.Undo: %w", models.ErrUndoUnsupported)).Once()
			},
			wantCode: http.StatusConflict,
			wantBody: `{"status":"Error","error":"gym.Undo: undo is not supported for this action"}`,
		},
		{
			name: "entry missing",
			setupMock: func(m *MockService) {
				m.On("Undo", mock.Anything, admin, "1741600000000_ab12").
					Return("", fmt.Errorf("gym.Undo: %w", models.ErrNotFound)).Once()
			},
			wantCode: http.StatusNotFound,
			wantBody: `{"status":"Error","error":"gym.Undo: not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/log/1741600000000_ab12/undo", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "1741600000000_ab12")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithActor(ctx, admin))

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
