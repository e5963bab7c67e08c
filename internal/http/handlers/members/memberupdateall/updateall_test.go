package memberupdateall

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateAll(ctx context.Context, actor *models.Actor) (int, error) {
	args := m.Called(ctx, actor)
	return args.Int(0), args.Error(1)
}

func TestUpdateAllHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actor := &models.Actor{Name: "Minh", Role: models.RoleUser}

	t.Run("ok", func(t *testing.T) {
		svc := new(MockService)
		svc.On("UpdateAll", mock.Anything, actor).Return(12, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/members/update-all", nil)
		req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"count":12}}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("loop stopped", func(t *testing.T) {
		svc := new(MockService)
		svc.On("UpdateAll", mock.Anything, actor).Return(0, errors.New("event loop stopped")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/members/update-all", nil)
		req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"status":"Error","error":"internal error"}`, rec.Body.String())
	})
}
