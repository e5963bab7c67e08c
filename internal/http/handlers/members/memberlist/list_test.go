package memberlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/services/gym"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, q gym.ListQuery) ([]models.Member, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Member), args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		url       string
		setupMock func(m *MockService)
		wantCode  int
		wantCount int
	}{
		{
			name: "query parameters are passed through",
			url:  "/members?chip=warning&q=nguyen&sort=con_lai&order=desc",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, gym.ListQuery{Chip: "warning", Query: "nguyen", Sort: "con_lai", Desc: true}).
					Return([]models.Member{{ID: 1, Name: "Nguyễn", StartedOn: start, PackageDays: 30}}, nil).Once()
			},
			wantCode:  http.StatusOK,
			wantCount: 1,
		},
		{
			name:      "invalid order",
			url:       "/members?order=up",
			setupMock: func(*MockService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "unknown chip",
			url:  "/members?chip=gold",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, gym.ListQuery{Chip: "gold"}).
					Return(nil, fmt.Errorf("gym.List: %w", models.ErrValidation)).Once()
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var got struct {
					Status string `json:"status"`
					Data   struct {
						Count   int                 `json:"count"`
						Members []models.WireRecord `json:"members"`
					} `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, response.StatusOK, got.Status)
				assert.Equal(t, tt.wantCount, got.Data.Count)
				assert.Equal(t, "2025-03-01T00:00:00.000Z", got.Data.Members[0].NgayBD)
			}
			svc.AssertExpectations(t)
		})
	}
}
