package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/BaoQuyyy/HuyGym/internal/lib/rabbitmq"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Members(ctx context.Context) ([]models.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Member), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ReminderPublished(routingKey string, err error) {
	m.Called(routingKey, err)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRunOnce_PublishesByStatus(t *testing.T) {
	expires := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	members := []models.Member{
		{ID: 1, Name: "active", DaysLeft: 20, Status: models.StatusActive},
		{ID: 2, Name: "warning", DaysLeft: 2, Status: models.StatusWarning, ExpiresOn: expires},
		{ID: 3, Name: "expired", DaysLeft: -3, Status: models.StatusExpired},
		{ID: 4, Name: "long expired", DaysLeft: -40, Status: models.StatusExpired},
		{ID: 5, Name: "paused", DaysLeft: 1, Status: models.StatusPaused},
	}

	src := new(MockSource)
	src.On("Members", mock.Anything).Return(members, nil)

	pub := new(MockPublisher)
	pub.On("Publish", rabbitmq.RoutingExpiring, models.ExpiryReminder{
		ID: 2, Name: "warning", ExpiresOn: expires, DaysLeft: 2, Status: models.StatusWarning,
	}).Return(nil).Once()
	pub.On("Publish", rabbitmq.RoutingExpired, mock.MatchedBy(func(r models.ExpiryReminder) bool {
		return r.ID == 3 && r.Status == models.StatusExpired
	})).Return(errors.New("channel closed")).Once()

	metrics := new(MockMetrics)
	metrics.On("ReminderPublished", rabbitmq.RoutingExpiring, nil).Once()
	metrics.On("ReminderPublished", rabbitmq.RoutingExpired, mock.Anything).Once()

	svc := New(src, pub, metrics, time.Hour, newNoopLogger())
	sent := svc.RunOnce(context.Background())

	assert.Equal(t, 1, sent)
	src.AssertExpectations(t)
	pub.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestRunOnce_SourceError(t *testing.T) {
	src := new(MockSource)
	src.On("Members", mock.Anything).Return(nil, errors.New("event loop stopped"))
	pub := new(MockPublisher)

	svc := New(src, pub, new(MockMetrics), time.Hour, newNoopLogger())
	assert.Equal(t, 0, svc.RunOnce(context.Background()))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := new(MockSource)
	src.On("Members", mock.Anything).Return([]models.Member{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(src, new(MockPublisher), new(MockMetrics), time.Hour, newNoopLogger()).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
