// Package reminder периодически публикует в RabbitMQ напоминания об
// абонементах, которые скоро закончатся или недавно закончились.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/lib/expiry"
	"github.com/BaoQuyyy/HuyGym/internal/lib/rabbitmq"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// ExpiredWindow — сколько дней после окончания ещё отправляются напоминания.
const ExpiredWindow = expiry.WarningDays

// Source отдаёт текущую коллекцию участников.
type Source interface {
	Members(ctx context.Context) ([]models.Member, error)
}

// Publisher публикует сообщение с ключом маршрутизации.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Metrics — счётчик опубликованных напоминаний.
type Metrics interface {
	ReminderPublished(routingKey string, err error)
}

// Service — планировщик напоминаний.
type Service struct {
	source    Source
	publisher Publisher
	metrics   Metrics
	interval  time.Duration
	log       *slog.Logger
}

// New создаёт планировщик с периодом interval.
func New(source Source, publisher Publisher, metrics Metrics, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &Service{
		source:    source,
		publisher: publisher,
		metrics:   metrics,
		interval:  interval,
		log:       log.With(slog.String("component", "reminder")),
	}
}

// Run публикует напоминания сразу и затем раз в interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce публикует напоминания для текущей коллекции и возвращает число
// успешно отправленных сообщений.
func (s *Service) RunOnce(ctx context.Context) int {
	members, err := s.source.Members(ctx)
	if err != nil {
		s.log.Error("failed to read members", sl.Err(err))
		return 0
	}

	sent := 0
	for _, m := range members {
		key, ok := routingKey(m)
		if !ok {
			continue
		}
		err := s.publisher.Publish(key, models.ExpiryReminder{
			ID:        m.ID,
			Name:      m.Name,
			Phone:     m.Phone,
			ExpiresOn: m.ExpiresOn,
			DaysLeft:  m.DaysLeft,
			Status:    expiry.EffectiveTag(m),
		})
		s.metrics.ReminderPublished(key, err)
		if err != nil {
			s.log.Error("failed to publish reminder", slog.Int("id", m.ID), sl.Err(err))
			continue
		}
		sent++
	}

	if sent > 0 {
		s.log.Info("reminders published", slog.Int("count", sent))
	} else {
		s.log.Debug("no reminders to publish")
	}
	return sent
}

func routingKey(m models.Member) (string, bool) {
	switch expiry.EffectiveTag(m) {
	case models.StatusWarning:
		return rabbitmq.RoutingExpiring, true
	case models.StatusExpired:
		if m.DaysLeft >= -ExpiredWindow {
			return rabbitmq.RoutingExpired, true
		}
	}
	return "", false
}
