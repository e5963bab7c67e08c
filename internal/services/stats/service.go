package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/lib/period"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/services/gym"
)

// Source отдаёт текущую коллекцию и отфильтрованный журнал.
type Source interface {
	Members(ctx context.Context) ([]models.Member, error)
	Log(ctx context.Context, q gym.LogQuery) ([]models.Entry, error)
}

// Service — статистика поверх коллекции и журнала.
type Service struct {
	source Source
	now    func() time.Time
}

// New создаёт сервис. now возвращает время в часовом поясе зала.
func New(source Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, now: now}
}

// Summary возвращает сводку по месяцам окончания.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	const op = "stats.Summary"
	members, err := s.source.Members(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	return Summarize(members), nil
}

// Movement сравнивает месяцы this и prev в формате YYYY-MM. Пустой this —
// текущий месяц, пустой prev — месяц перед this.
func (s *Service) Movement(ctx context.Context, this, prev string) (Movement, error) {
	const op = "stats.Movement"
	loc := s.now().Location()

	thisMonth, err := parseMonth(this, s.now())
	if err != nil {
		return Movement{}, fmt.Errorf("%s: %w", op, err)
	}
	prevMonth, err := parseMonth(prev, thisMonth.AddDate(0, -1, 0))
	if err != nil {
		return Movement{}, fmt.Errorf("%s: %w", op, err)
	}

	members, err := s.source.Members(ctx)
	if err != nil {
		return Movement{}, fmt.Errorf("%s: %w", op, err)
	}
	return CompareMonths(members,
		period.MonthRange(thisMonth.Year(), thisMonth.Month(), loc),
		period.MonthRange(prevMonth.Year(), prevMonth.Month(), loc),
	), nil
}

// Staff группирует журнал за период по сотрудникам. Только admin.
func (s *Service) Staff(ctx context.Context, actor *models.Actor, q gym.LogQuery) ([]StaffActivity, error) {
	const op = "stats.Staff"
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	entries, err := s.source.Log(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return GroupByStaff(entries), nil
}

func parseMonth(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return time.Date(fallback.Year(), fallback.Month(), 1, 0, 0, 0, 0, fallback.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01", value, fallback.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", value, models.ErrValidation)
	}
	return t, nil
}
