// Package period превращает именованные фильтры дат журнала (today, week,
// month, ...) в включающие границы [From, To].
package period

import (
	"fmt"
	"time"
)

// Имена предустановленных периодов.
const (
	All       = "all"
	Today     = "today"
	Yesterday = "yesterday"
	Week      = "week"
	Month     = "month"
	LastMonth = "last"
	Custom    = "custom"
)

// Range — включающий интервал. Нулевая граница означает "без ограничения".
type Range struct {
	From time.Time
	To   time.Time
}

// Contains проверяет, попадает ли t в интервал, обе границы включительно.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Unbounded сообщает, что у интервала нет ни одной границы.
func (r Range) Unbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Resolve вычисляет интервал по имени фильтра относительно now в локации now.
// Неделя начинается с понедельника. Для custom используются from и to:
// from — с начала дня, to — до 23:59:59 указанного дня.
func Resolve(name string, now time.Time, from, to time.Time) (Range, error) {
	loc := now.Location()
	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	todayEnd := endOfDay(todayStart)

	switch name {
	case "", All:
		return Range{}, nil
	case Today:
		return Range{From: todayStart, To: todayEnd}, nil
	case Yesterday:
		start := todayStart.AddDate(0, 0, -1)
		return Range{From: start, To: endOfDay(start)}, nil
	case Week:
		offset := (int(now.Weekday()) + 6) % 7
		return Range{From: todayStart.AddDate(0, 0, -offset), To: todayEnd}, nil
	case Month:
		return Range{From: time.Date(y, m, 1, 0, 0, 0, 0, loc), To: todayEnd}, nil
	case LastMonth:
		start := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
		end := endOfDay(time.Date(y, m, 0, 0, 0, 0, 0, loc))
		return Range{From: start, To: end}, nil
	case Custom:
		var r Range
		if !from.IsZero() {
			fy, fm, fd := from.Date()
			r.From = time.Date(fy, fm, fd, 0, 0, 0, 0, loc)
		}
		if !to.IsZero() {
			ty, tm, td := to.Date()
			r.To = endOfDay(time.Date(ty, tm, td, 0, 0, 0, 0, loc))
		}
		return r, nil
	}
	return Range{}, fmt.Errorf("period.Resolve: unknown period %q", name)
}

// MonthRange возвращает интервал календарного месяца year-month.
func MonthRange(year int, month time.Month, loc *time.Location) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := endOfDay(time.Date(year, month+1, 0, 0, 0, 0, 0, loc))
	return Range{From: start, To: end}
}

// MonthKey форматирует месяц как "T01-2025".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("T%02d-%d", int(t.Month()), t.Year())
}

func endOfDay(dayStart time.Time) time.Time {
	return dayStart.Add(24*time.Hour - time.Second)
}
