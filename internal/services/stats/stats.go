// Package stats считает сводку по месяцам окончания абонементов, движение
// участников между двумя месяцами и активность сотрудников по журналу.
package stats

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/lib/expiry"
	"github.com/BaoQuyyy/HuyGym/internal/lib/period"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Counts — количество участников по статусам и выручка.
type Counts struct {
	Total   int     `json:"total"`
	Active  int     `json:"active"`
	Warning int     `json:"warning"`
	Expired int     `json:"expired"`
	Paused  int     `json:"paused"`
	Revenue float64 `json:"revenue"`
}

func (c *Counts) add(m models.Member) {
	c.Total++
	c.Revenue += m.Price
	switch expiry.EffectiveTag(m) {
	case models.StatusActive:
		c.Active++
	case models.StatusWarning:
		c.Warning++
	case models.StatusExpired:
		c.Expired++
	case models.StatusPaused:
		c.Paused++
	}
}

// Month — сводка по участникам, чей абонемент заканчивается в месяце Key.
type Month struct {
	Key string `json:"key"` // TMM-YYYY
	Counts
	start time.Time
}

// Summary — сводка по всей коллекции.
type Summary struct {
	Totals  Counts          `json:"totals"`
	Months  []Month         `json:"months"`
	Warning []models.Member `json:"warning"`
	Expired []models.Member `json:"expired"`
}

// Summarize группирует участников по месяцу окончания. Месяцы идут по
// возрастанию. Список warning отсортирован по оставшимся дням по
// возрастанию, expired — от недавно истёкших к давним.
func Summarize(members []models.Member) Summary {
	var s Summary
	byKey := make(map[string]*Month)

	for _, m := range members {
		s.Totals.add(m)
		switch expiry.EffectiveTag(m) {
		case models.StatusWarning:
			s.Warning = append(s.Warning, m)
		case models.StatusExpired:
			s.Expired = append(s.Expired, m)
		}

		if m.ExpiresOn.IsZero() {
			continue
		}
		key := period.MonthKey(m.ExpiresOn)
		month, ok := byKey[key]
		if !ok {
			y, mon, _ := m.ExpiresOn.Date()
			month = &Month{Key: key, start: time.Date(y, mon, 1, 0, 0, 0, 0, time.UTC)}
			byKey[key] = month
		}
		month.add(m)
	}

	s.Months = make([]Month, 0, len(byKey))
	for _, month := range byKey {
		s.Months = append(s.Months, *month)
	}
	sort.Slice(s.Months, func(i, j int) bool { return s.Months[i].start.Before(s.Months[j].start) })

	slices.SortStableFunc(s.Warning, func(a, b models.Member) int { return cmp.Compare(a.DaysLeft, b.DaysLeft) })
	slices.SortStableFunc(s.Expired, func(a, b models.Member) int { return cmp.Compare(b.DaysLeft, a.DaysLeft) })
	return s
}

// Movement — движение участников в месяце по сравнению с предыдущим.
type Movement struct {
	Month      string `json:"month"`
	Previous   string `json:"previous"`
	New        int    `json:"new"`         // начали в месяце
	Stopped    int    `json:"stopped"`     // истекли или приостановлены с окончанием в месяце
	ActiveNow  int    `json:"active_now"`  // active и warning сейчас
	ActivePrev int    `json:"active_prev"` // абонемент пересекал предыдущий месяц
	Change     int    `json:"change"`      // ActiveNow - ActivePrev
}

// CompareMonths считает движение между месяцами this и prev.
func CompareMonths(members []models.Member, this, prev period.Range) Movement {
	mv := Movement{
		Month:    period.MonthKey(this.From),
		Previous: period.MonthKey(prev.From),
	}
	for _, m := range members {
		tag := expiry.EffectiveTag(m)
		if !m.StartedOn.IsZero() && this.Contains(m.StartedOn) {
			mv.New++
		}
		if (tag == models.StatusExpired || tag == models.StatusPaused) && !m.ExpiresOn.IsZero() && this.Contains(m.ExpiresOn) {
			mv.Stopped++
		}
		if tag == models.StatusActive || tag == models.StatusWarning {
			mv.ActiveNow++
		}
		if !m.StartedOn.IsZero() && !m.StartedOn.After(prev.To) && !m.ExpiresOn.Before(prev.From) {
			mv.ActivePrev++
		}
	}
	mv.Change = mv.ActiveNow - mv.ActivePrev
	return mv
}

// StaffActivity — действия одного сотрудника.
type StaffActivity struct {
	User       string                `json:"user"`
	Role       string                `json:"role"`
	Color      string                `json:"color"`
	Count      int                   `json:"count"`
	Actions    map[models.Action]int `json:"actions"`
	LastActive string                `json:"last_active"`
}

// GroupByStaff группирует записи журнала по сотруднику. Сотрудники идут по
// убыванию числа записей, при равенстве по имени.
func GroupByStaff(entries []models.Entry) []StaffActivity {
	byUser := make(map[string]*StaffActivity)
	for _, e := range entries {
		a, ok := byUser[e.User]
		if !ok {
			a = &StaffActivity{User: e.User, Role: e.Role, Color: e.Color, Actions: make(map[models.Action]int)}
			byUser[e.User] = a
		}
		a.Count++
		a.Actions[e.Action]++
		if e.Timestamp > a.LastActive {
			a.LastActive = e.Timestamp
		}
	}

	out := make([]StaffActivity, 0, len(byUser))
	for _, a := range byUser {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].User < out[j].User
	})
	return out
}
