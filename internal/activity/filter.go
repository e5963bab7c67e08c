package activity

import (
	"slices"

	"github.com/BaoQuyyy/HuyGym/internal/lib/period"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Фильтры действий помимо точного имени действия.
const (
	FilterAll   = "all"
	FilterOther = "other"
)

// Filter отбирает записи по действию и интервалу дат. action — точное имя
// действия, группа "other" (update_all, holiday, import, undo) или "all".
// Порядок записей сохраняется.
func Filter(entries []models.Entry, action string, r period.Range) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !matchAction(e.Action, action) {
			continue
		}
		if !r.Unbounded() && !r.Contains(e.Time()) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchAction(a models.Action, filter string) bool {
	switch filter {
	case "", FilterAll:
		return true
	case FilterOther:
		return slices.Contains(models.OtherActions, a)
	default:
		return string(a) == filter
	}
}
