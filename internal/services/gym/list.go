package gym

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BaoQuyyy/HuyGym/internal/lib/expiry"
	"github.com/BaoQuyyy/HuyGym/internal/lib/textsearch"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// ChipAll отключает фильтр по статусу.
const ChipAll = "all"

// Колонки сортировки списка участников.
const (
	SortID        = "id"
	SortName      = "ten"
	SortStartedOn = "ngay_bd"
	SortExpiresOn = "ngay_hh"
	SortDaysLeft  = "con_lai"
	SortPackage   = "so_ngay"
	SortPrice     = "gia"
)

var lessBy = map[string]func(a, b models.Member) bool{
	SortID:        func(a, b models.Member) bool { return a.ID < b.ID },
	SortName:      func(a, b models.Member) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) },
	SortStartedOn: func(a, b models.Member) bool { return a.StartedOn.Before(b.StartedOn) },
	SortExpiresOn: func(a, b models.Member) bool { return a.ExpiresOn.Before(b.ExpiresOn) },
	SortDaysLeft:  func(a, b models.Member) bool { return a.DaysLeft < b.DaysLeft },
	SortPackage:   func(a, b models.Member) bool { return a.PackageDays < b.PackageDays },
	SortPrice:     func(a, b models.Member) bool { return a.Price < b.Price },
}

// ListQuery — параметры списка участников.
type ListQuery struct {
	Chip  string // all, active, warning, expired, paused
	Query string // поиск по имени, телефону и заметке
	Sort  string // колонка, по умолчанию id
	Desc  bool
}

// List возвращает участников по фильтру статуса и строке поиска,
// отсортированных по выбранной колонке.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Member, error) {
	const op = "gym.List"

	chip := q.Chip
	if chip == "" {
		chip = ChipAll
	}
	if chip != ChipAll && !models.Status(chip).Valid() {
		return nil, fmt.Errorf("%s: unknown status filter %q: %w", op, chip, models.ErrValidation)
	}
	column := q.Sort
	if column == "" {
		column = SortID
	}
	less, ok := lessBy[column]
	if !ok {
		return nil, fmt.Errorf("%s: unknown sort column %q: %w", op, column, models.ErrValidation)
	}

	members, err := s.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := members[:0]
	for _, m := range members {
		if chip != ChipAll && expiry.EffectiveTag(m) != models.Status(chip) {
			continue
		}
		if !matchQuery(m, q.Query) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func matchQuery(m models.Member, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return textsearch.Match(m.Name, query) || textsearch.Match(m.Phone, query) || textsearch.Match(m.Note, query)
}
