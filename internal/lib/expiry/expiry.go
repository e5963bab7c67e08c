// Package expiry вычисляет дату окончания абонемента, количество оставшихся
// дней и статус участника. Функции пакета чистые и не зависят от хранилища.
package expiry

import (
	"math"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// WarningDays — сколько дней до окончания абонемента считается "скоро истекает".
const WarningDays = 7

const day = 24 * time.Hour

// Today возвращает полночь текущего дня в указанной локации.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// DiffDays возвращает разницу a - b в целых днях с округлением до ближайшего.
// Округление поглощает сдвиги на час при переходе на летнее время.
func DiffDays(a, b time.Time) int {
	return int(math.Round(float64(a.Sub(b)) / float64(day)))
}

// ComputeStatus классифицирует участника по числу оставшихся дней.
func ComputeStatus(daysLeft int) models.Status {
	switch {
	case daysLeft < 0:
		return models.StatusExpired
	case daysLeft <= WarningDays:
		return models.StatusWarning
	default:
		return models.StatusActive
	}
}

// Recompute пересчитывает ExpiresOn, DaysLeft и Status участника на дату today.
// Статус paused не трогается. Если дата начала не задана или пакет нулевой,
// производные поля остаются как есть.
func Recompute(m *models.Member, today time.Time) {
	if m.StartedOn.IsZero() || m.PackageDays == 0 {
		return
	}
	m.ExpiresOn = m.StartedOn.AddDate(0, 0, m.PackageDays+m.BonusDays)
	m.DaysLeft = DiffDays(m.ExpiresOn, today)
	if m.Status != models.StatusPaused {
		m.Status = ComputeStatus(m.DaysLeft)
	}
}

// EffectiveTag возвращает статус для фильтров и группировок: paused, если
// участник приостановлен явно, иначе статус по DaysLeft.
func EffectiveTag(m models.Member) models.Status {
	if m.Status == models.StatusPaused {
		return models.StatusPaused
	}
	return ComputeStatus(m.DaysLeft)
}
