// Package gym содержит сценарии работы с участниками зала: добавление,
// редактирование, удаление, пересчёт, праздничные дни, импорт и экспорт,
// список с фильтрами и запросы к журналу.
//
// Каждая мутация выполняется в цикле сессии: изменение коллекции, затем
// сохранение через Persist, затем запись в журнал.
package gym

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/activity"
	"github.com/BaoQuyyy/HuyGym/internal/lib/eventloop"
	"github.com/BaoQuyyy/HuyGym/internal/lib/period"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/memberstore"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Persister сохраняет коллекцию локально и в удалённом хранилище.
type Persister interface {
	Persist()
}

// Journal — журнал действий. Методы вызываются только в цикле сессии.
type Journal interface {
	Append(action models.Action, payload any, actor *models.Actor) (models.Entry, bool)
	Undo(entryID string, actor *models.Actor) (string, error)
	Clear(actor *models.Actor) error
	Entries() []models.Entry
}

// Notifier получает уведомления для клиента.
type Notifier interface {
	Toast(kind models.ToastKind, msg string)
	MembersChanged()
}

// Service — сценарии работы с участниками.
type Service struct {
	log       *slog.Logger
	loop      *eventloop.Loop
	store     *memberstore.Store
	persister Persister
	journal   Journal
	notifier  Notifier
	now       func() time.Time
}

// New создаёт сервис. now возвращает текущее время в часовом поясе зала.
func New(log *slog.Logger, loop *eventloop.Loop, store *memberstore.Store, persister Persister, journal Journal, notifier Notifier, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		log:       log.With(slog.String("component", "gym")),
		loop:      loop,
		store:     store,
		persister: persister,
		journal:   journal,
		notifier:  notifier,
		now:       now,
	}
}

// Add добавляет участника. Имя, дата начала и длина пакета обязательны.
func (s *Service) Add(ctx context.Context, actor *models.Actor, d models.Draft) (models.Member, error) {
	const op = "gym.Add"
	d.Name = strings.TrimSpace(d.Name)
	if err := validateDraft(d); err != nil {
		return models.Member{}, fmt.Errorf("%s: %w", op, err)
	}

	var added models.Member
	err := s.loop.Do(ctx, func() error {
		added = s.store.Add(d)
		s.persister.Persist()
		s.journal.Append(models.ActionAdd, record.Serialize(added), actor)
		return nil
	})
	if err != nil {
		return models.Member{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member added", slog.Int("id", added.ID), sl.Actor(actor))
	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastOK, "Added: "+added.Name)
	return added, nil
}

// Edit изменяет участника id. В журнал попадают снимки до и после и список
// изменившихся полей.
func (s *Service) Edit(ctx context.Context, actor *models.Actor, id int, p models.Patch) (models.Member, error) {
	const op = "gym.Edit"
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if err := validatePatch(p); err != nil {
		return models.Member{}, fmt.Errorf("%s: %w", op, err)
	}

	var after models.Member
	err := s.loop.Do(ctx, func() error {
		before, edited, err := s.store.Edit(id, p)
		if err != nil {
			return err
		}
		after = edited
		s.persister.Persist()

		wireBefore, wireAfter := record.Serialize(before), record.Serialize(after)
		s.journal.Append(models.ActionEdit, models.EditPayload{
			Before:  wireBefore,
			After:   wireAfter,
			Changes: Diff(wireBefore, wireAfter),
			Name:    after.Name,
		}, actor)
		return nil
	})
	if err != nil {
		return models.Member{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member edited", slog.Int("id", id), sl.Actor(actor))
	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastOK, "Saved: "+after.Name)
	return after, nil
}

// Delete удаляет участника id. Оставшиеся перенумеровываются.
func (s *Service) Delete(ctx context.Context, actor *models.Actor, id int) (models.Member, error) {
	const op = "gym.Delete"

	var removed models.Member
	err := s.loop.Do(ctx, func() error {
		m, err := s.store.Delete(id)
		if err != nil {
			return err
		}
		removed = m
		s.persister.Persist()
		s.journal.Append(models.ActionDelete, record.Serialize(removed), actor)
		return nil
	})
	if err != nil {
		return models.Member{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member deleted", slog.Int("id", id), sl.Actor(actor))
	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastWarn, "Deleted: "+removed.Name)
	return removed, nil
}

// UpdateAll нормализует статусы и пересчитывает всех участников.
func (s *Service) UpdateAll(ctx context.Context, actor *models.Actor) (int, error) {
	const op = "gym.UpdateAll"

	var count int
	err := s.loop.Do(ctx, func() error {
		s.store.BulkRecompute()
		count = s.store.Len()
		s.persister.Persist()
		s.journal.Append(models.ActionUpdateAll, models.CountPayload{Count: count}, actor)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastOK, fmt.Sprintf("Updated %d members", count))
	return count, nil
}

// Holiday добавляет days дней компенсации активным и предупреждённым
// участникам и возвращает их количество.
func (s *Service) Holiday(ctx context.Context, actor *models.Actor, days int) (int, error) {
	const op = "gym.Holiday"
	if days < 1 {
		return 0, fmt.Errorf("%s: days must be positive: %w", op, models.ErrValidation)
	}

	var count int
	err := s.loop.Do(ctx, func() error {
		count = s.store.AddBonusDays(days, memberstore.ActiveOrWarning)
		s.persister.Persist()
		s.journal.Append(models.ActionHoliday, models.HolidayPayload{Days: days, Count: count}, actor)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("holiday bonus applied", slog.Int("days", days), slog.Int("count", count), sl.Actor(actor))
	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastOK, fmt.Sprintf("+%d days for %d members", days, count))
	return count, nil
}

// Import заменяет коллекцию содержимым файла. Файл разбирается целиком до
// изменения состояния: при ошибке коллекция не меняется.
func (s *Service) Import(ctx context.Context, actor *models.Actor, data []byte) (int, error) {
	const op = "gym.Import"
	members, err := record.ParseImport(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	err = s.loop.Do(ctx, func() error {
		s.store.Replace(members)
		s.persister.Persist()
		s.journal.Append(models.ActionImport, models.CountPayload{Count: len(members)}, actor)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("members imported", slog.Int("count", len(members)), sl.Actor(actor))
	s.notifier.MembersChanged()
	s.notifier.Toast(models.ToastOK, fmt.Sprintf("Imported %d members", len(members)))
	return len(members), nil
}

// Export возвращает коллекцию как JSON-массив проводных записей с отступами.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	const op = "gym.Export"
	members, err := s.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := json.MarshalIndent(record.SerializeAll(members), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Members возвращает копию коллекции.
func (s *Service) Members(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.loop.Do(ctx, func() error {
		members = s.store.All()
		return nil
	})
	return members, err
}

// Entries возвращает копию журнала, новые записи первыми.
func (s *Service) Entries(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.loop.Do(ctx, func() error {
		entries = s.journal.Entries()
		return nil
	})
	return entries, err
}

// LogQuery — фильтр журнала.
type LogQuery struct {
	Action string
	Period string
	From   time.Time
	To     time.Time
}

// Log возвращает записи журнала по фильтру действия и периода.
func (s *Service) Log(ctx context.Context, q LogQuery) ([]models.Entry, error) {
	const op = "gym.Log"
	r, err := period.Resolve(q.Period, s.now(), q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrValidation, err)
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	action := q.Action
	if action == "" {
		action = activity.FilterAll
	}
	return activity.Filter(entries, action, r), nil
}

// Undo отменяет действие записи журнала entryID. Только admin.
func (s *Service) Undo(ctx context.Context, actor *models.Actor, entryID string) (string, error) {
	const op = "gym.Undo"

	var what string
	err := s.loop.Do(ctx, func() error {
		var err error
		what, err = s.journal.Undo(entryID, actor)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("action undone", slog.String("entry", entryID), sl.Actor(actor))
	s.notifier.Toast(models.ToastOK, what)
	return what, nil
}

// ClearLog удаляет весь журнал. Только admin.
func (s *Service) ClearLog(ctx context.Context, actor *models.Actor) error {
	const op = "gym.ClearLog"
	err := s.loop.Do(ctx, func() error {
		return s.journal.Clear(actor)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("activity log cleared", sl.Actor(actor))
	return nil
}

// RecordLogin записывает вход сотрудника в журнал.
func (s *Service) RecordLogin(ctx context.Context, actor *models.Actor) error {
	return s.loop.Do(ctx, func() error {
		s.journal.Append(models.ActionLogin, struct{}{}, actor)
		return nil
	})
}

func validateDraft(d models.Draft) error {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.StartedOn.IsZero() {
		missing = append(missing, "start date")
	}
	if d.PackageDays <= 0 {
		missing = append(missing, "package days")
	}
	if d.BonusDays < 0 || d.Price < 0 {
		missing = append(missing, "non-negative bonus days and price")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", models.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func validatePatch(p models.Patch) error {
	switch {
	case p.Name != nil && *p.Name == "":
		return fmt.Errorf("%w: name required", models.ErrValidation)
	case p.StartedOn != nil && p.StartedOn.IsZero():
		return fmt.Errorf("%w: start date required", models.ErrValidation)
	case p.PackageDays != nil && *p.PackageDays <= 0:
		return fmt.Errorf("%w: package days required", models.ErrValidation)
	case p.BonusDays != nil && *p.BonusDays < 0:
		return fmt.Errorf("%w: bonus days must be non-negative", models.ErrValidation)
	case p.Price != nil && *p.Price < 0:
		return fmt.Errorf("%w: price must be non-negative", models.ErrValidation)
	}
	return nil
}

// Diff возвращает изменившиеся поля записи как пары [было, стало].
// Сравниваются ten, sdt, so_ngay, ngay_bu, tt, ghi_chu и gia.
func Diff(before, after models.WireRecord) map[string][2]string {
	fields := []struct {
		name     string
		old, new string
	}{
		{"ten", before.Ten, after.Ten},
		{"sdt", before.Sdt, after.Sdt},
		{"so_ngay", strconv.Itoa(before.SoNgay), strconv.Itoa(after.SoNgay)},
		{"ngay_bu", strconv.Itoa(before.NgayBu), strconv.Itoa(after.NgayBu)},
		{"tt", string(before.TT), string(after.TT)},
		{"ghi_chu", before.GhiChu, after.GhiChu},
		{"gia", formatPrice(before.Gia), formatPrice(after.Gia)},
	}
	changes := make(map[string][2]string)
	for _, f := range fields {
		if f.old != f.new {
			changes[f.name] = [2]string{f.old, f.new}
		}
	}
	return changes
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
