// Package memberstore хранит коллекцию участников в памяти и следит за её
// инвариантами: идентификаторы плотные (1..N), производные поля участника
// пересчитываются при каждом изменении дат или пакета.
//
// Store не потокобезопасен: единственный писатель — цикл сессии
// (пакет eventloop).
package memberstore

import (
	"fmt"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/lib/expiry"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Store — коллекция участников.
type Store struct {
	members []models.Member
	today   func() time.Time
}

// New создаёт пустое хранилище. today возвращает полночь текущего дня.
func New(today func() time.Time) *Store {
	return &Store{today: today}
}

// Len возвращает количество участников.
func (s *Store) Len() int {
	return len(s.members)
}

// All возвращает копию коллекции в текущем порядке.
func (s *Store) All() []models.Member {
	out := make([]models.Member, len(s.members))
	copy(out, s.members)
	return out
}

// Get возвращает участника по идентификатору.
func (s *Store) Get(id int) (models.Member, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.members[i], true
	}
	return models.Member{}, false
}

// Replace полностью заменяет коллекцию и пересчитывает всех участников.
func (s *Store) Replace(members []models.Member) {
	s.members = make([]models.Member, len(members))
	copy(s.members, members)
	s.BulkRecompute()
}

// Add добавляет нового участника с идентификатором max+1 (освобождённые
// номера повторно не выдаются). Дата регистрации равна дате начала.
// Проверка обязательных полей — ответственность вызывающего.
func (s *Store) Add(d models.Draft) models.Member {
	status := record.NormalizeStatus(string(d.Status))
	if status != models.StatusPaused {
		status = models.StatusActive
	}
	m := models.Member{
		ID:           s.nextID(),
		Name:         d.Name,
		Phone:        d.Phone,
		RegisteredOn: d.StartedOn,
		StartedOn:    d.StartedOn,
		PackageDays:  d.PackageDays,
		BonusDays:    d.BonusDays,
		Status:       status,
		Note:         d.Note,
		Price:        d.Price,
	}
	expiry.Recompute(&m, s.today())
	s.members = append(s.members, m)
	return m
}

// Edit накладывает patch на участника id и возвращает состояние до и после.
// Дата первой регистрации не меняется. Если итоговый статус не paused, он
// пересчитывается по оставшимся дням; явный paused сохраняется.
func (s *Store) Edit(id int, p models.Patch) (before, after models.Member, err error) {
	const op = "memberstore.Edit"
	i := s.indexOf(id)
	if i < 0 {
		return models.Member{}, models.Member{}, fmt.Errorf("%s: member %d: %w", op, id, models.ErrNotFound)
	}
	before = s.members[i]
	m := before

	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.StartedOn != nil {
		m.StartedOn = *p.StartedOn
	}
	if p.PackageDays != nil {
		m.PackageDays = *p.PackageDays
	}
	if p.BonusDays != nil {
		m.BonusDays = *p.BonusDays
	}
	if p.Status != nil {
		m.Status = record.NormalizeStatus(string(*p.Status))
	}
	if p.Note != nil {
		m.Note = *p.Note
	}
	if p.Price != nil {
		m.Price = *p.Price
	}
	if !before.RegisteredOn.IsZero() {
		m.RegisteredOn = before.RegisteredOn
	}

	expiry.Recompute(&m, s.today())
	s.members[i] = m
	return before, m, nil
}

// Delete удаляет участника и перенумеровывает оставшихся в 1..N по порядку.
// Идентификаторы после удаления не стабильны: вызывающие edit/delete/undo
// должны это учитывать.
func (s *Store) Delete(id int) (models.Member, error) {
	const op = "memberstore.Delete"
	i := s.indexOf(id)
	if i < 0 {
		return models.Member{}, fmt.Errorf("%s: member %d: %w", op, id, models.ErrNotFound)
	}
	removed := s.members[i]
	s.members = append(s.members[:i], s.members[i+1:]...)
	s.renumber()
	return removed, nil
}

// BulkRecompute нормализует статус и пересчитывает всех участников.
func (s *Store) BulkRecompute() {
	today := s.today()
	for i := range s.members {
		s.members[i].Status = record.NormalizeStatus(string(s.members[i].Status))
		expiry.Recompute(&s.members[i], today)
	}
}

// AddBonusDays добавляет n дней компенсации участникам, подходящим под pred,
// и возвращает их количество.
func (s *Store) AddBonusDays(n int, pred func(models.Member) bool) int {
	today := s.today()
	count := 0
	for i := range s.members {
		if !pred(s.members[i]) {
			continue
		}
		s.members[i].BonusDays += n
		expiry.Recompute(&s.members[i], today)
		count++
	}
	return count
}

// ActiveOrWarning — предикат для компенсации праздничных дней.
func ActiveOrWarning(m models.Member) bool {
	return m.Status == models.StatusActive || m.Status == models.StatusWarning
}

// AppendRestored добавляет восстановленного участника в конец коллекции с
// новым идентификатором max+1 и пересчитывает всех.
func (s *Store) AppendRestored(m models.Member) models.Member {
	m.ID = s.nextID()
	s.members = append(s.members, m)
	s.BulkRecompute()
	restored, _ := s.Get(m.ID)
	return restored
}

// RemoveAddedMember удаляет участника, добавленного записью журнала: сначала ищется
// последний участник с теми же именем и телефоном, затем, если совпадений
// нет, участник с исходным идентификатором fallbackID. После удаления
// идентификаторы перенумеровываются. Возвращает false, если никто не найден.
func (s *Store) RemoveAddedMember(name, phone string, fallbackID int) bool {
	idx := -1
	for i := len(s.members) - 1; i >= 0; i-- {
		if s.members[i].Name == name && s.members[i].Phone == phone {
			idx = i
			break
		}
	}
	if idx < 0 && fallbackID > 0 {
		idx = s.indexOf(fallbackID)
	}
	if idx < 0 {
		return false
	}
	s.members = append(s.members[:idx], s.members[idx+1:]...)
	s.renumber()
	return true
}

// RestoreSnapshot заменяет участника с идентификатором m.ID снимком m целиком и
// пересчитывает его.
func (s *Store) RestoreSnapshot(m models.Member) (models.Member, error) {
	const op = "memberstore.RestoreSnapshot"
	i := s.indexOf(m.ID)
	if i < 0 {
		return models.Member{}, fmt.Errorf("%s: member %d: %w", op, m.ID, models.ErrNotFound)
	}
	expiry.Recompute(&m, s.today())
	s.members[i] = m
	return m, nil
}

func (s *Store) indexOf(id int) int {
	for i := range s.members {
		if s.members[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nextID() int {
	maxID := 0
	for _, m := range s.members {
		maxID = max(maxID, m.ID)
	}
	return maxID + 1
}

func (s *Store) renumber() {
	for i := range s.members {
		s.members[i].ID = i + 1
	}
}
