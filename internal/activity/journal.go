// Package activity ведёт журнал действий сотрудников и отменяет
// добавление, удаление и редактирование участников по записи журнала.
//
// Записи хранятся в удалённом хранилище под собственными ключами
// activity_log/<id>, поэтому параллельные сессии не затирают записи друг
// друга. Снимок всего журнала из подписки полностью заменяет журнал в памяти.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/BaoQuyyy/HuyGym/internal/lib/eventloop"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/memberstore"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
)

// LogPath — путь коллекции журнала в удалённом хранилище.
const LogPath = "activity_log"

const writeTimeout = 10 * time.Second

// Remote — удалённое хранилище журнала.
type Remote interface {
	Write(ctx context.Context, path string, value []byte) error
	Subscribe(ctx context.Context, path string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error)
}

// Persister сохраняет коллекцию участников после отмены.
type Persister interface {
	Persist()
}

// Notifier получает уведомления об изменениях журнала и коллекции.
type Notifier interface {
	Toast(kind models.ToastKind, msg string)
	LogChanged()
	MembersChanged()
}

// Metrics — метрики журнала.
type Metrics interface {
	LogEntry(action string)
	RemoteWrite(collection string, err error)
}

// Journal — журнал действий. Все методы, кроме Start, Stop и Wait,
// исполняются в цикле сессии.
type Journal struct {
	log       *slog.Logger
	loop      *eventloop.Loop
	store     *memberstore.Store
	remote    Remote
	persister Persister
	notifier  Notifier
	metrics   Metrics
	now       func() time.Time

	entries []models.Entry
	sub     remote.Subscription
	writer  *remote.Writer
}

// New создаёт журнал.
func New(log *slog.Logger, loop *eventloop.Loop, store *memberstore.Store, remoteStore Remote, persister Persister, notifier Notifier, metrics Metrics, now func() time.Time) *Journal {
	if now == nil {
		now = time.Now
	}
	j := &Journal{
		log:       log.With(slog.String("component", "activity")),
		loop:      loop,
		store:     store,
		remote:    remoteStore,
		persister: persister,
		notifier:  notifier,
		metrics:   metrics,
		now:       now,
	}
	j.writer = remote.NewWriter(remoteStore.Write, writeTimeout, j.onWritten)
	return j
}

// Start подписывается на коллекцию журнала. Ошибка подписки не фатальна:
// журнал продолжает работать в памяти.
func (j *Journal) Start(ctx context.Context) error {
	const op = "activity.Start"

	sub, err := j.remote.Subscribe(ctx, LogPath,
		func(data []byte) { j.loop.Post(func() { j.replace(data) }) },
		func(err error) { j.log.Error("activity log subscription error", sl.Err(err)) },
	)
	if err != nil {
		j.log.Error("failed to subscribe to activity log", slog.String("op", op), sl.Err(err))
		return nil
	}
	return j.loop.Do(ctx, func() error {
		j.sub = sub
		return nil
	})
}

// Stop закрывает подписку и дожидается незавершённых записей.
func (j *Journal) Stop(ctx context.Context) {
	_ = j.loop.Do(ctx, func() error {
		if j.sub != nil {
			if err := j.sub.Close(); err != nil {
				j.log.Warn("failed to close subscription", sl.Err(err))
			}
			j.sub = nil
		}
		return nil
	})
	j.Wait()
}

// Wait дожидается асинхронных записей в удалённое хранилище.
func (j *Journal) Wait() {
	j.writer.Wait()
}

// Entries возвращает копию журнала, новые записи первыми.
func (j *Journal) Entries() []models.Entry {
	out := make([]models.Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Append добавляет запись в начало журнала и асинхронно сохраняет её под
// собственным ключом. Без аутентифицированного сотрудника ничего не делает
// и возвращает false.
func (j *Journal) Append(action models.Action, payload any, actor *models.Actor) (models.Entry, bool) {
	const op = "activity.Append"
	if actor == nil {
		return models.Entry{}, false
	}

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			j.log.Error("failed to encode payload", slog.String("op", op), sl.Err(err))
			return models.Entry{}, false
		}
		data = raw
	}

	now := j.now()
	entry := models.Entry{
		ID:        fmt.Sprintf("%d_%s", now.UnixMilli(), uuid.NewString()[:4]),
		Timestamp: record.FormatDate(now),
		User:      actor.Name,
		Role:      actor.Role,
		Color:     actor.Color,
		Action:    action,
		Data:      data,
	}
	j.entries = append([]models.Entry{entry}, j.entries...)
	j.metrics.LogEntry(string(action))

	value, err := json.Marshal(entry)
	if err != nil {
		j.log.Error("failed to encode entry", slog.String("op", op), sl.Err(err))
	} else {
		j.write(LogPath+"/"+entry.ID, value)
	}

	j.notifier.LogChanged()
	return entry, true
}

// Undo отменяет действие записи entryID. Доступно только admin.
// Успешная отмена сама записывается в журнал как undo и возвращает её описание.
func (j *Journal) Undo(entryID string, actor *models.Actor) (string, error) {
	const op = "activity.Undo"
	if !actor.IsAdmin() {
		return "", fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	entry, ok := j.find(entryID)
	if !ok {
		return "", fmt.Errorf("%s: entry %s: %w", op, entryID, models.ErrNotFound)
	}

	var (
		what string
		err  error
	)
	switch entry.Action {
	case models.ActionAdd:
		what, err = j.undoAdd(entry)
	case models.ActionDelete:
		what, err = j.undoDelete(entry)
	case models.ActionEdit:
		what, err = j.undoEdit(entry)
	default:
		err = models.ErrUndoUnsupported
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	j.persister.Persist()
	j.notifier.MembersChanged()
	j.Append(models.ActionUndo, models.UndoPayload{What: what, RefID: entry.ID}, actor)
	return what, nil
}

func (j *Journal) undoAdd(entry models.Entry) (string, error) {
	var snap models.WireRecord
	if err := json.Unmarshal(entry.Data, &snap); err != nil {
		return "", fmt.Errorf("decode add snapshot: %w", err)
	}
	if !j.store.RemoveAddedMember(snap.Ten, snap.Sdt, snap.ID) {
		return "", fmt.Errorf("member %q: %w", snap.Ten, models.ErrNotFound)
	}
	return "Undo add: " + snap.Ten, nil
}

func (j *Journal) undoDelete(entry models.Entry) (string, error) {
	raw, err := decodeRaw(entry.Data)
	if err != nil {
		return "", fmt.Errorf("decode delete snapshot: %w", err)
	}
	restored := j.store.AppendRestored(record.Parse(raw))
	return "Undo delete: " + restored.Name, nil
}

func (j *Journal) undoEdit(entry models.Entry) (string, error) {
	var payload struct {
		Before map[string]any `json:"before"`
		After  map[string]any `json:"after"`
	}
	if err := json.Unmarshal(entry.Data, &payload); err != nil || payload.Before == nil {
		return "", fmt.Errorf("edit entry without before snapshot: %w", models.ErrUndoUnsupported)
	}
	before := record.Parse(payload.Before)
	if _, err := j.store.RestoreSnapshot(before); err != nil {
		return "", err
	}

	name := before.Name
	if payload.After != nil {
		if after := record.Parse(payload.After); after.Name != "" {
			name = after.Name
		}
	}
	return "Undo edit: " + name, nil
}

// Clear удаляет весь журнал локально и в удалённом хранилище. Только admin.
func (j *Journal) Clear(actor *models.Actor) error {
	const op = "activity.Clear"
	if !actor.IsAdmin() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	j.entries = nil
	j.write(LogPath, nil)
	j.notifier.LogChanged()
	j.notifier.Toast(models.ToastWarn, "activity log cleared")
	return nil
}

func (j *Journal) find(id string) (models.Entry, bool) {
	for _, e := range j.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.Entry{}, false
}

// replace заменяет журнал снимком из подписки.
func (j *Journal) replace(data []byte) {
	entries, err := ParseSnapshot(data)
	if err != nil {
		j.log.Warn("activity log snapshot is malformed, treating as empty", sl.Err(err))
	}
	j.entries = entries
	j.notifier.LogChanged()
}

// write ставит запись в общую очередь журнала: записи и очистка попадают
// в хранилище в том же порядке, в каком сделаны.
func (j *Journal) write(path string, value []byte) {
	j.writer.Enqueue(path, value)
}

func (j *Journal) onWritten(path string, err error) {
	j.metrics.RemoteWrite(LogPath, err)
	if err != nil {
		j.log.Error("failed to write activity log", slog.String("op", "activity.write"), slog.String("path", path), sl.Err(err))
	}
}

// ParseSnapshot разбирает снимок коллекции журнала (объект id → запись)
// и сортирует записи по убыванию метки времени. Нечитаемые записи пропускаются.
func ParseSnapshot(data []byte) ([]models.Entry, error) {
	const op = "activity.ParseSnapshot"
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries := make([]models.Entry, 0, len(raw))
	for _, v := range raw {
		var e models.Entry
		if err := json.Unmarshal(v, &e); err != nil || e.ID == "" {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp > entries[b].Timestamp
	})
	return entries, nil
}

func decodeRaw(data json.RawMessage) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, models.ErrNotFound
	}
	return raw, nil
}
