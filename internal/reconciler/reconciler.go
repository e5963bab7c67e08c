// Package reconciler синхронизирует коллекцию участников между удалённым
// хранилищем и локальной резервной копией.
//
// При старте удалённый снимок ждут ограниченное время. Непустой удалённый
// снимок авторитетен. Пустой первый снимок при наличии локальной копии
// запускает однократную миграцию локальных данных наверх. Ошибка или таймаут
// до готовности переводят сервис в деградированный режим на локальных данных.
// Каждый следующий снимок полностью заменяет коллекцию.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/lib/eventloop"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/memberstore"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
)

const (
	// MembersPath — путь коллекции участников в удалённом хранилище.
	MembersPath = "gym_members"
	// LocalKey — ключ локальной резервной копии участников.
	LocalKey = "gym_pro_v5"

	DefaultTimeout      = 6 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Remote — удалённое хранилище с подпиской на изменения.
type Remote interface {
	// Read возвращает значение по пути или nil, если его нет.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write записывает значение целиком; nil удаляет путь.
	Write(ctx context.Context, path string, value []byte) error
	// Subscribe вызывает onSnapshot с текущим значением и после каждого изменения.
	Subscribe(ctx context.Context, path string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error)
}

// Local — строковое key-value хранилище резервной копии.
type Local interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Notifier — получатель уведомлений для клиента.
type Notifier interface {
	Toast(kind models.ToastKind, msg string)
	StatusBar(msg string)
	Connectivity(state, label string)
	MembersChanged()
}

// Metrics — метрики синхронизации.
type Metrics interface {
	RemoteWrite(collection string, err error)
	SnapshotApplied(source string, members int)
	SetDegraded(degraded bool)
	SetMembers(n int)
}

// State — состояние соединения.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Status — снимок состояния для проверки здоровья.
type Status struct {
	State    State
	Degraded bool
	Members  int
}

// Options задаёт таймауты синхронизации.
type Options struct {
	Timeout      time.Duration
	WriteTimeout time.Duration
}

// Reconciler владеет подпиской на коллекцию участников.
// Методы, меняющие коллекцию, исполняются в цикле сессии.
type Reconciler struct {
	log      *slog.Logger
	loop     *eventloop.Loop
	store    *memberstore.Store
	remote   Remote
	local    Local
	notifier Notifier
	metrics  Metrics
	opts     Options

	// Поля ниже меняются только в цикле сессии.
	state    State
	degraded bool
	timer    *time.Timer
	sub      remote.Subscription

	mu     sync.RWMutex
	status Status

	writer *remote.Writer
}

// New создаёт Reconciler. Нулевые значения opts заменяются значениями по умолчанию.
func New(log *slog.Logger, loop *eventloop.Loop, store *memberstore.Store, remoteStore Remote, local Local, notifier Notifier, metrics Metrics, opts Options) *Reconciler {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	r := &Reconciler{
		log:      log.With(slog.String("component", "reconciler")),
		loop:     loop,
		store:    store,
		remote:   remoteStore,
		local:    local,
		notifier: notifier,
		metrics:  metrics,
		opts:     opts,
	}
	r.writer = remote.NewWriter(remoteStore.Write, opts.WriteTimeout, r.onWritten)
	return r
}

// Start переводит Reconciler в Connecting, взводит таймер ожидания и
// подписывается на коллекцию участников. Подписка живёт до отмены ctx или Stop.
func (r *Reconciler) Start(ctx context.Context) error {
	const op = "reconciler.Start"

	err := r.loop.Do(ctx, func() error {
		r.state = StateConnecting
		r.publishStatus()
		r.notifier.Connectivity(models.ConnSyncing, "connecting")
		r.timer = time.AfterFunc(r.opts.Timeout, func() {
			r.loop.Post(r.onTimeout)
		})
		return nil
	})
	if err != nil {
		return err
	}

	sub, err := r.remote.Subscribe(ctx, MembersPath,
		func(data []byte) { r.loop.Post(func() { r.onSnapshot(data) }) },
		func(err error) { r.loop.Post(func() { r.onError(err) }) },
	)
	if err != nil {
		r.log.Error("failed to subscribe", slog.String("op", op), sl.Err(err))
		r.loop.Post(func() { r.onError(err) })
		return nil
	}

	return r.loop.Do(ctx, func() error {
		r.sub = sub
		return nil
	})
}

// Stop закрывает подписку и дожидается незавершённых удалённых записей.
func (r *Reconciler) Stop(ctx context.Context) {
	_ = r.loop.Do(ctx, func() error {
		if r.timer != nil {
			r.timer.Stop()
		}
		if r.sub != nil {
			if err := r.sub.Close(); err != nil {
				r.log.Warn("failed to close subscription", sl.Err(err))
			}
			r.sub = nil
		}
		return nil
	})
	r.Wait()
}

// Wait дожидается завершения асинхронных записей в удалённое хранилище.
func (r *Reconciler) Wait() {
	r.writer.Wait()
}

// Status возвращает текущее состояние. Безопасен для вызова из любой горутины.
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Persist сохраняет коллекцию: синхронно в локальную копию (ошибки
// игнорируются) и асинхронно в удалённое хранилище через очередь записей,
// сохраняющую порядок. Ошибка удалённой записи
// не откатывает состояние, а превращается в предупреждение клиенту.
// Вызывается в цикле сессии после каждой мутации.
func (r *Reconciler) Persist() {
	const op = "reconciler.Persist"

	data, err := record.MarshalCollection(r.store.All())
	if err != nil {
		r.log.Error("failed to serialize members", slog.String("op", op), sl.Err(err))
		return
	}
	r.saveLocal(data)
	r.publishStatus()
	r.metrics.SetMembers(r.store.Len())

	r.writer.Enqueue(MembersPath, data)
}

func (r *Reconciler) onWritten(path string, err error) {
	r.metrics.RemoteWrite(path, err)
	if err != nil {
		r.log.Error("failed to write members to remote store", slog.String("op", "reconciler.Persist"), sl.Err(err))
		r.notifier.Toast(models.ToastWarn, "failed to save to the remote store")
	}
}

func (r *Reconciler) onSnapshot(data []byte) {
	members, err := record.ParseCollection(data)
	if err != nil {
		r.log.Warn("remote snapshot is not a collection, treating as empty", sl.Err(err))
		members = nil
	}

	firstReady := r.state != StateReady
	source := "remote"
	if len(members) == 0 && firstReady {
		if local := r.loadLocal(); len(local) > 0 {
			members = local
			source = "migration"
		}
	}

	r.store.Replace(members)
	if r.timer != nil {
		r.timer.Stop()
	}
	r.state = StateReady
	r.degraded = false
	r.metrics.SetDegraded(false)
	r.metrics.SnapshotApplied(source, r.store.Len())

	if source == "migration" {
		r.log.Info("remote store is empty, migrating local data", slog.Int("members", r.store.Len()))
		r.Persist()
		r.notifier.Toast(models.ToastOK, "local data migrated to the remote store")
	} else if data, err := record.MarshalCollection(r.store.All()); err == nil {
		r.saveLocal(data)
	}

	if firstReady {
		r.notifier.Toast(models.ToastOK, "connected to the remote store")
	}
	r.notifier.Connectivity(models.ConnOnline, "synced")
	r.notifier.StatusBar(statusLine("remote", r.store.Len()))
	r.notifier.MembersChanged()
	r.publishStatus()
}

func (r *Reconciler) onTimeout() {
	if r.state == StateReady {
		return
	}
	r.log.Warn("remote snapshot timed out, using local data", slog.Duration("timeout", r.opts.Timeout))
	r.fallback("timeout", "remote store is slow, using local data")
}

func (r *Reconciler) onError(err error) {
	r.log.Error("remote store error", sl.Err(err))
	if r.state == StateReady {
		r.notifier.Connectivity(models.ConnError, "connection error")
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.fallback("connection error", "cannot reach the remote store, using local data")
}

func (r *Reconciler) fallback(label, toast string) {
	r.store.Replace(r.loadLocal())
	r.state = StateReady
	r.degraded = true
	r.metrics.SetDegraded(true)
	r.metrics.SnapshotApplied("local", r.store.Len())

	r.notifier.Connectivity(models.ConnError, label)
	r.notifier.Toast(models.ToastWarn, toast)
	r.notifier.StatusBar(statusLine("offline", r.store.Len()))
	r.notifier.MembersChanged()
	r.publishStatus()
}

func (r *Reconciler) loadLocal() []models.Member {
	raw, ok, err := r.local.Get(LocalKey)
	if err != nil {
		r.log.Debug("failed to read local copy", sl.Err(err))
		return nil
	}
	if !ok {
		return nil
	}
	members, err := record.ParseCollection([]byte(raw))
	if err != nil {
		r.log.Debug("local copy is corrupted, ignoring", sl.Err(err))
		return nil
	}
	return members
}

func (r *Reconciler) saveLocal(data []byte) {
	if err := r.local.Set(LocalKey, string(data)); err != nil {
		r.log.Debug("failed to write local copy", sl.Err(err))
	}
}

func (r *Reconciler) publishStatus() {
	r.mu.Lock()
	r.status = Status{State: r.state, Degraded: r.degraded, Members: r.store.Len()}
	r.mu.Unlock()
}

func statusLine(mode string, members int) string {
	return fmt.Sprintf("%s · %d members · %s", mode, members, time.Now().Format("15:04:05"))
}
