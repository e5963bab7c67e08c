// Package notify собирает уведомления для клиента в ограниченную ленту.
// Клиент забирает ленту через GET /api/v1/notifications?since=<seq>.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Типы событий ленты.
const (
	TypeToast          = "toast"
	TypeStatusBar      = "status_bar"
	TypeConnectivity   = "connectivity"
	TypeMembersChanged = "members_changed"
	TypeLogChanged     = "log_changed"
)

const defaultCapacity = 200

// State — последнее состояние индикаторов.
type State struct {
	Connectivity string `json:"connectivity"`
	Label        string `json:"label"`
	StatusBar    string `json:"status_bar"`
}

// Hub — потокобезопасная лента уведомлений.
type Hub struct {
	log *slog.Logger
	now func() time.Time

	mu       sync.Mutex
	capacity int
	seq      uint64
	feed     []models.Notification
	state    State
}

// New создаёт ленту на capacity событий; старые события вытесняются.
func New(log *slog.Logger, capacity int) *Hub {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Hub{
		log:      log.With(slog.String("component", "notify")),
		now:      time.Now,
		capacity: capacity,
	}
}

// Toast публикует всплывающее уведомление.
func (h *Hub) Toast(kind models.ToastKind, msg string) {
	switch kind {
	case models.ToastErr:
		h.log.Error(msg)
	case models.ToastWarn:
		h.log.Warn(msg)
	default:
		h.log.Info(msg)
	}
	h.push(TypeToast, kind, msg)
}

// StatusBar обновляет строку состояния.
func (h *Hub) StatusBar(msg string) {
	h.log.Debug("status bar", slog.String("message", msg))
	h.mu.Lock()
	h.state.StatusBar = msg
	h.mu.Unlock()
	h.push(TypeStatusBar, "", msg)
}

// Connectivity обновляет индикатор соединения.
func (h *Hub) Connectivity(state, label string) {
	h.log.Info("connectivity changed", slog.String("state", state), slog.String("label", label))
	h.mu.Lock()
	h.state.Connectivity = state
	h.state.Label = label
	h.mu.Unlock()
	h.push(TypeConnectivity, "", state)
}

// MembersChanged сообщает, что коллекцию участников нужно перечитать.
func (h *Hub) MembersChanged() {
	h.push(TypeMembersChanged, "", "")
}

// LogChanged сообщает, что журнал нужно перечитать.
func (h *Hub) LogChanged() {
	h.push(TypeLogChanged, "", "")
}

// Since возвращает события с номером больше seq и номер последнего события.
func (h *Hub) Since(seq uint64) ([]models.Notification, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.Notification, 0)
	for _, n := range h.feed {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out, h.seq
}

// State возвращает текущее состояние индикаторов.
func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hub) push(typ string, kind models.ToastKind, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	h.feed = append(h.feed, models.Notification{
		Seq:     h.seq,
		Time:    h.now(),
		Type:    typ,
		Kind:    kind,
		Message: msg,
	})
	if over := len(h.feed) - h.capacity; over > 0 {
		h.feed = append(h.feed[:0:0], h.feed[over:]...)
	}
}
