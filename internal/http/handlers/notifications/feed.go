// Package notifications реализует HTTP-обработчик ленты уведомлений:
// всплывающие сообщения и состояние индикатора соединения.
package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/notify"
)

// Feed — источник уведомлений.
type Feed interface {
	Since(seq uint64) ([]models.Notification, uint64)
	State() notify.State
}

// Handler обрабатывает GET /notifications.
type Handler struct {
	log  *slog.Logger
	feed Feed
}

// New создает Handler.
func New(log *slog.Logger, feed Feed) *Handler {
	return &Handler{
		log:  log,
		feed: feed,
	}
}

// ServeHTTP godoc
// @Summary Лента уведомлений
// @Description События с номером больше since и текущее состояние индикаторов.
// @Tags Notifications
// @Produce  json
// @Param since query int false "Последний полученный номер события"
// @Success 200 {object} response.Response "События и состояние"
// @Failure 400 {object} response.ErrorResponse "Некорректный since"
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		var err error
		since, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			log.Info("invalid since", slog.String("since", raw))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid since"))
			return
		}
	}

	items, last := h.feed.Since(since)
	if items == nil {
		items = []models.Notification{}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"items":    items,
		"last_seq": last,
		"state":    h.feed.State(),
	}))
}
