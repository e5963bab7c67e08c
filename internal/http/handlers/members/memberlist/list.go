// Package memberlist реализует HTTP-обработчик списка участников с фильтром
// по статусу, поиском и сортировкой.
package memberlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/services/gym"
)

// Service описывает выборку участников.
type Service interface {
	List(ctx context.Context, q gym.ListQuery) ([]models.Member, error)
}

// Handler обрабатывает GET /members.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список участников
// @Description Фильтр по статусу (chip), поиск без учёта диакритики (q), сортировка по колонке.
// @Tags Members
// @Produce  json
// @Param chip query string false "all, active, warning, expired, paused"
// @Param q query string false "Поиск по имени, телефону, заметке"
// @Param sort query string false "id, ten, ngay_bd, ngay_hh, con_lai, so_ngay, gia"
// @Param order query string false "asc или desc"
// @Success 200 {object} response.Response "Участники в проводном формате"
// @Failure 400 {object} response.ErrorResponse "Неизвестный фильтр или колонка"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	order := query.Get("order")
	if order != "" && order != "asc" && order != "desc" {
		log.Error("invalid sort order", slog.String("order", order))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("order must be asc or desc"))
		return
	}

	members, err := h.service.List(r.Context(), gym.ListQuery{
		Chip:  query.Get("chip"),
		Query: query.Get("q"),
		Sort:  query.Get("sort"),
		Desc:  order == "desc",
	})
	if err != nil {
		log.Error("failed to list members", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Debug("members listed", slog.Int("count", len(members)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(members),
		"members": record.SerializeAll(members),
	}))
}
