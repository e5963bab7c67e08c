// Package statsmovement реализует HTTP-обработчик сравнения двух месяцев.
package statsmovement

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/services/stats"
)

// Service описывает сравнение месяцев.
type Service interface {
	Movement(ctx context.Context, this, prev string) (stats.Movement, error)
}

// Handler обрабатывает GET /stats/movement.
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
// @Summary Движение участников
// @Description Новые, остановившиеся и активные участники месяца по сравнению с предыдущим.
// @Tags Stats
// @Produce  json
// @Param this query string false "Месяц YYYY-MM, по умолчанию текущий"
// @Param prev query string false "Месяц сравнения YYYY-MM, по умолчанию предыдущий"
// @Success 200 {object} response.Response "Движение за месяц"
// @Failure 400 {object} response.ErrorResponse "Некорректный месяц"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /stats/movement [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.movement"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	mv, err := h.service.Movement(r.Context(), query.Get("this"), query.Get("prev"))
	if err != nil {
		log.Error("failed to compare months", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(mv))
}
