// Package statssummary реализует HTTP-обработчик сводки по месяцам окончания.
package statssummary

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
	"github.com/BaoQuyyy/HuyGym/internal/services/stats"
)

// Service описывает расчёт сводки.
type Service interface {
	Summary(ctx context.Context) (stats.Summary, error)
}

// Summary — тело ответа. Участники отдаются в проводном формате.
type Summary struct {
	Totals  stats.Counts        `json:"totals"`
	Months  []stats.Month       `json:"months"`
	Warning []models.WireRecord `json:"warning"`
	Expired []models.WireRecord `json:"expired"`
}

// Handler обрабатывает GET /stats.
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
// @Summary Сводка по участникам
// @Description Итоги по статусам и выручке, разбивка по месяцам окончания, списки warning и expired.
// @Tags Stats
// @Produce  json
// @Success 200 {object} response.Response "Сводка"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.summary"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	s, err := h.service.Summary(r.Context())
	if err != nil {
		log.Error("failed to summarize members", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(Summary{
		Totals:  s.Totals,
		Months:  s.Months,
		Warning: record.SerializeAll(s.Warning),
		Expired: record.SerializeAll(s.Expired),
	}))
}
