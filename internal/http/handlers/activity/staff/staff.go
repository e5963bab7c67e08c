// Package staff реализует HTTP-обработчик активности сотрудников: журнал за
// период, сгруппированный по сотрудникам. Только admin.
package staff

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/activity/loglist"
	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/services/gym"
	"github.com/BaoQuyyy/HuyGym/internal/services/stats"
)

// Service описывает группировку журнала по сотрудникам.
type Service interface {
	Staff(ctx context.Context, actor *models.Actor, q gym.LogQuery) ([]stats.StaffActivity, error)
}

// Handler обрабатывает GET /staff.
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
// @Summary Активность сотрудников
// @Description Сотрудники по убыванию числа действий, с разбивкой по видам действий.
// @Tags Activity
// @Produce  json
// @Param action query string false "all, other или имя действия"
// @Param period query string false "all, today, yesterday, week, month, last, custom"
// @Param from query string false "Начало для custom, YYYY-MM-DD"
// @Param to query string false "Конец для custom, YYYY-MM-DD"
// @Success 200 {object} response.Response "Активность по сотрудникам"
// @Failure 400 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /staff [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.staff"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := loglist.ParseQuery(r.URL.Query())
	if err != nil {
		log.Error("invalid query", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	activity, err := h.service.Staff(r.Context(), middlewarectx.ActorFrom(r.Context()), q)
	if err != nil {
		log.Error("failed to group activity", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(activity))
}
