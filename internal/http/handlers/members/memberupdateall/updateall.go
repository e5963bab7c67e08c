// Package memberupdateall реализует HTTP-обработчик пересчёта всех участников.
package memberupdateall

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Service описывает пересчёт коллекции.
type Service interface {
	UpdateAll(ctx context.Context, actor *models.Actor) (int, error)
}

// Handler обрабатывает POST /members/update-all.
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
// @Summary Пересчитать всех участников
// @Description Нормализует статусы и пересчитывает даты окончания и остаток дней.
// @Tags Members
// @Produce  json
// @Success 200 {object} response.Response "Количество участников"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/update-all [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.updateall"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor := middlewarectx.ActorFrom(r.Context())
	if actor == nil {
		log.Error("actor not found in context")
		response.Fail(w, r, models.ErrUnauthorized)
		return
	}

	count, err := h.service.UpdateAll(r.Context(), actor)
	if err != nil {
		log.Error("failed to update members", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("members recomputed", slog.Int("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{"count": count}))
}
