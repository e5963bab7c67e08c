// Package logclear реализует HTTP-обработчик очистки журнала. Только admin.
package logclear

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

// Service описывает очистку журнала.
type Service interface {
	ClearLog(ctx context.Context, actor *models.Actor) error
}

// Handler обрабатывает DELETE /log.
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
// @Summary Очистить журнал
// @Tags Activity
// @Produce  json
// @Success 200 {object} response.Response "Журнал очищен"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /log [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.clear"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.ClearLog(r.Context(), middlewarectx.ActorFrom(r.Context())); err != nil {
		log.Error("failed to clear activity log", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("activity log cleared")
	render.JSON(w, r, response.OKWithData(map[string]any{"cleared": true}))
}
