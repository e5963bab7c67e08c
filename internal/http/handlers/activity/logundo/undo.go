// Package logundo реализует HTTP-обработчик отмены действия из журнала.
// Маршрут доступен только admin.
package logundo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Service описывает отмену.
type Service interface {
	Undo(ctx context.Context, actor *models.Actor, entryID string) (string, error)
}

// Handler обрабатывает POST /log/{id}/undo.
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
// @Summary Отменить действие
// @Description Отменяет add, delete или edit. Для остальных действий 409.
// @Tags Activity
// @Produce  json
// @Param id path string true "Идентификатор записи журнала"
// @Success 200 {object} response.Response "Описание отмены"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 404 {object} response.ErrorResponse "Запись или участник не найдены"
// @Failure 409 {object} response.ErrorResponse "Отмена не поддерживается"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /log/{id}/undo [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.undo"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	entryID := chi.URLParam(r, "id")
	what, err := h.service.Undo(r.Context(), middlewarectx.ActorFrom(r.Context()), entryID)
	if err != nil {
		log.Error("failed to undo", slog.String("entry", entryID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("undo applied", slog.String("entry", entryID))
	render.JSON(w, r, response.OKWithData(map[string]any{"message": what}))
}
