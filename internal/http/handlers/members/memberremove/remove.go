// Package memberremove реализует HTTP-обработчик удаления участника.
package memberremove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Service описывает удаление участника.
type Service interface {
	Delete(ctx context.Context, actor *models.Actor, id int) (models.Member, error)
}

// Handler обрабатывает DELETE /members/{id}.
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
// @Summary Удалить участника
// @Description Оставшиеся участники перенумеровываются 1..N.
// @Tags Members
// @Produce  json
// @Param id path int true "Идентификатор участника"
// @Success 200 {object} response.Response "Удалённый участник"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.remove"
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

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	removed, err := h.service.Delete(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to delete member", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("member deleted", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(record.Serialize(removed)))
}
