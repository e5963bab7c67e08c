// Package memberimport реализует HTTP-обработчик импорта коллекции.
//
// Тело запроса — файл выгрузки: массив записей или объект с полем records.
// Коллекция заменяется целиком; при ошибке разбора ничего не меняется.
package memberimport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// MaxBodyBytes — предельный размер файла импорта.
const MaxBodyBytes = 10 << 20

// Service описывает импорт.
type Service interface {
	Import(ctx context.Context, actor *models.Actor, data []byte) (int, error)
}

// Handler обрабатывает POST /members/import.
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
// @Summary Импорт участников
// @Description Полностью заменяет коллекцию содержимым файла выгрузки.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param request body []models.WireRecord true "Массив записей или {records: [...]}"
// @Success 200 {object} response.Response "Количество импортированных участников"
// @Failure 400 {object} response.ErrorResponse "Файл не удалось разобрать"
// @Failure 413 {object} response.ErrorResponse "Файл слишком большой"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/import [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.import"
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

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read import body", sl.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("import file too large"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	count, err := h.service.Import(r.Context(), actor, data)
	if err != nil {
		log.Error("failed to import members", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("members imported", slog.Int("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{"count": count}))
}
