// Package memberholiday реализует HTTP-обработчик начисления дней
// компенсации за праздники.
package memberholiday

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Request — число дней компенсации.
type Request struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

// Service описывает начисление дней.
type Service interface {
	Holiday(ctx context.Context, actor *models.Actor, days int) (int, error)
}

// Handler обрабатывает POST /members/holiday.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Праздничные дни
// @Description Добавляет дни компенсации участникам со статусом active или warning.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param request body Request true "Число дней"
// @Success 200 {object} response.Response "Сколько участников получили дни"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/holiday [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.holiday"
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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	count, err := h.service.Holiday(r.Context(), actor, req.Days)
	if err != nil {
		log.Error("failed to apply holiday", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("holiday applied", slog.Int("days", req.Days), slog.Int("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"days":  req.Days,
		"count": count,
	}))
}
