// Package memberupdate реализует HTTP-обработчик частичного изменения участника.
package memberupdate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Request — изменяемые поля. Отсутствующее поле не меняется.
type Request struct {
	Ten    *string  `json:"ten" validate:"omitempty,max=100"`
	Sdt    *string  `json:"sdt" validate:"omitempty,max=20"`
	NgayBD *string  `json:"ngay_bd"`
	SoNgay *int     `json:"so_ngay" validate:"omitempty,min=1"`
	NgayBu *int     `json:"ngay_bu" validate:"omitempty,min=0"`
	TT     *string  `json:"tt"`
	GhiChu *string  `json:"ghi_chu"`
	Gia    *float64 `json:"gia" validate:"omitempty,min=0"`
}

// Patch переводит запрос в частичное изменение участника.
func (req Request) Patch() (models.Patch, error) {
	p := models.Patch{
		Name:        req.Ten,
		Phone:       req.Sdt,
		PackageDays: req.SoNgay,
		BonusDays:   req.NgayBu,
		Note:        req.GhiChu,
		Price:       req.Gia,
	}
	if req.NgayBD != nil {
		start, ok := record.ParseDate(*req.NgayBD)
		if !ok {
			return models.Patch{}, fmt.Errorf("invalid date ngay_bd %q: %w", *req.NgayBD, models.ErrValidation)
		}
		p.StartedOn = &start
	}
	if req.TT != nil {
		status := models.Status(*req.TT)
		p.Status = &status
	}
	return p, nil
}

// Service описывает изменение участника.
type Service interface {
	Edit(ctx context.Context, actor *models.Actor, id int, p models.Patch) (models.Member, error)
}

// Handler обрабатывает PUT /members/{id}.
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
// @Summary Изменить участника
// @Description Частичное изменение. Дата регистрации сохраняется, статус paused не сбрасывается без явного tt.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param id path int true "Идентификатор участника"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Участник после изменения"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.update"
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

	patch, err := req.Patch()
	if err != nil {
		log.Error("invalid request", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	member, err := h.service.Edit(r.Context(), actor, id, patch)
	if err != nil {
		log.Error("failed to edit member", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("member edited", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(record.Serialize(member)))
}
