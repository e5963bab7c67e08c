// Package membercreate реализует HTTP-обработчик добавления участника.
package membercreate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Request — новый участник. Поля названы как в проводном формате.
type Request struct {
	Ten    string  `json:"ten" validate:"required,max=100"`
	Sdt    string  `json:"sdt" validate:"max=20"`
	NgayBD string  `json:"ngay_bd" validate:"required"` // YYYY-MM-DD или ISO-8601
	SoNgay int     `json:"so_ngay" validate:"required,min=1"`
	NgayBu int     `json:"ngay_bu" validate:"min=0"`
	TT     string  `json:"tt"`
	GhiChu string  `json:"ghi_chu"`
	Gia    float64 `json:"gia" validate:"min=0"`
}

// Draft переводит запрос в черновик участника.
func (req Request) Draft() (models.Draft, error) {
	start, ok := record.ParseDate(req.NgayBD)
	if !ok {
		return models.Draft{}, fmt.Errorf("invalid date ngay_bd %q: %w", req.NgayBD, models.ErrValidation)
	}
	return models.Draft{
		Name:        req.Ten,
		Phone:       req.Sdt,
		StartedOn:   start,
		PackageDays: req.SoNgay,
		BonusDays:   req.NgayBu,
		Status:      models.Status(req.TT),
		Note:        req.GhiChu,
		Price:       req.Gia,
	}, nil
}

// Service описывает добавление участника.
type Service interface {
	Add(ctx context.Context, actor *models.Actor, d models.Draft) (models.Member, error)
}

// Handler обрабатывает POST /members.
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
// @Summary Добавить участника
// @Description Идентификатор выдаётся как max+1, дата регистрации равна дате начала.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные участника"
// @Success 201 {object} response.Response "Созданный участник"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.create"
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

	draft, err := req.Draft()
	if err != nil {
		log.Error("invalid request", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	member, err := h.service.Add(r.Context(), actor, draft)
	if err != nil {
		log.Error("failed to add member", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("member added", slog.Int("id", member.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(record.Serialize(member)))
}
