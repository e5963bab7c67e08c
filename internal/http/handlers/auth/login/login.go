// Package login реализует HTTP-обработчик входа сотрудника.
//
// Сотрудник указывает имя и роль; для роли admin нужен общий пароль.
// В ответ возвращается JWT и снимок сотрудника (имя, роль, цвет).
package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Request — данные для входа.
type Request struct {
	Name     string `json:"name" validate:"required,max=50"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Password string `json:"password"`
}

// Service описывает вход сотрудника.
type Service interface {
	Login(ctx context.Context, name, role, password string) (string, models.Actor, error)
}

// Handler обрабатывает HTTP-запросы входа.
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
// @Summary Вход сотрудника
// @Description Выдаёт JWT. Для роли admin требуется общий пароль.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя, роль и пароль"
// @Success 200 {object} response.Response "Токен и данные сотрудника"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверный пароль"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
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

	token, actor, err := h.service.Login(r.Context(), req.Name, req.Role, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("login success", slog.String("name", actor.Name), slog.String("role", actor.Role))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"name":  actor.Name,
		"role":  actor.Role,
		"color": actor.Color,
	}))
}
