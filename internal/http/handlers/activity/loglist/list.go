// Package loglist реализует HTTP-обработчик журнала действий с фильтром по
// виду действия и периоду.
package loglist

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/services/gym"
)

// ParseQuery читает параметры action, period, from и to. Даты from и to
// задаются как YYYY-MM-DD.
func ParseQuery(values url.Values) (gym.LogQuery, error) {
	q := gym.LogQuery{
		Action: values.Get("action"),
		Period: values.Get("period"),
	}
	var err error
	if q.From, err = parseDay(values.Get("from")); err != nil {
		return gym.LogQuery{}, err
	}
	if q.To, err = parseDay(values.Get("to")); err != nil {
		return gym.LogQuery{}, err
	}
	return q, nil
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, ok := record.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, models.ErrValidation)
	}
	return t, nil
}

// Service описывает выборку журнала.
type Service interface {
	Log(ctx context.Context, q gym.LogQuery) ([]models.Entry, error)
}

// Handler обрабатывает GET /log.
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
// @Summary Журнал действий
// @Description Новые записи первыми.
// @Tags Activity
// @Produce  json
// @Param action query string false "all, other или имя действия"
// @Param period query string false "all, today, yesterday, week, month, last, custom"
// @Param from query string false "Начало для custom, YYYY-MM-DD"
// @Param to query string false "Конец для custom, YYYY-MM-DD"
// @Success 200 {object} response.Response "Записи журнала"
// @Failure 400 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /log [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		log.Error("invalid query", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	entries, err := h.service.Log(r.Context(), q)
	if err != nil {
		log.Error("failed to read activity log", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(entries),
		"entries": entries,
	}))
}
