// Package memberexport реализует HTTP-обработчик выгрузки коллекции в JSON.
package memberexport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
)

// Service описывает выгрузку.
type Service interface {
	Export(ctx context.Context) ([]byte, error)
}

// Handler обрабатывает GET /members/export.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает Handler. now задаёт дату в имени файла.
func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		log:     log,
		service: service,
		now:     now,
	}
}

// ServeHTTP godoc
// @Summary Экспорт участников
// @Description JSON-массив проводных записей с отступами, отдаётся как файл.
// @Tags Members
// @Produce  json
// @Success 200 {array} models.WireRecord "Файл выгрузки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /members/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.export"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data, err := h.service.Export(r.Context())
	if err != nil {
		log.Error("failed to export members", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("gym_backup_%s.json", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write export", sl.Err(err))
		return
	}
	log.Info("members exported", slog.Int("bytes", len(data)))
}
