// Package health реализует HTTP-обработчик проверки состояния синхронизации.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/reconciler"
)

// StatusSource отдаёт состояние синхронизации.
type StatusSource interface {
	Status() reconciler.Status
}

// Handler обрабатывает GET /health.
type Handler struct {
	source StatusSource
}

// New создает Handler.
func New(source StatusSource) *Handler {
	return &Handler{source: source}
}

// ServeHTTP godoc
// @Summary Состояние сервиса
// @Description 200 после первой синхронизации, 503 пока коллекция не загружена.
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Готов"
// @Failure 503 {object} response.Response "Синхронизация не завершена"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := h.source.Status()
	resp := response.OKWithData(map[string]any{
		"state":    st.State.String(),
		"degraded": st.Degraded,
		"members":  st.Members,
	})
	if st.State != reconciler.StateReady {
		resp.Status = response.StatusError
		resp.Error = "sync not ready"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}
