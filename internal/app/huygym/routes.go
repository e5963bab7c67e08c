package huygym

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/activity/logclear"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/activity/loglist"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/activity/logundo"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/activity/staff"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/auth/login"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/health"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/membercreate"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberexport"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberholiday"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberimport"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberlist"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberremove"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberupdate"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/members/memberupdateall"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/notifications"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/stats/statsmovement"
	"github.com/BaoQuyyy/HuyGym/internal/http/handlers/stats/statssummary"
	"github.com/BaoQuyyy/HuyGym/internal/http/middlewarectx"
	"github.com/BaoQuyyy/HuyGym/internal/notify"
	"github.com/BaoQuyyy/HuyGym/internal/reconciler"
	authservice "github.com/BaoQuyyy/HuyGym/internal/services/auth"
	gymservice "github.com/BaoQuyyy/HuyGym/internal/services/gym"
	statsservice "github.com/BaoQuyyy/HuyGym/internal/services/stats"
)

// Services — зависимости маршрутов.
type Services struct {
	Gym        *gymservice.Service
	Stats      *statsservice.Service
	Auth       *authservice.Service
	Hub        *notify.Hub
	Reconciler *reconciler.Reconciler
	Now        func() time.Time
}

// Limits — ограничение частоты запросов на клиента.
type Limits struct {
	RPS   float64
	Burst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, limits Limits) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", health.New(svc.Reconciler).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limits.RPS, limits.Burst))

			r.Get("/members", memberlist.New(logger, svc.Gym).ServeHTTP)
			r.Post("/members", membercreate.New(logger, svc.Gym).ServeHTTP)
			r.Put("/members/{id}", memberupdate.New(logger, svc.Gym).ServeHTTP)
			r.Delete("/members/{id}", memberremove.New(logger, svc.Gym).ServeHTTP)
			r.Post("/members/update-all", memberupdateall.New(logger, svc.Gym).ServeHTTP)
			r.Post("/members/holiday", memberholiday.New(logger, svc.Gym).ServeHTTP)
			r.Get("/members/export", memberexport.New(logger, svc.Gym, svc.Now).ServeHTTP)
			r.Post("/members/import", memberimport.New(logger, svc.Gym).ServeHTTP)

			r.Get("/log", loglist.New(logger, svc.Gym).ServeHTTP)
			r.Get("/stats", statssummary.New(logger, svc.Stats).ServeHTTP)
			r.Get("/stats/movement", statsmovement.New(logger, svc.Stats).ServeHTTP)
			r.Get("/notifications", notifications.New(logger, svc.Hub).ServeHTTP)

			// Только admin
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Post("/log/{id}/undo", logundo.New(logger, svc.Gym).ServeHTTP)
				r.Delete("/log", logclear.New(logger, svc.Gym).ServeHTTP)
				r.Get("/staff", staff.New(logger, svc.Stats).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
