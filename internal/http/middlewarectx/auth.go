// Package middlewarectx содержит HTTP middleware: проверку JWT с записью
// сотрудника в контекст, доступ только для admin и ограничение частоты.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/BaoQuyyy/HuyGym/internal/http/response"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ActorKey — ключ сотрудника в контексте.
const ActorKey Key = "actor"

// TokenValidator проверяет токен и возвращает сотрудника.
type TokenValidator interface {
	ValidateToken(token string) (*models.Actor, error)
}

// WithActor кладёт сотрудника в контекст.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFrom возвращает сотрудника из контекста или nil.
func ActorFrom(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(ActorKey).(*models.Actor)
	return actor
}

// JWTMiddleware проверяет заголовок Authorization: Bearer <token>.
// При успехе сотрудник из токена попадает в контекст, иначе ответ 401.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			actor, err := validator.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// AdminOnly пропускает только сотрудников с ролью admin.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFrom(r.Context())
			if !actor.IsAdmin() {
				log.Warn("admin role required",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Actor(actor),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(models.ErrForbidden.Error()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
