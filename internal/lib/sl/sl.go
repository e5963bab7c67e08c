// Package sl содержит вспомогательные функции для структурированных полей slog.
package sl

import (
	"log/slog"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Err возвращает атрибут "error" с текстом ошибки. Для nil значение пустое.
//
//	log.Error("failed to persist members", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Actor возвращает группу "actor" с именем и ролью сотрудника.
func Actor(a *models.Actor) slog.Attr {
	if a == nil {
		return slog.Group("actor")
	}
	return slog.Group("actor", slog.String("name", a.Name), slog.String("role", a.Role))
}
