// Package auth выполняет вход сотрудника: проверяет общий пароль admin,
// назначает цвет по имени и выпускает JWT со снимком сотрудника.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"

	"github.com/BaoQuyyy/HuyGym/internal/lib/jwt"
	"github.com/BaoQuyyy/HuyGym/internal/lib/password"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// Palette — цвета сотрудников в журнале.
var Palette = []string{
	"#6c47ff", "#0ea868", "#e0722a", "#e03a6a",
	"#0891b2", "#7c3aed", "#059669", "#dc2626",
}

// Maker выпускает и проверяет токены.
type Maker interface {
	GenerateToken(actor models.Actor) (string, error)
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// LoginRecorder записывает вход в журнал.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, actor *models.Actor) error
}

// Service — вход сотрудников и проверка токенов.
type Service struct {
	adminHash string
	maker     Maker
	recorder  LoginRecorder
	log       *slog.Logger
}

// New создаёт сервис. adminHash — bcrypt-хеш общего пароля admin.
func New(adminHash string, maker Maker, recorder LoginRecorder, log *slog.Logger) *Service {
	return &Service{
		adminHash: adminHash,
		maker:     maker,
		recorder:  recorder,
		log:       log.With(slog.String("component", "auth")),
	}
}

// Login проверяет данные сотрудника и возвращает токен. Для роли admin
// требуется общий пароль. Вход записывается в журнал.
func (s *Service) Login(ctx context.Context, name, role, secret string) (string, models.Actor, error) {
	const op = "auth.Login"

	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.Actor{}, fmt.Errorf("%s: name required: %w", op, models.ErrValidation)
	}
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser:
	case models.RoleAdmin:
		if err := password.CompareHash(s.adminHash, secret); err != nil {
			s.log.Warn("admin login rejected", slog.String("name", name))
			return "", models.Actor{}, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return "", models.Actor{}, fmt.Errorf("%s: unknown role %q: %w", op, role, models.ErrValidation)
	}

	actor := models.Actor{Name: name, Role: role, Color: ColorFor(name)}
	token, err := s.maker.GenerateToken(actor)
	if err != nil {
		return "", models.Actor{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.recorder.RecordLogin(ctx, &actor); err != nil {
		s.log.Warn("failed to record login", sl.Err(err))
	}
	s.log.Info("staff logged in", sl.Actor(&actor))
	return token, actor, nil
}

// ValidateToken возвращает сотрудника из токена.
func (s *Service) ValidateToken(token string) (*models.Actor, error) {
	const op = "auth.ValidateToken"
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrUnauthorized, err)
	}
	return claims.Actor(), nil
}

// ColorFor выбирает цвет палитры по имени. Одно имя всегда даёт один цвет.
func ColorFor(name string) string {
	hash := 0
	for _, unit := range utf16.Encode([]rune(name)) {
		hash = (hash*31 + int(unit)) & 0xffff
	}
	return Palette[hash%len(Palette)]
}
