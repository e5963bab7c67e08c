// Package jwt выпускает и проверяет токены сессии сотрудника.
// Токен несёт снимок сотрудника: имя, роль и цвет для журнала.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// CustomClaims описывает данные сотрудника в токене.
type CustomClaims struct {
	Name                 string `json:"name"`
	Role                 string `json:"role"`
	Color                string `json:"color"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt и пр.
}

// Actor возвращает сотрудника из claims.
func (c *CustomClaims) Actor() *models.Actor {
	return &models.Actor{Name: c.Name, Role: c.Role, Color: c.Color}
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl с секретным ключом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// GenerateToken создаёт токен для сотрудника.
func (j *MakerImpl) GenerateToken(actor models.Actor) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := CustomClaims{
		Name:  actor.Name,
		Role:  actor.Role,
		Color: actor.Color,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
