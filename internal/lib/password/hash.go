// Package password хеширует и проверяет общий секрет администратора (bcrypt).
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// GetHash возвращает bcrypt-хеш секрета для конфига.
func GetHash(secret string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash проверяет секрет по хешу. Несовпадение и пустой хеш дают
// models.ErrUnauthorized.
func CompareHash(hash, secret string) error {
	const op = "password.CompareHash"
	if hash == "" {
		return fmt.Errorf("%s: admin secret is not configured: %w", op, models.ErrUnauthorized)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
