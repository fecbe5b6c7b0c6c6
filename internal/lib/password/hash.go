// Package password реализует хеширование и проверку паролей пользователей через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength bcrypt учитывает только первые 72 байта пароля.
const MaxLength = 72

var (
	// ErrTooLong пароль длиннее MaxLength байт.
	ErrTooLong = errors.New("password is too long")
	// ErrMismatch пароль не соответствует хэшу.
	ErrMismatch = errors.New("password does not match")
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Несовпадение возвращается как ErrMismatch, поврежденный хэш как прочая ошибка.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
