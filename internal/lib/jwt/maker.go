// Package jwt реализует выпуск и разбор подписанных токенов сессии.
//
// Токен содержит снимок сессии: идентификатор, email, имя, роль, план и статус подписки
// на момент выпуска. Отозвать токен нельзя, он перестает действовать по истечении TTL
// или заменяется перевыпуском.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/finletter/internal/models"
)

// Maker описывает интерфейс для генерации и парсинга токенов сессии.
type Maker interface {
	// GenerateToken подписывает снимок сессии.
	GenerateToken(session *models.Session) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
	// TTL время жизни выпускаемых токенов.
	TTL() time.Duration
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// TTL возвращает время жизни токена.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
