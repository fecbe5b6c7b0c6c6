package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const issuer = "finletter"

// CustomClaims описывает данные сессии, хранящиеся в JWT.
type CustomClaims struct {
	Email                string                    `json:"email"`
	Name                 string                    `json:"name,omitempty"`
	Role                 models.Role               `json:"role"`
	Plan                 models.Plan               `json:"plan"`
	Status               models.SubscriptionStatus `json:"status"`
	jwt.RegisteredClaims                           // Subject хранит UID пользователя
}

// Session собирает снимок сессии из claims.
func (c *CustomClaims) Session() *models.Session {
	return &models.Session{
		UserUID: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Role:    c.Role,
		Plan:    c.Plan,
		Status:  c.Status,
	}
}

// GenerateToken создает JWT токен со снимком сессии, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(session *models.Session) (string, error) {
	const op = "jwt.GenerateToken"
	if session == nil || session.UserUID == "" {
		return "", fmt.Errorf("%s: empty session", op)
	}
	now := j.now()
	claims := CustomClaims{
		Email:  session.Email,
		Name:   session.Name,
		Role:   session.Role,
		Plan:   session.Plan,
		Status: session.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.UserUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, errors.New("unknown role in token"))
	}
	return claims, nil
}
