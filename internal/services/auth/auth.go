// Package auth отвечает за регистрацию, вход и выпуск токенов сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/finletter/internal/lib/jwt"
	"github.com/magabrotheeeer/finletter/internal/lib/password"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// SubscriptionRepository источник подписки для снимка сессии.
type SubscriptionRepository interface {
	GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error)
}

// AdminNotifier отправляет служебные письма администраторам.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, subject, html string) error
}

// Issued выпущенный токен вместе со снимком сессии.
type Issued struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   *models.Session `json:"session"`
}

// Service регистрирует пользователей и выпускает токены сессии.
type Service struct {
	log             *slog.Logger
	users           UserRepository
	subs            SubscriptionRepository
	maker           jwt.Maker
	notifier        AdminNotifier
	bootstrapAdmins map[string]struct{}
	now             func() time.Time
}

// NewService создает Service. notifier может быть nil.
func NewService(log *slog.Logger, users UserRepository, subs SubscriptionRepository, maker jwt.Maker,
	notifier AdminNotifier, bootstrapAdmins []string) *Service {
	admins := make(map[string]struct{}, len(bootstrapAdmins))
	for _, e := range bootstrapAdmins {
		admins[normalizeEmail(e)] = struct{}{}
	}
	return &Service{
		log:             log,
		users:           users,
		subs:            subs,
		maker:           maker,
		notifier:        notifier,
		bootstrapAdmins: admins,
		now:             time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает активного пользователя с ролью USER и возвращает его UID.
func (s *Service) Register(ctx context.Context, email, name, rawPassword string) (string, error) {
	const op = "auth.Register"
	email = normalizeEmail(email)

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	role := models.RoleUser
	if _, ok := s.bootstrapAdmins[email]; ok {
		role = models.RoleAdmin
	}

	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.notifier != nil {
		body := fmt.Sprintf("<p>New reader registered: <b>%s</b> (%s).</p>", html.EscapeString(email), role)
		if err := s.notifier.NotifyAdmins(ctx, "New registration", body); err != nil {
			s.log.Warn("failed to notify admins about registration", slog.String("uid", uid), sl.Err(err))
		}
	}
	return uid, nil
}

// Login проверяет пароль и выпускает токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Issued, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserInactive)
	}
	issued, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return issued, nil
}

// Refresh перечитывает пользователя и подписку и выпускает новый токен.
// Это единственный способ обновить снимок сессии.
func (s *Service) Refresh(ctx context.Context, session *models.Session) (*Issued, error) {
	const op = "auth.Refresh"
	if session == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	user, err := s.users.GetUser(ctx, session.UserUID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserInactive)
	}
	issued, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return issued, nil
}

// ValidateToken проверяет токен и возвращает снимок сессии.
func (s *Service) ValidateToken(token string) (*models.Session, error) {
	const op = "auth.ValidateToken"
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims.Session(), nil
}

func (s *Service) issue(ctx context.Context, user *models.User) (*Issued, error) {
	sub, err := s.subs.GetSubscriptionByUser(ctx, user.UUID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	session := models.NewSession(user, sub)
	token, err := s.maker.GenerateToken(session)
	if err != nil {
		return nil, err
	}
	return &Issued{
		Token:     token,
		ExpiresAt: s.now().Add(s.maker.TTL()),
		Session:   session,
	}, nil
}
