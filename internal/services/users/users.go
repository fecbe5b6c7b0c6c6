// Package users управление пользователями администратором.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/finletter/internal/models"
)

// ErrSelfDemotion администратор не может снять с себя роль или заблокировать себя.
var ErrSelfDemotion = errors.New("admin cannot demote or deactivate themselves")

// ErrInvalidRole роль вне закрытого набора.
var ErrInvalidRole = errors.New("invalid role")

// Repository хранилище пользователей.
type Repository interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, userUID string, patch models.UserPatch) (*models.User, error)
}

// Service операции администратора над пользователями.
type Service struct {
	log  *slog.Logger
	repo Repository
}

// NewService создает Service.
func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo}
}

// List страница пользователей.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "users.List"
	list, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Update меняет роль и признак активности. Изменения вступают в силу для
// пользователя после перевыпуска его токена.
func (s *Service) Update(ctx context.Context, actor *models.Session, userUID string,
	patch models.UserPatch) (*models.User, error) {
	const op = "users.Update"
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, fmt.Errorf("%s: %q: %w", op, *patch.Role, ErrInvalidRole)
	}
	if actor != nil && actor.UserUID == userUID {
		if (patch.Role != nil && *patch.Role != models.RoleAdmin) || (patch.IsActive != nil && !*patch.IsActive) {
			return nil, fmt.Errorf("%s: %w", op, ErrSelfDemotion)
		}
	}

	user, err := s.repo.UpdateUser(ctx, userUID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated",
		slog.String("user_uid", user.UUID),
		slog.String("role", string(user.Role)),
		slog.Bool("is_active", user.IsActive),
	)
	return user, nil
}
