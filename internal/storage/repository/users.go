package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const userColumns = `uid, email, name, password_hash, role, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.UUID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Email сравнивается без учета регистра.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var newID string
	query := `INSERT INTO users (email, name, password_hash, role, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(user.Email), user.Name, user.PasswordHash, user.Role, user.IsActive,
	).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// ListUsers возвращает страницу пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users
			  ORDER BY created_at DESC, uid
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser применяет частичное изменение и возвращает обновленного пользователя.
func (s *Storage) UpdateUser(ctx context.Context, userUID string, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var role sql.NullString
	if patch.Role != nil {
		role = sql.NullString{String: string(*patch.Role), Valid: true}
	}
	var active sql.NullBool
	if patch.IsActive != nil {
		active = sql.NullBool{Bool: *patch.IsActive, Valid: true}
	}

	query := `UPDATE users
			  SET role = COALESCE($2, role),
			      is_active = COALESCE($3, is_active),
			      updated_at = NOW()
			  WHERE uid = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID, role, active))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// ListRecipients возвращает активных пользователей для рассылки.
// С PremiumOnly остаются редакторы, администраторы и владельцы действующей платной подписки.
func (s *Storage) ListRecipients(ctx context.Context, audience models.AudienceFilter) ([]models.Recipient, error) {
	const op = "storage.ListRecipients"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT u.uid, u.email, u.name
			  FROM users u
			  LEFT JOIN subscriptions s ON s.user_uid = u.uid
			  WHERE u.is_active
			    AND (NOT $1
			         OR u.role IN ('ADMIN', 'EDITOR')
			         OR (s.status = 'ACTIVE' AND s.plan IN ('PREMIUM', 'ENTERPRISE')))
			  ORDER BY u.created_at, u.uid`
	rows, err := s.DB.QueryContext(ctx, query, audience.PremiumOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Recipient
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.UserUID, &r.Email, &r.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
