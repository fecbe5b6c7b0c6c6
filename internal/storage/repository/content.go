package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const contentColumns = `id, kind, title, summary, body, tags, status, is_premium, COALESCE(author_uid::text, ''),
	scheduled_for, published_at, created_at, updated_at`

func (s *Storage) scanContent(row rowScanner) (*models.Content, error) {
	c := &models.Content{}
	var scheduledFor, publishedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.Kind, &c.Title, &c.Summary, &c.Body, s.types.SQLScanner(&c.Tags),
		&c.Status, &c.IsPremium, &c.AuthorUID, &scheduledFor, &publishedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ScheduledFor = timePtr(scheduledFor)
	c.PublishedAt = timePtr(publishedAt)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}

func nullUUID(uid string) sql.NullString {
	return sql.NullString{String: uid, Valid: uid != ""}
}

func tagsArg(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// CreateContent сохраняет новый материал и возвращает его ID.
func (s *Storage) CreateContent(ctx context.Context, c models.Content) (int, error) {
	const op = "storage.CreateContent"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO contents (kind, title, summary, body, tags, status, is_premium, author_uid,
			      scheduled_for, published_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		c.Kind, c.Title, c.Summary, c.Body, tagsArg(c.Tags), c.Status, c.IsPremium, nullUUID(c.AuthorUID),
		nullTime(c.ScheduledFor), nullTime(c.PublishedAt),
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return newID, nil
}

// GetContent возвращает материал по ID.
func (s *Storage) GetContent(ctx context.Context, id int) (*models.Content, error) {
	const op = "storage.GetContent"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`
	c, err := s.scanContent(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return c, nil
}

// UpdateContentText меняет текстовые поля материала. Статус и даты не трогает.
func (s *Storage) UpdateContentText(ctx context.Context, c models.Content) (*models.Content, error) {
	const op = "storage.UpdateContentText"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE contents
			  SET title = $2, summary = $3, body = $4, tags = $5, is_premium = $6, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + contentColumns
	updated, err := s.scanContent(s.DB.QueryRowContext(ctx, query,
		c.ID, c.Title, c.Summary, c.Body, tagsArg(c.Tags), c.IsPremium,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return updated, nil
}

// SetContentStatus записывает статус и даты материала, только если в базе
// он все еще в статусе from. Иначе возвращает models.ErrStatusChanged.
func (s *Storage) SetContentStatus(ctx context.Context, c models.Content, from models.ContentStatus) (*models.Content, error) {
	const op = "storage.SetContentStatus"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE contents
			  SET status = $2, scheduled_for = $3, published_at = $4, updated_at = NOW()
			  WHERE id = $1 AND status = $5
			  RETURNING ` + contentColumns
	updated, err := s.scanContent(s.DB.QueryRowContext(ctx, query,
		c.ID, c.Status, nullTime(c.ScheduledFor), nullTime(c.PublishedAt), from,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM contents WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil, fmt.Errorf("%s: expected %s: %w", op, from, models.ErrStatusChanged)
}

// DeleteContent удаляет материал. Отсутствующий ID дает models.ErrNotFound.
func (s *Storage) DeleteContent(ctx context.Context, id int) error {
	const op = "storage.DeleteContent"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// ListContent возвращает материалы по фильтру: опубликованные по дате публикации,
// остальные по дате изменения, новые первыми.
func (s *Storage) ListContent(ctx context.Context, filter models.ContentFilter) ([]*models.Content, error) {
	const op = "storage.ListContent"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	where := []string{"kind = $1"}
	args := []any{filter.Kind}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		where = append(where, "status = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.AuthorUID != "" {
		args = append(args, filter.AuthorUID)
		where = append(where, "author_uid = $"+strconv.Itoa(len(args)))
	}
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + contentColumns + ` FROM contents
			  WHERE ` + strings.Join(where, " AND ") + `
			  ORDER BY COALESCE(published_at, updated_at) DESC, id DESC
			  LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Content, 0, filter.Limit)
	for rows.Next() {
		c, err := s.scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDueContent возвращает запланированные материалы, время публикации которых наступило.
func (s *Storage) ListDueContent(ctx context.Context, now time.Time, limit int) ([]*models.Content, error) {
	const op = "storage.ListDueContent"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + contentColumns + ` FROM contents
			  WHERE status = 'SCHEDULED' AND scheduled_for <= $1
			  ORDER BY scheduled_for, id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Content
	for rows.Next() {
		c, err := s.scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
