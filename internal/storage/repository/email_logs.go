package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const emailLogColumns = `id, campaign_id, message_id, recipient, subject, status, error, created_at`

func scanEmailLog(row rowScanner) (*models.EmailLog, error) {
	l := &models.EmailLog{}
	if err := row.Scan(&l.ID, &l.CampaignID, &l.MessageID, &l.Recipient, &l.Subject,
		&l.Status, &l.Error, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

// AppendEmailLog добавляет строку в журнал отправки.
func (s *Storage) AppendEmailLog(ctx context.Context, entry models.EmailLog) (int, error) {
	const op = "storage.AppendEmailLog"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO email_logs (campaign_id, message_id, recipient, subject, status, error)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id int
	if err := s.DB.QueryRowContext(ctx, query,
		entry.CampaignID, entry.MessageID, entry.Recipient, entry.Subject, entry.Status, entry.Error,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// LatestEmailLog возвращает последнюю строку журнала по Message-ID.
// Статус письма определяется именно ею.
func (s *Storage) LatestEmailLog(ctx context.Context, messageID string) (*models.EmailLog, error) {
	const op = "storage.LatestEmailLog"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + emailLogColumns + ` FROM email_logs
			  WHERE message_id = $1
			  ORDER BY id DESC
			  LIMIT 1`
	l, err := scanEmailLog(s.DB.QueryRowContext(ctx, query, messageID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return l, nil
}

// ListEmailLogs возвращает журнал рассылки в порядке записи.
func (s *Storage) ListEmailLogs(ctx context.Context, campaignID string, limit, offset int) ([]*models.EmailLog, error) {
	const op = "storage.ListEmailLogs"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + emailLogColumns + ` FROM email_logs
			  WHERE campaign_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.EmailLog, 0, limit)
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CampaignStats считает письма рассылки по их текущему статусу.
func (s *Storage) CampaignStats(ctx context.Context, campaignID string) (map[models.EmailStatus]int, error) {
	const op = "storage.CampaignStats"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT status, COUNT(*) FROM (
			      SELECT DISTINCT ON (recipient) recipient, status
			      FROM email_logs
			      WHERE campaign_id = $1
			      ORDER BY recipient, id DESC
			  ) latest
			  GROUP BY status`
	rows, err := s.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	stats := make(map[models.EmailStatus]int)
	for rows.Next() {
		var st models.EmailStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats[st] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
