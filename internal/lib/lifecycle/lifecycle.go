// Package lifecycle реализует таблицу допустимых переходов материала
// DRAFT → {SCHEDULED, PUBLISHED} → ARCHIVED.
//
// Статус материала меняется только через Apply: прямое присваивание поля Status
// в обход таблицы не допускается.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/finletter/internal/models"
)

var (
	// ErrInvalidTransition переход отсутствует в таблице.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrScheduleInPast время публикации не задано или уже прошло.
	ErrScheduleInPast = errors.New("scheduled time must be in the future")
)

var transitions = map[models.ContentStatus][]models.ContentStatus{
	models.ContentDraft: {
		models.ContentScheduled,
		models.ContentPublished,
		models.ContentArchived,
	},
	models.ContentScheduled: {
		models.ContentPublished,
		models.ContentDraft,
		models.ContentArchived,
	},
	models.ContentPublished: {
		models.ContentPublished,
		models.ContentArchived,
	},
	// Повторная публикация из архива только через черновик.
	models.ContentArchived: {
		models.ContentDraft,
	},
}

// CanTransition сообщает, разрешен ли переход from → to.
func CanTransition(from, to models.ContentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Apply переводит материал в статус to. При ошибке материал не меняется.
//
// Публикация проставляет PublishedAt, только если он еще не задан, поэтому
// повторная публикация идемпотентна. Для SCHEDULED поле ScheduledFor должно
// быть заполнено заранее и указывать в будущее; при выходе из SCHEDULED оно очищается.
func Apply(item *models.Content, to models.ContentStatus, now time.Time) error {
	const op = "lifecycle.Apply"
	if !CanTransition(item.Status, to) {
		return fmt.Errorf("%s: %s -> %s: %w", op, item.Status, to, ErrInvalidTransition)
	}

	switch to {
	case models.ContentScheduled:
		if item.ScheduledFor == nil || !item.ScheduledFor.After(now) {
			return fmt.Errorf("%s: %w", op, ErrScheduleInPast)
		}
	case models.ContentPublished:
		if item.PublishedAt == nil {
			t := now
			item.PublishedAt = &t
		}
		item.ScheduledFor = nil
	default:
		item.ScheduledFor = nil
	}

	if item.Status != to {
		item.UpdatedAt = now
	}
	item.Status = to
	return nil
}

// Schedule задает время публикации и переводит материал в SCHEDULED.
func Schedule(item *models.Content, at, now time.Time) error {
	prev := item.ScheduledFor
	item.ScheduledFor = &at
	if err := Apply(item, models.ContentScheduled, now); err != nil {
		item.ScheduledFor = prev
		return err
	}
	return nil
}

// Due сообщает, что запланированный материал пора публиковать.
func Due(item *models.Content, now time.Time) bool {
	return item.Status == models.ContentScheduled &&
		item.ScheduledFor != nil && !item.ScheduledFor.After(now)
}
