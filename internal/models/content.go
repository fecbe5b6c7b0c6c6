package models

import "time"

// ContentKind тип авторского материала.
type ContentKind string

const (
	// KindNewsletter рассылка.
	KindNewsletter ContentKind = "newsletter"
	// KindAnalysis аналитический обзор.
	KindAnalysis ContentKind = "analysis"
	// KindSelection подборка акций.
	KindSelection ContentKind = "selection"
)

// Valid сообщает, входит ли тип в закрытый набор типов.
func (k ContentKind) Valid() bool {
	switch k {
	case KindNewsletter, KindAnalysis, KindSelection:
		return true
	}
	return false
}

// KindFromPath переводит сегмент URL (newsletters, analyses, selections) в тип материала.
func KindFromPath(segment string) (ContentKind, bool) {
	switch segment {
	case "newsletters":
		return KindNewsletter, true
	case "analyses":
		return KindAnalysis, true
	case "selections":
		return KindSelection, true
	}
	return "", false
}

// PathSegment обратное к KindFromPath.
func (k ContentKind) PathSegment() string {
	switch k {
	case KindNewsletter:
		return "newsletters"
	case KindAnalysis:
		return "analyses"
	case KindSelection:
		return "selections"
	}
	return ""
}

// ContentStatus стадия жизненного цикла материала.
type ContentStatus string

const (
	// ContentDraft черновик.
	ContentDraft ContentStatus = "DRAFT"
	// ContentScheduled запланирован к публикации.
	ContentScheduled ContentStatus = "SCHEDULED"
	// ContentPublished опубликован.
	ContentPublished ContentStatus = "PUBLISHED"
	// ContentArchived в архиве: скрыт от читателей, доступен редакторам.
	ContentArchived ContentStatus = "ARCHIVED"
)

// Valid сообщает, входит ли статус в закрытый набор статусов.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentDraft, ContentScheduled, ContentPublished, ContentArchived:
		return true
	}
	return false
}

// Content авторский материал: рассылка, обзор или подборка.
type Content struct {
	ID           int           `json:"id"`
	Kind         ContentKind   `json:"kind"`
	Title        string        `json:"title"`
	Summary      string        `json:"summary"`
	Body         string        `json:"body,omitempty"`
	Tags         []string      `json:"tags"`
	Status       ContentStatus `json:"status"`
	IsPremium    bool          `json:"is_premium"`
	AuthorUID    string        `json:"author_uid"`
	ScheduledFor *time.Time    `json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time    `json:"published_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DummyContent используется для приёма данных материала из JSON-запроса.
type DummyContent struct {
	Title     string   `json:"title" validate:"required,max=300"`
	Summary   string   `json:"summary" validate:"max=1000"`
	Body      string   `json:"body" validate:"required"`
	Tags      []string `json:"tags" validate:"omitempty,dive,required,max=50"`
	IsPremium bool     `json:"is_premium"`
}

// FeedItem представление материала для читателя. Для закрытого премиум-материала
// тело не передается, а Locked равен true.
type FeedItem struct {
	Content
	Locked bool `json:"locked"`
}
