package models

// ContentFilter параметры выборки материалов, которые передаются в слой доступа к данным.
type ContentFilter struct {
	Kind      ContentKind     // Тип материала
	Statuses  []ContentStatus // Допустимые статусы, пустой список означает любые
	AuthorUID string          // Фильтр по автору, пустая строка означает любого
	Limit     int
	Offset    int
}

// AudienceFilter определяет получателей рассылки.
type AudienceFilter struct {
	PremiumOnly bool // Только пользователи с действующей платной подпиской
}
