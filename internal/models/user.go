// Package models содержит доменную модель пользователя системы,
// роли, подписки, сессии, материалы и журнал email-рассылок.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Role роль пользователя. Допустимы только значения из набора констант ниже.
type Role string

const (
	// RoleUser читатель.
	RoleUser Role = "USER"
	// RoleEditor автор и редактор материалов.
	RoleEditor Role = "EDITOR"
	// RoleAdmin администратор.
	RoleAdmin Role = "ADMIN"
)

// Valid сообщает, входит ли роль в закрытый набор ролей.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    `json:"uid"`        // Уникальный идентификатор пользователя
	Email        string    `json:"email"`      // Электронная почта (уникальная)
	Name         string    `json:"name"`       // Отображаемое имя, может быть пустым
	PasswordHash string    `json:"-"`          // Хэш пароля пользователя
	Role         Role      `json:"role"`       // Роль пользователя
	IsActive     bool      `json:"is_active"`  // Заблокированный пользователь не может войти
	CreatedAt    time.Time `json:"created_at"` // Дата регистрации
	UpdatedAt    time.Time `json:"updated_at"` // Дата последнего изменения
}

// UserPatch частичное изменение пользователя администратором.
// nil означает, что поле не меняется.
type UserPatch struct {
	Role     *Role
	IsActive *bool
}

// Recipient адресат рассылки.
type Recipient struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}
