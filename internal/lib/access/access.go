// Package access содержит предикаты авторизации, которые принимают решение
// по снимку сессии. Функции не возвращают ошибок и не паникуют: при nil-сессии
// любой предикат возвращает false.
package access

import "github.com/magabrotheeeer/finletter/internal/models"

// Predicate проверка возможности по снимку сессии.
type Predicate func(s *models.Session) bool

// IsAdmin сообщает, что сессия принадлежит администратору.
func IsAdmin(s *models.Session) bool {
	return s != nil && s.Role == models.RoleAdmin
}

// IsEditor сообщает, что сессия принадлежит редактору.
func IsEditor(s *models.Session) bool {
	return s != nil && s.Role == models.RoleEditor
}

// HasActiveSubscription сообщает, что подписка в снимке активна.
func HasActiveSubscription(s *models.Session) bool {
	return s != nil && s.Status == models.StatusActive
}

// HasPremiumAccess администраторы и редакторы имеют доступ всегда,
// остальные только при активной платной подписке.
func HasPremiumAccess(s *models.Session) bool {
	if IsAdmin(s) || IsEditor(s) {
		return true
	}
	return HasActiveSubscription(s) && s.Plan.Paid()
}

// CanManageContent создание, редактирование и смена статуса материалов.
func CanManageContent(s *models.Session) bool {
	return IsAdmin(s) || IsEditor(s)
}

// CanManageUsers управление пользователями и рассылками.
func CanManageUsers(s *models.Session) bool {
	return IsAdmin(s)
}

// CanViewContent редакторы видят материал в любом статусе, читатели только
// опубликованный, а премиум-материал при наличии доступа.
func CanViewContent(s *models.Session, item *models.Content) bool {
	if item == nil {
		return false
	}
	if CanManageContent(s) {
		return true
	}
	if s == nil || item.Status != models.ContentPublished {
		return false
	}
	return !item.IsPremium || HasPremiumAccess(s)
}
