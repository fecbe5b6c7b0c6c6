package models

// Session снимок личности и прав пользователя на момент выдачи токена.
// Данные не перечитываются на каждый запрос; обновить их можно только перевыпуском токена.
type Session struct {
	UserUID string             `json:"id"`
	Email   string             `json:"email"`
	Name    string             `json:"name"`
	Role    Role               `json:"role"`
	Plan    Plan               `json:"subscriptionPlan"`
	Status  SubscriptionStatus `json:"subscriptionStatus"`
}

// NewSession собирает снимок сессии из пользователя и его подписки.
// Пользователь без подписки получает план FREE в статусе INACTIVE.
func NewSession(u *User, sub *Subscription) *Session {
	s := &Session{
		UserUID: u.UUID,
		Email:   u.Email,
		Name:    u.Name,
		Role:    u.Role,
		Plan:    PlanFree,
		Status:  StatusInactive,
	}
	if sub != nil {
		s.Plan = sub.Plan
		s.Status = sub.Status
	}
	return s
}
