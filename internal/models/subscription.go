package models

import "time"

// Типы абонементов по длительности
type SubscriptionType string

const (
	SubscriptionMonth    SubscriptionType = "month"     // 30 дней
	SubscriptionHalfYear SubscriptionType = "half_year" // 180 дней
	SubscriptionYear     SubscriptionType = "year"      // 365 дней
)

// DurationDays возвращает длительность абонемента данного типа.
func (t SubscriptionType) DurationDays() int {
	switch t {
	case SubscriptionHalfYear:
		return 180
	case SubscriptionYear:
		return 365
	default:
		return 30
	}
}

func (t SubscriptionType) Valid() bool {
	switch t {
	case SubscriptionMonth, SubscriptionHalfYear, SubscriptionYear:
		return true
	}
	return false
}

type Subscription struct {
	ID               int64            `db:"id" json:"id"`
	UserID           int64            `db:"user_id" json:"user_id"`
	Type             SubscriptionType `db:"type" json:"type"`
	StartDate        time.Time        `db:"start_date" json:"start_date"`
	EndDate          time.Time        `db:"end_date" json:"end_date"`
	IsActive         bool             `db:"is_active" json:"is_active"`
	ActivatedByAdmin bool             `db:"activated_by_admin" json:"activated_by_admin"`
	IsFrozen         bool             `db:"is_frozen" json:"is_frozen"`
	FrozenFrom       *time.Time       `db:"frozen_from" json:"frozen_from,omitempty"`
	FrozenUntil      *time.Time       `db:"frozen_until" json:"frozen_until,omitempty"`
	RemainingDays    *int             `db:"remaining_days" json:"remaining_days,omitempty"` // заполняется только на время заморозки
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// IsActiveAt - единственный предикат "абонементом можно пользоваться".
// Его используют и проверка при записи, и фоновая деактивация,
// чтобы решения не расходились.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	return !s.IsFrozen && s.EndDate.After(now)
}

// DaysLeft возвращает число полных дней до конца абонемента.
func (s *Subscription) DaysLeft(now time.Time) int {
	if !s.EndDate.After(now) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
