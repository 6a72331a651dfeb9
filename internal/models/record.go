package models

import "time"

// Record - запись пользователя на занятие по конкретному абонементу.
// Не больше одной неотмененной записи на (user, schedule, subscription).
type Record struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ScheduleID     int64     `db:"schedule_id" json:"schedule_id"`
	SubscriptionID int64     `db:"subscription_id" json:"subscription_id"`
	Attended       bool      `db:"attended" json:"attended"`
	IsCanceled     bool      `db:"is_canceled" json:"is_canceled"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RecordWithSchedule нужен воркеру напоминаний и проверке пересечений.
type RecordWithSchedule struct {
	Record
	Schedule Schedule `json:"schedule"`
}
