package service

import (
	"context"
	"time"

	"center-booking-service/internal/models"
)

type BookingService interface {
	// CreateRecord записывает пользователя на занятие по абонементу.
	// Проверки идут по порядку, возвращается первая неудавшаяся.
	CreateRecord(ctx context.Context, userID, subscriptionID, scheduleID int64) (*models.Record, error)

	// ConfirmAttendance отмечает посещение. Работает только после начала
	// занятия и не более одного раза.
	ConfirmAttendance(ctx context.Context, recordID, userID int64) (*models.Record, error)

	// CancelRecord отменяет запись и освобождает место. Повторная отмена
	// безопасна и не считается ошибкой.
	CancelRecord(ctx context.Context, recordID int64) error
}

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, userID int64, subType models.SubscriptionType) (*models.Subscription, error)
	ActivateByAdmin(ctx context.Context, subscriptionID int64) error
	Freeze(ctx context.Context, subscriptionID int64, freezeDays int) error
	Unfreeze(ctx context.Context, subscriptionID int64) error
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	GetSubscriptionHistory(ctx context.Context, userID int64) ([]*models.Subscription, error)

	// SweepExpired деактивирует просроченные абонементы. Фоновая сверка;
	// при записи срок проверяется синхронно тем же предикатом.
	SweepExpired(ctx context.Context) (int64, error)
}

type ScheduleService interface {
	// Materialize разворачивает недельный шаблон секции в конкретные занятия
	// окна [windowStart, windowEnd]. Повторный вызов с тем же шаблоном и
	// окном дает тот же набор занятий.
	Materialize(ctx context.Context, sectionID int64, pattern models.WeeklyPattern, windowStart, windowEnd time.Time) (int, error)

	GetScheduleByID(ctx context.Context, id int64) (*models.Schedule, error)
	GetSectionSchedule(ctx context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error)
}

// BookingEvent - событие для внешнего канала уведомлений
type BookingEvent struct {
	EventID    string          `json:"event_id"`
	User       models.User     `json:"user"`
	Schedule   models.Schedule `json:"schedule"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NotificationDispatcher - внешний коллаборатор. Вызывается вне транзакции,
// fire-and-forget: сбой доставки не откатывает запись.
type NotificationDispatcher interface {
	NotifyBooked(event BookingEvent)
	NotifyCanceled(event BookingEvent)
	NotifyReminder(event BookingEvent)
}
