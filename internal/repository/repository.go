package repository

import (
	"context"
	"time"

	"center-booking-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type SectionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Section, error)
	GetByCenter(ctx context.Context, centerID int64) ([]models.Section, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id int64) (*models.Subscription, error)
	GetActiveByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) error

	// DeactivateExpired снимает is_active у всех незамороженных абонементов
	// с end_date в прошлом. Возвращает число затронутых строк.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, id int64) (*models.Schedule, error)
	GetBySectionAndRange(ctx context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error)
	Exists(ctx context.Context, sectionID int64, date time.Time, startTime string) (bool, error)

	// DeleteUnreserved удаляет будущие занятия секции в окне, на которые
	// никто не записан. Уже начавшиеся и занятые занятия не трогаем.
	DeleteUnreserved(ctx context.Context, sectionID int64, windowStart, windowEnd, now time.Time) (int64, error)
}

type RecordRepository interface {
	// CreateReserving атомарно создает запись и увеличивает счетчик мест
	// занятия под блокировкой строки. Возвращает models.ErrScheduleFull,
	// models.ErrDuplicateBooking или models.ErrConcurrentUpdate.
	CreateReserving(ctx context.Context, record *models.Record) error

	// CancelReleasing идемпотентно отменяет запись, освобождая место
	// не более одного раза.
	CancelReleasing(ctx context.Context, recordID int64) error

	GetByID(ctx context.Context, id int64) (*models.Record, error)
	GetActive(ctx context.Context, userID, scheduleID, subscriptionID int64) (*models.Record, error)
	GetActiveOnDate(ctx context.Context, userID, subscriptionID int64, date time.Time) ([]models.RecordWithSchedule, error)
	MarkAttended(ctx context.Context, recordID int64) error

	// GetStartingBetween - неотмененные записи на занятия, начинающиеся
	// в интервале. Только чтение, для воркера напоминаний.
	GetStartingBetween(ctx context.Context, from, to time.Time) ([]models.RecordWithSchedule, error)
}
