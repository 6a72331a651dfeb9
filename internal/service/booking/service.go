package booking_service

import (
	"context"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"
	"center-booking-service/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Записи ближе этого интервала друг к другу в один день не допускаются.
// Ровно 60 минут между началами - уже не пересечение.
const conflictWindow = time.Hour

type bookingService struct {
	recordRepo       repository.RecordRepository
	scheduleRepo     repository.ScheduleRepository
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	dispatcher       service.NotificationDispatcher
	logger           *zap.Logger
	now              func() time.Time
}

func NewBookingService(
	recordRepo repository.RecordRepository,
	scheduleRepo repository.ScheduleRepository,
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	dispatcher service.NotificationDispatcher,
	logger *zap.Logger,
) service.BookingService {
	return &bookingService{
		recordRepo:       recordRepo,
		scheduleRepo:     scheduleRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		dispatcher:       dispatcher,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *bookingService) CreateRecord(ctx context.Context, userID, subscriptionID, scheduleID int64) (*models.Record, error) {
	now := s.now()

	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, models.ErrScheduleNotFound
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription == nil || subscription.UserID != userID || !subscription.IsActive || subscription.IsFrozen {
		return nil, models.ErrNoValidSubscription
	}

	if !subscription.ActivatedByAdmin {
		return nil, models.ErrNotActivatedByAdmin
	}

	// Заморозка уже отсечена, так что общий предикат здесь означает
	// ровно проверку срока действия
	if !subscription.IsActiveAt(now) {
		return nil, models.ErrSubscriptionExpired
	}

	existing, err := s.recordRepo.GetActive(ctx, userID, scheduleID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateBooking
	}

	if err := s.checkTimeConflict(ctx, userID, subscriptionID, schedule); err != nil {
		return nil, err
	}

	if schedule.Reserved >= schedule.Capacity {
		return nil, models.ErrScheduleFull
	}

	record := &models.Record{
		UserID:         userID,
		ScheduleID:     scheduleID,
		SubscriptionID: subscriptionID,
	}

	// Вместимость и дубль перепроверяются внутри транзакции под блокировкой
	if err := s.recordRepo.CreateReserving(ctx, record); err != nil {
		return nil, err
	}

	s.notifyAsync(record.UserID, *schedule, s.dispatcher.NotifyBooked)

	return record, nil
}

// checkTimeConflict ищет у той же пары (пользователь, абонемент) неотмененную
// запись на тот же день с началом ближе часа. Сравниваются минуты от полуночи
// в пределах одной даты: занятия через полночь конфликтами не считаются.
func (s *bookingService) checkTimeConflict(ctx context.Context, userID, subscriptionID int64, schedule *models.Schedule) error {
	sameDay, err := s.recordRepo.GetActiveOnDate(ctx, userID, subscriptionID, schedule.Date)
	if err != nil {
		return err
	}

	target := schedule.StartMinutes()
	for _, other := range sameDay {
		diff := other.Schedule.StartMinutes() - target
		if diff < 0 {
			diff = -diff
		}
		if time.Duration(diff)*time.Minute < conflictWindow {
			return models.ErrTimeConflict
		}
	}

	return nil
}

func (s *bookingService) ConfirmAttendance(ctx context.Context, recordID, userID int64) (*models.Record, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.UserID != userID || record.IsCanceled {
		return nil, models.ErrRecordNotFound
	}

	if record.Attended {
		return nil, models.ErrAlreadyAttended
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, record.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, models.ErrScheduleNotFound
	}

	if s.now().Before(schedule.StartAt()) {
		return nil, models.ErrLessonNotStarted
	}

	// Условие attended = false в запросе делает повторное подтверждение
	// безопасным и при гонке двух вызовов
	if err := s.recordRepo.MarkAttended(ctx, recordID); err != nil {
		return nil, err
	}

	record.Attended = true
	return record, nil
}

func (s *bookingService) CancelRecord(ctx context.Context, recordID int64) error {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return models.ErrRecordNotFound
	}

	alreadyCanceled := record.IsCanceled

	if err := s.recordRepo.CancelReleasing(ctx, recordID); err != nil {
		return err
	}

	if !alreadyCanceled {
		schedule, err := s.scheduleRepo.GetByID(ctx, record.ScheduleID)
		if err == nil && schedule != nil {
			s.notifyAsync(record.UserID, *schedule, s.dispatcher.NotifyCanceled)
		}
	}

	return nil
}

// notifyAsync отправляет событие вне транзакции. Ошибки только логируются.
func (s *bookingService) notifyAsync(userID int64, schedule models.Schedule, notify func(service.BookingEvent)) {
	event := service.BookingEvent{
		EventID:    uuid.NewString(),
		Schedule:   schedule,
		OccurredAt: s.now(),
	}

	go func() {
		user, err := s.userRepo.GetByID(context.Background(), userID)
		if err != nil || user == nil {
			s.logger.Warn("notification skipped: user lookup failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			return
		}
		event.User = *user
		notify(event)
	}()
}
