package worker

import (
	"context"
	"time"

	"center-booking-service/internal/repository"
	"center-booking-service/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderWorker напоминает о занятиях, начинающихся в ближайшие часы.
// Только читает записи и занятия, счетчики мест не трогает. Доставка
// at-least-once: после рестарта процесса напоминание может уйти повторно.
type ReminderWorker struct {
	recordRepo repository.RecordRepository
	userRepo   repository.UserRepository
	dispatcher service.NotificationDispatcher
	interval   time.Duration
	horizon    time.Duration
	logger     *zap.Logger
	now        func() time.Time

	// уже отправленные в этом процессе, recordID -> начало занятия
	sent map[int64]time.Time
}

func NewReminderWorker(
	recordRepo repository.RecordRepository,
	userRepo repository.UserRepository,
	dispatcher service.NotificationDispatcher,
	interval, horizon time.Duration,
	logger *zap.Logger,
) *ReminderWorker {
	return &ReminderWorker{
		recordRepo: recordRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
		interval:   interval,
		horizon:    horizon,
		logger:     logger,
		now:        time.Now,
		sent:       make(map[int64]time.Time),
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("horizon", w.horizon))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			w.dispatchReminders(ctx)
		}
	}
}

func (w *ReminderWorker) dispatchReminders(ctx context.Context) {
	now := w.now()

	upcoming, err := w.recordRepo.GetStartingBetween(ctx, now, now.Add(w.horizon))
	if err != nil {
		w.logger.Error("failed to load upcoming records", zap.Error(err))
		return
	}

	for _, rec := range upcoming {
		if _, ok := w.sent[rec.ID]; ok {
			continue
		}

		user, err := w.userRepo.GetByID(ctx, rec.UserID)
		if err != nil || user == nil {
			w.logger.Warn("reminder skipped: user lookup failed",
				zap.Int64("record_id", rec.ID),
				zap.Int64("user_id", rec.UserID),
				zap.Error(err))
			continue
		}

		w.dispatcher.NotifyReminder(service.BookingEvent{
			EventID:    uuid.NewString(),
			User:       *user,
			Schedule:   rec.Schedule,
			OccurredAt: now,
		})
		w.sent[rec.ID] = rec.Schedule.StartAt()
	}

	w.prune(now)
}

// prune выбрасывает из памяти напоминания об уже начавшихся занятиях
func (w *ReminderWorker) prune(now time.Time) {
	for id, startAt := range w.sent {
		if startAt.Before(now) {
			delete(w.sent, id)
		}
	}
}
