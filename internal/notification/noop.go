package notification

import (
	"center-booking-service/internal/service"

	"go.uber.org/zap"
)

// noopDispatcher используется, когда канал уведомлений не настроен.
type noopDispatcher struct {
	logger *zap.Logger
}

func NewNoopDispatcher(logger *zap.Logger) service.NotificationDispatcher {
	return &noopDispatcher{logger: logger}
}

func (d *noopDispatcher) NotifyBooked(event service.BookingEvent) {
	d.logger.Debug("booking event dropped", zap.String("event_id", event.EventID))
}

func (d *noopDispatcher) NotifyCanceled(event service.BookingEvent) {
	d.logger.Debug("cancellation event dropped", zap.String("event_id", event.EventID))
}

func (d *noopDispatcher) NotifyReminder(event service.BookingEvent) {
	d.logger.Debug("reminder event dropped", zap.String("event_id", event.EventID))
}
