package worker

import (
	"context"
	"time"

	"center-booking-service/internal/service"

	"go.uber.org/zap"
)

// ExpirySweepWorker периодически деактивирует просроченные абонементы.
// Это сверка кеша активности; решение при записи принимается синхронно.
type ExpirySweepWorker struct {
	subscriptionService service.SubscriptionService
	interval            time.Duration
	logger              *zap.Logger
}

func NewExpirySweepWorker(subscriptionService service.SubscriptionService, interval time.Duration, logger *zap.Logger) *ExpirySweepWorker {
	return &ExpirySweepWorker{
		subscriptionService: subscriptionService,
		interval:            interval,
		logger:              logger,
	}
}

func (w *ExpirySweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("expiry sweep worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry sweep worker stopped")
			return
		case <-ticker.C:
			if _, err := w.subscriptionService.SweepExpired(ctx); err != nil {
				w.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}
