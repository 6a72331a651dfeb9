package subscription_service

import (
	"context"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"
	"center-booking-service/internal/service"

	"go.uber.org/zap"
)

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	logger           *zap.Logger
	now              func() time.Time
}

func NewSubscriptionService(subscriptionRepo repository.SubscriptionRepository, logger *zap.Logger) service.SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, userID int64, subType models.SubscriptionType) (*models.Subscription, error) {
	if !subType.Valid() {
		return nil, models.ErrInvalidInput
	}

	now := s.now()
	subscription := &models.Subscription{
		UserID:    userID,
		Type:      subType,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, subType.DurationDays()),
		IsActive:  true,
		// до подтверждения администратором записываться нельзя
		ActivatedByAdmin: false,
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *subscriptionService) ActivateByAdmin(ctx context.Context, subscriptionID int64) error {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return models.ErrSubscriptionNotFound
	}

	subscription.ActivatedByAdmin = true
	return s.subscriptionRepo.Update(ctx, subscription)
}

// Freeze останавливает отсчет срока. Оставшиеся дни запоминаются и
// возвращаются к сроку при разморозке.
func (s *subscriptionService) Freeze(ctx context.Context, subscriptionID int64, freezeDays int) error {
	if freezeDays <= 0 {
		return models.ErrInvalidInput
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return models.ErrSubscriptionNotFound
	}

	if subscription.IsFrozen {
		return models.ErrInvalidFreezeState
	}

	now := s.now()
	frozenUntil := now.AddDate(0, 0, freezeDays)
	remaining := subscription.DaysLeft(now)

	subscription.IsFrozen = true
	subscription.FrozenFrom = &now
	subscription.FrozenUntil = &frozenUntil
	subscription.RemainingDays = &remaining
	subscription.IsActive = false

	return s.subscriptionRepo.Update(ctx, subscription)
}

func (s *subscriptionService) Unfreeze(ctx context.Context, subscriptionID int64) error {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return models.ErrSubscriptionNotFound
	}

	if !subscription.IsFrozen {
		return models.ErrInvalidFreezeState
	}

	now := s.now()
	remaining := 0
	if subscription.RemainingDays != nil {
		remaining = *subscription.RemainingDays
	}

	subscription.EndDate = now.AddDate(0, 0, remaining)
	subscription.IsFrozen = false
	subscription.FrozenFrom = nil
	subscription.FrozenUntil = nil
	subscription.RemainingDays = nil
	subscription.IsActive = subscription.IsActiveAt(now)

	return s.subscriptionRepo.Update(ctx, subscription)
}

func (s *subscriptionService) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	return s.subscriptionRepo.GetActiveByUserID(ctx, userID)
}

func (s *subscriptionService) GetSubscriptionHistory(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	return s.subscriptionRepo.GetByUserID(ctx, userID)
}

func (s *subscriptionService) SweepExpired(ctx context.Context) (int64, error) {
	affected, err := s.subscriptionRepo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.logger.Info("expired subscriptions deactivated", zap.Int64("count", affected))
	}
	return affected, nil
}
