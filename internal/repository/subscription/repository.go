package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"

	"github.com/jmoiron/sqlx"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO booking.subscriptions
		(user_id, type, start_date, end_date, is_active, activated_by_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(
		ctx,
		query,
		subscription.UserID,
		subscription.Type,
		subscription.StartDate,
		subscription.EndDate,
		subscription.IsActive,
		subscription.ActivatedByAdmin,
	).Scan(&subscription.ID, &subscription.CreatedAt, &subscription.UpdatedAt)
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id int64) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, type, start_date, end_date, is_active, activated_by_admin,
		       is_frozen, frozen_from, frozen_until, remaining_days, created_at, updated_at
		FROM booking.subscriptions
		WHERE id = $1
	`

	subscription := &models.Subscription{}
	err := r.db.GetContext(ctx, subscription, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, type, start_date, end_date, is_active, activated_by_admin,
		       is_frozen, frozen_from, frozen_until, remaining_days, created_at, updated_at
		FROM booking.subscriptions
		WHERE user_id = $1 AND is_active = true
		ORDER BY end_date DESC
		LIMIT 1
	`

	subscription := &models.Subscription{}
	err := r.db.GetContext(ctx, subscription, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	query := `
		SELECT id, user_id, type, start_date, end_date, is_active, activated_by_admin,
		       is_frozen, frozen_from, frozen_until, remaining_days, created_at, updated_at
		FROM booking.subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var subscriptions []*models.Subscription
	err := r.db.SelectContext(ctx, &subscriptions, query, userID)
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *models.Subscription) error {
	query := `
		UPDATE booking.subscriptions
		SET end_date = $1, is_active = $2, activated_by_admin = $3,
		    is_frozen = $4, frozen_from = $5, frozen_until = $6, remaining_days = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
		RETURNING updated_at
	`
	return r.db.QueryRowContext(
		ctx,
		query,
		subscription.EndDate,
		subscription.IsActive,
		subscription.ActivatedByAdmin,
		subscription.IsFrozen,
		subscription.FrozenFrom,
		subscription.FrozenUntil,
		subscription.RemainingDays,
		subscription.ID,
	).Scan(&subscription.UpdatedAt)
}

// DeactivateExpired - фоновая сверка, а не источник истины:
// тот же предикат активности проверяется синхронно при записи.
func (r *subscriptionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE booking.subscriptions
		SET is_active = false, updated_at = CURRENT_TIMESTAMP
		WHERE is_active = true AND is_frozen = false AND end_date < $1
	`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
