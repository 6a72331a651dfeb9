package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Число повторов транзакции при конфликте сериализации
const maxRetries = 3

type recordRepository struct {
	db *sqlx.DB
}

func NewRecordRepository(db *sqlx.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

// CreateReserving создает запись и занимает место в одной транзакции.
// Строка занятия блокируется через SELECT ... FOR UPDATE, поэтому проверка
// вместимости и инкремент reserved сериализованы на уровне занятия.
// Разные занятия друг друга не блокируют.
func (r *recordRepository) CreateReserving(ctx context.Context, rec *models.Record) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = r.tryCreateReserving(ctx, rec)
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
}

func (r *recordRepository) tryCreateReserving(ctx context.Context, rec *models.Record) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Блокируем строку занятия
	var reserved, capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT reserved, capacity FROM booking.schedules WHERE id = $1 FOR UPDATE`,
		rec.ScheduleID,
	).Scan(&reserved, &capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to lock schedule: %w", err)
	}

	// Повторная проверка дубля под блокировкой
	var duplicate bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM booking.records
			WHERE user_id = $1 AND schedule_id = $2 AND subscription_id = $3
			AND is_canceled = false
		)`,
		rec.UserID, rec.ScheduleID, rec.SubscriptionID,
	).Scan(&duplicate)
	if err != nil {
		return fmt.Errorf("failed to check duplicate record: %w", err)
	}
	if duplicate {
		return models.ErrDuplicateBooking
	}

	if reserved >= capacity {
		return models.ErrScheduleFull
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO booking.records (user_id, schedule_id, subscription_id)
		VALUES ($1, $2, $3)
		RETURNING id, attended, is_canceled, created_at, updated_at`,
		rec.UserID, rec.ScheduleID, rec.SubscriptionID,
	).Scan(&rec.ID, &rec.Attended, &rec.IsCanceled, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	// Инкремент счетчика и пересчет статуса в том же запросе
	_, err = tx.ExecContext(ctx, `
		UPDATE booking.schedules
		SET reserved = reserved + 1,
		    status = CASE WHEN reserved + 1 < capacity THEN 'open' ELSE 'full' END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		rec.ScheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment reserved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CancelReleasing отменяет запись. Повторная отмена - no-op: флаг is_canceled
// проверяется под той же блокировкой, поэтому место освобождается ровно один раз.
func (r *recordRepository) CancelReleasing(ctx context.Context, recordID int64) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = r.tryCancelReleasing(ctx, recordID)
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
}

func (r *recordRepository) tryCancelReleasing(ctx context.Context, recordID int64) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isCanceled bool
	var scheduleID int64
	err = tx.QueryRowContext(ctx,
		`SELECT is_canceled, schedule_id FROM booking.records WHERE id = $1 FOR UPDATE`,
		recordID,
	).Scan(&isCanceled, &scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrRecordNotFound
		}
		return fmt.Errorf("failed to lock record: %w", err)
	}

	if isCanceled {
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`SELECT 1 FROM booking.schedules WHERE id = $1 FOR UPDATE`,
		scheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to lock schedule: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE booking.records SET is_canceled = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel record: %w", err)
	}

	// Счетчик не уходит ниже нуля
	_, err = tx.ExecContext(ctx, `
		UPDATE booking.schedules
		SET reserved = GREATEST(reserved - 1, 0),
		    status = CASE WHEN GREATEST(reserved - 1, 0) < capacity THEN 'open' ELSE 'full' END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		scheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement reserved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *recordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `
		SELECT id, user_id, schedule_id, subscription_id, attended, is_canceled, created_at, updated_at
		FROM booking.records
		WHERE id = $1
	`

	rec := &models.Record{}
	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *recordRepository) GetActive(ctx context.Context, userID, scheduleID, subscriptionID int64) (*models.Record, error) {
	query := `
		SELECT id, user_id, schedule_id, subscription_id, attended, is_canceled, created_at, updated_at
		FROM booking.records
		WHERE user_id = $1 AND schedule_id = $2 AND subscription_id = $3 AND is_canceled = false
	`

	rec := &models.Record{}
	err := r.db.GetContext(ctx, rec, query, userID, scheduleID, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *recordRepository) GetActiveOnDate(ctx context.Context, userID, subscriptionID int64, date time.Time) ([]models.RecordWithSchedule, error) {
	query := `
		SELECT
			rec.id, rec.user_id, rec.schedule_id, rec.subscription_id,
			rec.attended, rec.is_canceled, rec.created_at, rec.updated_at,
			s.id, s.section_id, s.date, s.start_time, s.end_time,
			s.capacity, s.reserved, s.status, s.created_at, s.updated_at
		FROM booking.records rec
		JOIN booking.schedules s ON rec.schedule_id = s.id
		WHERE rec.user_id = $1 AND rec.subscription_id = $2
		AND rec.is_canceled = false
		AND s.date = $3
		ORDER BY s.start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, subscriptionID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecordsWithSchedule(rows)
}

func (r *recordRepository) MarkAttended(ctx context.Context, recordID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE booking.records SET attended = true, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND attended = false`,
		recordID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrAlreadyAttended
	}
	return nil
}

func (r *recordRepository) GetStartingBetween(ctx context.Context, from, to time.Time) ([]models.RecordWithSchedule, error) {
	query := `
		SELECT
			rec.id, rec.user_id, rec.schedule_id, rec.subscription_id,
			rec.attended, rec.is_canceled, rec.created_at, rec.updated_at,
			s.id, s.section_id, s.date, s.start_time, s.end_time,
			s.capacity, s.reserved, s.status, s.created_at, s.updated_at
		FROM booking.records rec
		JOIN booking.schedules s ON rec.schedule_id = s.id
		WHERE rec.is_canceled = false
		AND (s.date + s.start_time) BETWEEN $1 AND $2
		ORDER BY s.date ASC, s.start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecordsWithSchedule(rows)
}

func scanRecordsWithSchedule(rows *sql.Rows) ([]models.RecordWithSchedule, error) {
	var result []models.RecordWithSchedule
	for rows.Next() {
		var rs models.RecordWithSchedule
		err := rows.Scan(
			&rs.ID, &rs.UserID, &rs.ScheduleID, &rs.SubscriptionID,
			&rs.Attended, &rs.IsCanceled, &rs.CreatedAt, &rs.UpdatedAt,
			&rs.Schedule.ID, &rs.Schedule.SectionID, &rs.Schedule.Date,
			&rs.Schedule.StartTime, &rs.Schedule.EndTime,
			&rs.Schedule.Capacity, &rs.Schedule.Reserved, &rs.Schedule.Status,
			&rs.Schedule.CreatedAt, &rs.Schedule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, rs)
	}

	return result, rows.Err()
}

// isRetryable - конфликт сериализации или дедлок, транзакцию можно повторить
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
