package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"

	"github.com/jmoiron/sqlx"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	query := `
		INSERT INTO booking.schedules (section_id, date, start_time, end_time, capacity, reserved, status)
		VALUES ($1, $2, $3, $4, $5, 0, 'open')
		RETURNING id, reserved, status, created_at, updated_at
	`
	return r.db.QueryRowContext(
		ctx,
		query,
		schedule.SectionID,
		schedule.Date.Format("2006-01-02"),
		schedule.StartTime,
		schedule.EndTime,
		schedule.Capacity,
	).Scan(&schedule.ID, &schedule.Reserved, &schedule.Status, &schedule.CreatedAt, &schedule.UpdatedAt)
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := `
		SELECT
			s.id, s.section_id, s.date, s.start_time, s.end_time,
			s.capacity, s.reserved, s.status, s.created_at, s.updated_at,
			sec.name as section_name
		FROM booking.schedules s
		LEFT JOIN booking.sections sec ON s.section_id = sec.id
		WHERE s.id = $1
	`

	schedule := &models.Schedule{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&schedule.ID, &schedule.SectionID, &schedule.Date, &schedule.StartTime,
		&schedule.EndTime, &schedule.Capacity, &schedule.Reserved, &schedule.Status,
		&schedule.CreatedAt, &schedule.UpdatedAt, &schedule.SectionName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return schedule, nil
}

func (r *scheduleRepository) GetBySectionAndRange(ctx context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error) {
	query := `
		SELECT
			s.id, s.section_id, s.date, s.start_time, s.end_time,
			s.capacity, s.reserved, s.status, s.created_at, s.updated_at,
			sec.name as section_name
		FROM booking.schedules s
		LEFT JOIN booking.sections sec ON s.section_id = sec.id
		WHERE s.section_id = $1 AND s.date BETWEEN $2 AND $3
		ORDER BY s.date ASC, s.start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sectionID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var schedule models.Schedule
		err := rows.Scan(
			&schedule.ID, &schedule.SectionID, &schedule.Date, &schedule.StartTime,
			&schedule.EndTime, &schedule.Capacity, &schedule.Reserved, &schedule.Status,
			&schedule.CreatedAt, &schedule.UpdatedAt, &schedule.SectionName,
		)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

func (r *scheduleRepository) Exists(ctx context.Context, sectionID int64, date time.Time, startTime string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM booking.schedules
			WHERE section_id = $1
			AND date = $2
			AND start_time = $3
		)
	`

	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		query,
		sectionID,
		date.Format("2006-01-02"),
		startTime,
	).Scan(&exists)

	return exists, err
}

// DeleteUnreserved чистит окно перед перегенерацией по шаблону.
// Прошедшие занятия и занятия с записями остаются как есть.
func (r *scheduleRepository) DeleteUnreserved(ctx context.Context, sectionID int64, windowStart, windowEnd, now time.Time) (int64, error) {
	query := `
		DELETE FROM booking.schedules
		WHERE section_id = $1
		AND date BETWEEN $2 AND $3
		AND (date + start_time) > $4
		AND reserved = 0
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		sectionID,
		windowStart.Format("2006-01-02"),
		windowEnd.Format("2006-01-02"),
		now,
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
