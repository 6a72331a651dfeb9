package schedule_service

import (
	"context"
	"fmt"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"
	"center-booking-service/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	sectionRepo  repository.SectionRepository
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

func NewScheduleService(scheduleRepo repository.ScheduleRepository, sectionRepo repository.SectionRepository, logger *zap.Logger) service.ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		sectionRepo:  sectionRepo,
		validate:     validator.New(),
		logger:       logger,
		now:          time.Now,
	}
}

// Materialize разворачивает шаблон в занятия окна. Сначала из окна удаляются
// будущие занятия секции без записей, затем создаются занятия по шаблону.
// Занятия с записями и уже начавшиеся не удаляются и не дублируются,
// поэтому повторный прогон с тем же шаблоном ничего не меняет.
func (s *scheduleService) Materialize(ctx context.Context, sectionID int64, pattern models.WeeklyPattern, windowStart, windowEnd time.Time) (int, error) {
	if err := s.validatePattern(pattern); err != nil {
		return 0, err
	}

	if windowEnd.Before(windowStart) {
		return 0, fmt.Errorf("%w: window end before start", models.ErrInvalidInput)
	}

	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return 0, err
	}
	if section == nil {
		return 0, models.ErrSectionNotFound
	}

	now := s.now()

	deleted, err := s.scheduleRepo.DeleteUnreserved(ctx, sectionID, windowStart, windowEnd, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear window: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("stale schedules removed before materialization",
			zap.Int64("section_id", sectionID),
			zap.Int64("deleted", deleted))
	}

	// Индекс шаблона по дню недели
	byDay := make(map[int][]models.PatternInterval)
	for _, day := range pattern.Days {
		byDay[day.DayOfWeek] = append(byDay[day.DayOfWeek], day.Intervals...)
	}

	created := 0
	for date := dateOnly(windowStart); !date.After(dateOnly(windowEnd)); date = date.AddDate(0, 0, 1) {
		intervals, ok := byDay[isoWeekday(date)]
		if !ok {
			continue
		}

		for _, interval := range intervals {
			startTime := normalizeClock(interval.StartTime)
			endTime := normalizeClock(interval.EndTime)

			exists, err := s.scheduleRepo.Exists(ctx, sectionID, date, startTime)
			if err != nil {
				return created, fmt.Errorf("failed to check schedule existence: %w", err)
			}
			if exists {
				continue
			}

			capacity := interval.Capacity
			if capacity == 0 {
				capacity = models.DefaultCapacity
			}

			schedule := &models.Schedule{
				SectionID: sectionID,
				Date:      date,
				StartTime: startTime,
				EndTime:   endTime,
				Capacity:  capacity,
			}

			if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
				return created, fmt.Errorf("failed to create schedule: %w", err)
			}
			created++
		}
	}

	return created, nil
}

// validatePattern проверяет форму шаблона на границе сервиса,
// до любой работы с хранилищем.
func (s *scheduleService) validatePattern(pattern models.WeeklyPattern) error {
	if err := s.validate.Struct(pattern); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	for _, day := range pattern.Days {
		for _, interval := range day.Intervals {
			start, err := parseClock(interval.StartTime)
			if err != nil {
				return fmt.Errorf("%w: bad start time %q", models.ErrInvalidInput, interval.StartTime)
			}
			end, err := parseClock(interval.EndTime)
			if err != nil {
				return fmt.Errorf("%w: bad end time %q", models.ErrInvalidInput, interval.EndTime)
			}
			if !end.After(start) {
				return fmt.Errorf("%w: interval %s-%s is empty", models.ErrInvalidInput, interval.StartTime, interval.EndTime)
			}
		}
	}

	return nil
}

func (s *scheduleService) GetScheduleByID(ctx context.Context, id int64) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, models.ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *scheduleService) GetSectionSchedule(ctx context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error) {
	return s.scheduleRepo.GetBySectionAndRange(ctx, sectionID, start, end)
}

// isoWeekday: 1=понедельник ... 7=воскресенье
func isoWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseClock(clock string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", clock); err == nil {
		return t, nil
	}
	return time.Parse("15:04", clock)
}

func normalizeClock(clock string) string {
	t, err := parseClock(clock)
	if err != nil {
		return clock
	}
	return t.Format("15:04:05")
}
