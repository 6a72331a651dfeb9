package models

import (
	"strings"
	"time"
)

// Статус занятия выводится из (reserved, capacity) и пересчитывается
// при каждом изменении reserved.
type ScheduleStatus string

const (
	ScheduleOpen ScheduleStatus = "open"
	ScheduleFull ScheduleStatus = "full"
)

// Schedule - одно занятие секции с ограниченным числом мест
type Schedule struct {
	ID        int64          `db:"id" json:"id"`
	SectionID int64          `db:"section_id" json:"section_id"`
	Date      time.Time      `db:"date" json:"date"`
	StartTime string         `db:"start_time" json:"start_time"` // "15:30:00"
	EndTime   string         `db:"end_time" json:"end_time"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Reserved  int            `db:"reserved" json:"reserved"`
	Status    ScheduleStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	// Joined fields
	SectionName string `db:"section_name" json:"section_name,omitempty"`
}

// StatusOf пересчитывает статус по счетчику мест.
func StatusOf(reserved, capacity int) ScheduleStatus {
	if reserved < capacity {
		return ScheduleOpen
	}
	return ScheduleFull
}

// StartAt комбинирует дату занятия и время начала в один момент времени.
func (s *Schedule) StartAt() time.Time {
	return combineDateTime(s.Date, s.StartTime)
}

func (s *Schedule) EndAt() time.Time {
	return combineDateTime(s.Date, s.EndTime)
}

// StartClock возвращает время начала в виде "15:30".
func (s *Schedule) StartClock() string {
	return s.StartAt().Format("15:04")
}

// StartMinutes - время начала в минутах от полуночи, для проверки
// пересечений в пределах одного дня.
func (s *Schedule) StartMinutes() int {
	t := combineDateTime(s.Date, s.StartTime)
	return t.Hour()*60 + t.Minute()
}

func combineDateTime(date time.Time, clock string) time.Time {
	clock = extractTimeOnly(clock)

	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		// допускаем также формат без секунд
		t, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}

// extractTimeOnly нормализует время из БД.
// lib/pq отдает колонку TIME строкой вида "0000-01-01T15:30:00Z".
func extractTimeOnly(timeStr string) string {
	idx := strings.Index(timeStr, "T")
	if idx == -1 {
		return timeStr
	}

	result := timeStr[idx+1:]
	result = strings.TrimSuffix(result, "Z")
	return result
}
