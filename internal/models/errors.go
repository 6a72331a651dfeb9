package models

import "errors"

var (
	// Ошибки записи на занятие
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrNoValidSubscription = errors.New("no valid subscription")
	ErrNotActivatedByAdmin = errors.New("subscription is not activated by admin")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrDuplicateBooking    = errors.New("already recorded for this schedule")
	ErrTimeConflict        = errors.New("another record within one hour of this schedule")
	ErrScheduleFull        = errors.New("no free places for this schedule")

	// Ошибки посещаемости и отмены
	ErrRecordNotFound   = errors.New("record not found")
	ErrAlreadyAttended  = errors.New("attendance already confirmed")
	ErrLessonNotStarted = errors.New("lesson has not started yet")

	// Ошибки абонемента
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidFreezeState   = errors.New("invalid freeze state")

	// Прочее
	ErrUserNotFound     = errors.New("user not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	ErrInvalidInput     = errors.New("invalid input")
)
