package booking_service

import (
	"context"
	"sync"
	"time"

	"center-booking-service/internal/models"
	"center-booking-service/internal/service"
)

// fakeStore - общее in-memory хранилище для фейковых репозиториев.
// Мьютекс в CreateReserving/CancelReleasing играет роль блокировки строки.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*models.User
	subs      map[int64]*models.Subscription
	schedules map[int64]*models.Schedule
	records   map[int64]*models.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		users:     make(map[int64]*models.User),
		subs:      make(map[int64]*models.Subscription),
		schedules: make(map[int64]*models.Schedule),
		records:   make(map[int64]*models.Record),
	}
}

// id выдает следующий идентификатор; вызывать под блокировкой
func (s *fakeStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *fakeStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	s.users[u.ID] = &u
	return &u
}

func (s *fakeStore) addSubscription(sub models.Subscription) *models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id()
	s.subs[sub.ID] = &sub
	return &sub
}

func (s *fakeStore) addSchedule(sched models.Schedule) *models.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched.ID = s.id()
	sched.Status = models.StatusOf(sched.Reserved, sched.Capacity)
	s.schedules[sched.ID] = &sched
	return &sched
}

func (s *fakeStore) schedule(id int64) models.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.schedules[id]
}

type fakeRecordRepo struct{ store *fakeStore }

func (r *fakeRecordRepo) CreateReserving(_ context.Context, rec *models.Record) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, ok := s.schedules[rec.ScheduleID]
	if !ok {
		return models.ErrScheduleNotFound
	}

	for _, other := range s.records {
		if other.UserID == rec.UserID && other.ScheduleID == rec.ScheduleID &&
			other.SubscriptionID == rec.SubscriptionID && !other.IsCanceled {
			return models.ErrDuplicateBooking
		}
	}

	if sched.Reserved >= sched.Capacity {
		return models.ErrScheduleFull
	}

	rec.ID = s.id()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	stored := *rec
	s.records[rec.ID] = &stored

	sched.Reserved++
	sched.Status = models.StatusOf(sched.Reserved, sched.Capacity)
	return nil
}

func (r *fakeRecordRepo) CancelReleasing(_ context.Context, recordID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok {
		return models.ErrRecordNotFound
	}
	if rec.IsCanceled {
		return nil
	}

	rec.IsCanceled = true
	if sched, ok := s.schedules[rec.ScheduleID]; ok {
		if sched.Reserved > 0 {
			sched.Reserved--
		}
		sched.Status = models.StatusOf(sched.Reserved, sched.Capacity)
	}
	return nil
}

func (r *fakeRecordRepo) GetByID(_ context.Context, id int64) (*models.Record, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeRecordRepo) GetActive(_ context.Context, userID, scheduleID, subscriptionID int64) (*models.Record, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.UserID == userID && rec.ScheduleID == scheduleID &&
			rec.SubscriptionID == subscriptionID && !rec.IsCanceled {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRecordRepo) GetActiveOnDate(_ context.Context, userID, subscriptionID int64, date time.Time) ([]models.RecordWithSchedule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.RecordWithSchedule
	for _, rec := range s.records {
		if rec.UserID != userID || rec.SubscriptionID != subscriptionID || rec.IsCanceled {
			continue
		}
		sched, ok := s.schedules[rec.ScheduleID]
		if !ok || !sameDate(sched.Date, date) {
			continue
		}
		result = append(result, models.RecordWithSchedule{Record: *rec, Schedule: *sched})
	}
	return result, nil
}

func (r *fakeRecordRepo) MarkAttended(_ context.Context, recordID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok || rec.Attended {
		return models.ErrAlreadyAttended
	}
	rec.Attended = true
	return nil
}

func (r *fakeRecordRepo) GetStartingBetween(_ context.Context, from, to time.Time) ([]models.RecordWithSchedule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.RecordWithSchedule
	for _, rec := range s.records {
		if rec.IsCanceled {
			continue
		}
		sched, ok := s.schedules[rec.ScheduleID]
		if !ok {
			continue
		}
		start := sched.StartAt()
		if !start.Before(from) && !start.After(to) {
			result = append(result, models.RecordWithSchedule{Record: *rec, Schedule: *sched})
		}
	}
	return result, nil
}

type fakeScheduleRepo struct{ store *fakeStore }

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *models.Schedule) error {
	created := r.store.addSchedule(*schedule)
	*schedule = *created
	return nil
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, id int64) (*models.Schedule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, ok := s.schedules[id]
	if !ok {
		return nil, nil
	}
	copied := *sched
	return &copied, nil
}

func (r *fakeScheduleRepo) GetBySectionAndRange(_ context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Schedule
	for _, sched := range s.schedules {
		if sched.SectionID == sectionID && !sched.Date.Before(start) && !sched.Date.After(end) {
			result = append(result, *sched)
		}
	}
	return result, nil
}

func (r *fakeScheduleRepo) Exists(_ context.Context, sectionID int64, date time.Time, startTime string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range s.schedules {
		if sched.SectionID == sectionID && sameDate(sched.Date, date) && sched.StartTime == startTime {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeScheduleRepo) DeleteUnreserved(_ context.Context, sectionID int64, windowStart, windowEnd, now time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, sched := range s.schedules {
		if sched.SectionID != sectionID || sched.Reserved != 0 {
			continue
		}
		if sched.Date.Before(windowStart) || sched.Date.After(windowEnd) {
			continue
		}
		if !sched.StartAt().After(now) {
			continue
		}
		delete(s.schedules, id)
		deleted++
	}
	return deleted, nil
}

type fakeSubscriptionRepo struct{ store *fakeStore }

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *models.Subscription) error {
	created := r.store.addSubscription(*sub)
	*sub = *created
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id int64) (*models.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubscriptionRepo) GetActiveByUserID(_ context.Context, userID int64) (*models.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.UserID == userID && sub.IsActive {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetByUserID(_ context.Context, userID int64) ([]*models.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			copied := *sub
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *models.Subscription) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.subs[sub.ID]
	if !ok {
		return models.ErrSubscriptionNotFound
	}
	*stored = *sub
	return nil
}

func (r *fakeSubscriptionRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, sub := range s.subs {
		if sub.IsActive && !sub.IsFrozen && sub.EndDate.Before(now) {
			sub.IsActive = false
			affected++
		}
	}
	return affected, nil
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	created := r.store.addUser(*user)
	*user = *created
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.PhoneNumber == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeDispatcher собирает события в каналы, чтобы тест мог их дождаться
type fakeDispatcher struct {
	booked   chan service.BookingEvent
	canceled chan service.BookingEvent
	reminded chan service.BookingEvent
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		booked:   make(chan service.BookingEvent, 32),
		canceled: make(chan service.BookingEvent, 32),
		reminded: make(chan service.BookingEvent, 32),
	}
}

func (d *fakeDispatcher) NotifyBooked(event service.BookingEvent)   { d.booked <- event }
func (d *fakeDispatcher) NotifyCanceled(event service.BookingEvent) { d.canceled <- event }
func (d *fakeDispatcher) NotifyReminder(event service.BookingEvent) { d.reminded <- event }

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
