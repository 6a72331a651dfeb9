package schedule_service

import (
	"context"
	"sync"
	"testing"
	"time"

	"center-booking-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// понедельник
var windowStart = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

var testNow = windowStart.Add(-24 * time.Hour)

type fakeScheduleRepo struct {
	mu        sync.Mutex
	nextID    int64
	schedules map[int64]*models.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[int64]*models.Schedule)}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, sched *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sched.ID = r.nextID
	sched.Status = models.StatusOf(sched.Reserved, sched.Capacity)
	stored := *sched
	r.schedules[sched.ID] = &stored
	return nil
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sched, ok := r.schedules[id]
	if !ok {
		return nil, nil
	}
	copied := *sched
	return &copied, nil
}

func (r *fakeScheduleRepo) GetBySectionAndRange(ctx context.Context, sectionID int64, start, end time.Time) ([]models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Schedule
	for _, sched := range r.schedules {
		if sched.SectionID == sectionID && !sched.Date.Before(start) && !sched.Date.After(end) {
			out = append(out, *sched)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) Exists(ctx context.Context, sectionID int64, date time.Time, startTime string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sched := range r.schedules {
		if sched.SectionID == sectionID && sched.Date.Equal(date) && sched.StartTime == startTime {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeScheduleRepo) DeleteUnreserved(ctx context.Context, sectionID int64, start, end, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, sched := range r.schedules {
		if sched.SectionID != sectionID || sched.Date.Before(start) || sched.Date.After(end) {
			continue
		}
		if sched.Reserved != 0 || !sched.StartAt().After(now) {
			continue
		}
		delete(r.schedules, id)
		deleted++
	}
	return deleted, nil
}

func (r *fakeScheduleRepo) all() []models.Schedule {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Schedule, 0, len(r.schedules))
	for _, sched := range r.schedules {
		out = append(out, *sched)
	}
	return out
}

type fakeSectionRepo struct {
	sections map[int64]*models.Section
}

func (r *fakeSectionRepo) GetByID(ctx context.Context, id int64) (*models.Section, error) {
	sec, ok := r.sections[id]
	if !ok {
		return nil, nil
	}
	copied := *sec
	return &copied, nil
}

func (r *fakeSectionRepo) GetByCenter(ctx context.Context, centerID int64) ([]models.Section, error) {
	var out []models.Section
	for _, sec := range r.sections {
		if sec.CenterID == centerID {
			out = append(out, *sec)
		}
	}
	return out, nil
}

func newTestService(schedules *fakeScheduleRepo) *scheduleService {
	sections := &fakeSectionRepo{sections: map[int64]*models.Section{
		1: {ID: 1, CenterID: 1, Name: "Плавание"},
	}}
	svc := NewScheduleService(schedules, sections, zap.NewNop()).(*scheduleService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func weekdayPattern() models.WeeklyPattern {
	return models.WeeklyPattern{Days: []models.DayPattern{
		{DayOfWeek: 1, Intervals: []models.PatternInterval{
			{StartTime: "10:00", EndTime: "11:00", Capacity: 10},
			{StartTime: "18:30", EndTime: "19:30", Capacity: 15},
		}},
		{DayOfWeek: 3, Intervals: []models.PatternInterval{
			{StartTime: "10:00", EndTime: "11:00", Capacity: 10},
		}},
	}}
}

func TestMaterializeCreatesSchedules(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)

	// две недели: пн, ср, пн, ср
	windowEnd := windowStart.AddDate(0, 0, 13)
	created, err := svc.Materialize(context.Background(), 1, weekdayPattern(), windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	type slot struct {
		date  time.Time
		start string
	}
	got := make(map[slot]models.Schedule)
	for _, sched := range repo.all() {
		got[slot{sched.Date, sched.StartTime}] = sched
	}

	expected := []slot{
		{windowStart, "10:00:00"},
		{windowStart, "18:30:00"},
		{windowStart.AddDate(0, 0, 2), "10:00:00"},
		{windowStart.AddDate(0, 0, 7), "10:00:00"},
		{windowStart.AddDate(0, 0, 7), "18:30:00"},
		{windowStart.AddDate(0, 0, 9), "10:00:00"},
	}
	require.Len(t, got, len(expected))
	for _, want := range expected {
		sched, ok := got[want]
		require.True(t, ok, "missing schedule %v %s", want.date, want.start)
		assert.Equal(t, models.ScheduleOpen, sched.Status)
		assert.Zero(t, sched.Reserved)
	}

	morning := got[slot{windowStart, "10:00:00"}]
	assert.Equal(t, 10, morning.Capacity)
	assert.Equal(t, "11:00:00", morning.EndTime)

	evening := got[slot{windowStart, "18:30:00"}]
	assert.Equal(t, 15, evening.Capacity)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)
	windowEnd := windowStart.AddDate(0, 0, 6)

	created, err := svc.Materialize(context.Background(), 1, weekdayPattern(), windowStart, windowEnd)
	require.NoError(t, err)
	require.Equal(t, 3, created)

	first := repo.all()

	created, err = svc.Materialize(context.Background(), 1, weekdayPattern(), windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Len(t, repo.all(), len(first))
}

func TestMaterializeKeepsReservedSchedules(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)
	windowEnd := windowStart.AddDate(0, 0, 6)

	// занятие с записями вне нового шаблона: удалять нельзя
	reserved := &models.Schedule{
		SectionID: 1,
		Date:      windowStart,
		StartTime: "07:00:00",
		EndTime:   "08:00:00",
		Capacity:  10,
		Reserved:  3,
	}
	require.NoError(t, repo.Create(context.Background(), reserved))

	// пустое занятие вне шаблона подлежит удалению
	empty := &models.Schedule{
		SectionID: 1,
		Date:      windowStart,
		StartTime: "08:00:00",
		EndTime:   "09:00:00",
		Capacity:  10,
	}
	require.NoError(t, repo.Create(context.Background(), empty))

	created, err := svc.Materialize(context.Background(), 1, weekdayPattern(), windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	var starts []string
	for _, sched := range repo.all() {
		if sched.Date.Equal(windowStart) {
			starts = append(starts, sched.StartTime)
		}
	}
	assert.ElementsMatch(t, []string{"07:00:00", "10:00:00", "18:30:00"}, starts)
}

func TestMaterializeDefaultCapacity(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)

	pattern := models.WeeklyPattern{Days: []models.DayPattern{
		{DayOfWeek: 1, Intervals: []models.PatternInterval{
			{StartTime: "10:00", EndTime: "11:00"},
		}},
	}}

	created, err := svc.Materialize(context.Background(), 1, pattern, windowStart, windowStart)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	assert.Equal(t, models.DefaultCapacity, repo.all()[0].Capacity)
}

func TestMaterializeValidation(t *testing.T) {
	tests := []struct {
		name    string
		pattern models.WeeklyPattern
	}{
		{"no days", models.WeeklyPattern{}},
		{"day of week out of range", models.WeeklyPattern{Days: []models.DayPattern{
			{DayOfWeek: 8, Intervals: []models.PatternInterval{{StartTime: "10:00", EndTime: "11:00"}}},
		}}},
		{"day without intervals", models.WeeklyPattern{Days: []models.DayPattern{
			{DayOfWeek: 1},
		}}},
		{"bad start time", models.WeeklyPattern{Days: []models.DayPattern{
			{DayOfWeek: 1, Intervals: []models.PatternInterval{{StartTime: "25:00", EndTime: "11:00"}}},
		}}},
		{"end before start", models.WeeklyPattern{Days: []models.DayPattern{
			{DayOfWeek: 1, Intervals: []models.PatternInterval{{StartTime: "11:00", EndTime: "10:00"}}},
		}}},
		{"empty interval", models.WeeklyPattern{Days: []models.DayPattern{
			{DayOfWeek: 1, Intervals: []models.PatternInterval{{StartTime: "10:00", EndTime: "10:00"}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeScheduleRepo()
			svc := newTestService(repo)

			created, err := svc.Materialize(context.Background(), 1, tt.pattern, windowStart, windowStart.AddDate(0, 0, 6))
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Zero(t, created)
			assert.Empty(t, repo.all())
		})
	}
}

func TestMaterializeWindowEndBeforeStart(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	created, err := svc.Materialize(context.Background(), 1, weekdayPattern(), windowStart, windowStart.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Zero(t, created)
}

func TestMaterializeUnknownSection(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	created, err := svc.Materialize(context.Background(), 777, weekdayPattern(), windowStart, windowStart.AddDate(0, 0, 6))
	assert.ErrorIs(t, err, models.ErrSectionNotFound)
	assert.Zero(t, created)
}

func TestGetScheduleByID(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)

	sched := &models.Schedule{SectionID: 1, Date: windowStart, StartTime: "10:00:00", EndTime: "11:00:00", Capacity: 10}
	require.NoError(t, repo.Create(context.Background(), sched))

	got, err := svc.GetScheduleByID(context.Background(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, sched.ID, got.ID)

	_, err = svc.GetScheduleByID(context.Background(), 9999)
	assert.ErrorIs(t, err, models.ErrScheduleNotFound)
}
