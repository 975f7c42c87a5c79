package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type stubScheduleRepo struct {
	records map[string]models.ScheduleRecord
	created []*models.ScheduleRecord
	deleted []string
}

func (s *stubScheduleRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ScheduleRecord, int, error) {
	var out []models.ScheduleRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (s *stubScheduleRepo) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	if r, ok := s.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubScheduleRepo) Create(ctx context.Context, record *models.ScheduleRecord) error {
	if s.records == nil {
		s.records = make(map[string]models.ScheduleRecord)
	}
	if record.ID == "" {
		record.ID = "sched-generated"
	}
	s.records[record.ID] = *record
	s.created = append(s.created, record)
	return nil
}

func (s *stubScheduleRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.records, id)
	return nil
}

type stubGoalSource struct {
	goals []models.LearningGoal
}

func (s *stubGoalSource) ListByUser(ctx context.Context, userID string) ([]models.LearningGoal, error) {
	return s.goals, nil
}

func (s *stubGoalSource) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.LearningGoal, error) {
	var out []models.LearningGoal
	for _, g := range s.goals {
		for _, id := range ids {
			if g.ID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

type stubAvailabilitySource struct {
	slots []models.TimeAvailability
}

func (s *stubAvailabilitySource) ListByUser(ctx context.Context, userID string) ([]models.TimeAvailability, error) {
	return s.slots, nil
}

type stubResourceSource struct {
	resources []models.LearningResource
}

func (s *stubResourceSource) ListAll(ctx context.Context) ([]models.LearningResource, error) {
	return s.resources, nil
}

type stubScheduleCache struct {
	store    map[string][]byte
	hits     int
	patterns []string
}

func (s *stubScheduleCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	s.hits++
	return json.Unmarshal(raw, dest)
}

func (s *stubScheduleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubScheduleCache) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	s.store = nil
	return nil
}

type scheduleFixture struct {
	svc       *ScheduleService
	schedules *stubScheduleRepo
	goals     *stubGoalSource
	cache     *stubScheduleCache
}

func newScheduleFixture(cacheEnabled bool) *scheduleFixture {
	schedules := &stubScheduleRepo{}
	goals := &stubGoalSource{goals: []models.LearningGoal{
		{ID: "goal-1", UserID: "user-1", Title: "Learn Go", DifficultyLevel: 2, TargetHours: 5},
	}}
	cache := &stubScheduleCache{}
	svc := NewScheduleService(ScheduleServiceDeps{
		Schedules:    schedules,
		Goals:        goals,
		Availability: &stubAvailabilitySource{slots: weekAvailability()},
		Resources:    &stubResourceSource{resources: resourcePool()},
		Optimizer:    optimizerFixture(),
		Cache:        cache,
		CacheConfig:  config.CacheConfig{Enabled: cacheEnabled, ScheduleTTL: time.Minute},
		Validator:    validator.New(),
		Logger:       zap.NewNop(),
	})
	return &scheduleFixture{svc: svc, schedules: schedules, goals: goals, cache: cache}
}

func TestScheduleServiceGenerate(t *testing.T) {
	f := newScheduleFixture(false)

	schedule, err := f.svc.Generate(context.Background(), "user-1", dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.True(t, schedule.Feasible)
	assert.Equal(t, "Weekly Learning Schedule", schedule.Title)
	assert.NotEmpty(t, schedule.Items)
	assert.Empty(t, f.schedules.created, "schedule should not persist without persist flag")
}

func TestScheduleServiceGeneratePersists(t *testing.T) {
	f := newScheduleFixture(true)

	schedule, err := f.svc.Generate(context.Background(), "user-1", dto.GenerateScheduleRequest{
		Title:   "Sprint Plan",
		Persist: true,
	})
	require.NoError(t, err)
	assert.True(t, schedule.Feasible)
	require.Len(t, f.schedules.created, 1)

	record := f.schedules.created[0]
	assert.Equal(t, "Sprint Plan", record.Title)
	assert.Equal(t, "user-1", record.UserID)

	var items []models.ScheduleItem
	require.NoError(t, json.Unmarshal(record.Items, &items))
	assert.Equal(t, len(schedule.Items), len(items))

	assert.Equal(t, []string{"schedules:user-1:*"}, f.cache.patterns)
}

func TestScheduleServiceGenerateInfeasibleNotPersisted(t *testing.T) {
	f := newScheduleFixture(false)
	f.goals.goals = []models.LearningGoal{
		{ID: "goal-1", UserID: "user-1", Title: "Too Much", DifficultyLevel: 3, TargetHours: 500},
	}

	schedule, err := f.svc.Generate(context.Background(), "user-1", dto.GenerateScheduleRequest{Persist: true})
	require.NoError(t, err)
	assert.False(t, schedule.Feasible)
	assert.Empty(t, f.schedules.created)
}

func TestScheduleServiceGenerateUnknownGoal(t *testing.T) {
	f := newScheduleFixture(false)

	_, err := f.svc.Generate(context.Background(), "user-1", dto.GenerateScheduleRequest{
		GoalIDs: []string{"goal-1", "goal-missing"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGeneratePreconditions(t *testing.T) {
	f := newScheduleFixture(false)
	f.goals.goals = nil

	_, err := f.svc.Generate(context.Background(), "user-1", dto.GenerateScheduleRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCheckFeasibility(t *testing.T) {
	f := newScheduleFixture(false)

	report, err := f.svc.CheckFeasibility(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.True(t, report.Feasible)
	assert.Equal(t, 5.0, report.NeededHours)
	assert.Equal(t, 8.0, report.AvailableHours)
}

func TestScheduleServiceListUsesCache(t *testing.T) {
	f := newScheduleFixture(true)
	f.schedules.records = map[string]models.ScheduleRecord{
		"s1": {ID: "s1", UserID: "user-1", Title: "Plan", Items: types.JSONText(`[]`), GoalsCovered: types.JSONText(`[]`)},
	}

	records, pagination, err := f.svc.List(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 0, f.cache.hits)

	// Second call is served from the cache.
	records, _, err = f.svc.List(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, f.cache.hits)
}

func TestScheduleServiceGetOwnerScoped(t *testing.T) {
	f := newScheduleFixture(false)
	f.schedules.records = map[string]models.ScheduleRecord{
		"s1": {ID: "s1", UserID: "user-1", Title: "Plan"},
	}

	record, err := f.svc.Get(context.Background(), "user-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Plan", record.Title)

	_, err = f.svc.Get(context.Background(), "intruder", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDeleteInvalidatesCache(t *testing.T) {
	f := newScheduleFixture(true)
	f.schedules.records = map[string]models.ScheduleRecord{
		"s1": {ID: "s1", UserID: "user-1", Title: "Plan"},
	}

	require.NoError(t, f.svc.Delete(context.Background(), "user-1", "s1"))
	assert.Equal(t, []string{"s1"}, f.schedules.deleted)
	assert.Equal(t, []string{"schedules:user-1:*"}, f.cache.patterns)
}

func TestScheduleServiceExport(t *testing.T) {
	f := newScheduleFixture(false)
	items, err := json.Marshal([]models.ScheduleItem{
		{
			ResourceID:     "res-1",
			ResourceTitle:  "Go Basics Course",
			ResourceType:   "course",
			DayOfWeek:      "monday",
			StartTime:      "09:00",
			EndTime:        "10:30",
			EstimatedHours: 1.5,
		},
	})
	require.NoError(t, err)
	f.schedules.records = map[string]models.ScheduleRecord{
		"s1": {
			ID:           "s1",
			UserID:       "user-1",
			Title:        "Sprint Plan",
			StartDate:    "2026-09-07",
			EndDate:      "2026-09-13",
			Items:        types.JSONText(items),
			GoalsCovered: types.JSONText(`["Learn Go"]`),
		},
	}

	pdf, name, err := f.svc.ExportPDF(context.Background(), "user-1", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "sprint-plan.pdf", name)

	csv, name, err := f.svc.ExportCSV(context.Background(), "user-1", "s1")
	require.NoError(t, err)
	assert.Contains(t, string(csv), "monday")
	assert.Contains(t, string(csv), "Go Basics Course")
	assert.Equal(t, "sprint-plan.csv", name)
}
