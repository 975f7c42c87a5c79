package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
)

func strPtr(s string) *string { return &s }

func optimizerFixture() *ScheduleOptimizerService {
	return NewScheduleOptimizerService(config.OptimizerConfig{
		SessionMinutes: 90,
		DurationSlack:  1.5,
	}, nil)
}

func weekAvailability() []models.TimeAvailability {
	return []models.TimeAvailability{
		{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{DayOfWeek: "wednesday", StartTime: "14:00", EndTime: "17:00", IsAvailable: true},
		{DayOfWeek: "friday", StartTime: "09:00", EndTime: "11:00", IsAvailable: true},
	}
}

func resourcePool() []models.LearningResource {
	return []models.LearningResource{
		{ID: "res-1", Title: "Go Basics Course", Type: models.ResourceCourse, DifficultyLevel: 2, EstimatedHours: 2},
		{ID: "res-2", Title: "Advanced Concurrency", Type: models.ResourceVideo, DifficultyLevel: 4, EstimatedHours: 1.5},
		{ID: "res-3", Title: "Intro Article", Type: models.ResourceArticle, DifficultyLevel: 1, EstimatedHours: 0.5},
	}
}

func TestGenerateSchedule(t *testing.T) {
	svc := optimizerFixture()

	in := GenerateScheduleInput{
		UserID:    "user-1",
		Title:     "My Plan",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-13",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Learn Go", DifficultyLevel: 2, TargetHours: 5},
		},
		Availability: weekAvailability(),
		Resources:    resourcePool(),
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, schedule)

	assert.True(t, schedule.Feasible)
	assert.Equal(t, 5.0, schedule.TotalHours)
	assert.Equal(t, 8.0, schedule.AvailableHours)
	assert.Equal(t, 62.5, schedule.Efficiency)
	assert.Equal(t, []string{"Learn Go"}, schedule.GoalsCovered)
	require.NotEmpty(t, schedule.Items)

	var allocated float64
	for _, item := range schedule.Items {
		start, err := parseClock(item.StartTime)
		require.NoError(t, err)
		end, err := parseClock(item.EndTime)
		require.NoError(t, err)
		assert.LessOrEqual(t, end-start, 90, "session %s exceeds cap", item.ResourceTitle)
		assert.Greater(t, end, start)
		allocated += item.EstimatedHours
	}
	assert.InDelta(t, 5.0, allocated, 0.01)
}

func TestGenerateScheduleFillsSingleWindow(t *testing.T) {
	svc := optimizerFixture()

	// One long window must absorb the full target by itself: the allocator
	// keeps placing capped sessions back to back instead of taking a single
	// session and moving on.
	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Learn Go", DifficultyLevel: 1, TargetHours: 5},
		},
		Availability: []models.TimeAvailability{
			{DayOfWeek: "monday", StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
		},
		Resources: []models.LearningResource{
			{ID: "res-1", Title: "Go Basics Course", Type: models.ResourceCourse, DifficultyLevel: 1, EstimatedHours: 2},
		},
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.True(t, schedule.Feasible)
	require.Len(t, schedule.Items, 4)

	var allocated float64
	for _, item := range schedule.Items {
		assert.Equal(t, "monday", item.DayOfWeek)
		start, err := parseClock(item.StartTime)
		require.NoError(t, err)
		end, err := parseClock(item.EndTime)
		require.NoError(t, err)
		assert.LessOrEqual(t, end-start, 90)
		allocated += item.EstimatedHours
	}
	assert.InDelta(t, 5.0, allocated, 0.01)

	// Sessions are contiguous: 3 full 90-minute blocks plus the remainder.
	assert.Equal(t, "09:00", schedule.Items[0].StartTime)
	assert.Equal(t, "14:00", schedule.Items[3].EndTime)
}

func TestGenerateScheduleSessionMinutesRounding(t *testing.T) {
	svc := optimizerFixture()

	// A 50-minute window is 0.8333... hours; converting back to minutes must
	// not truncate the float noise down to 49.
	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Quick Read", DifficultyLevel: 1, TargetHours: 1},
		},
		Availability: []models.TimeAvailability{
			{DayOfWeek: "monday", StartTime: "09:00", EndTime: "09:50", IsAvailable: true},
			{DayOfWeek: "tuesday", StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
		},
		Resources: []models.LearningResource{
			{ID: "res-1", Title: "Intro Article", Type: models.ResourceArticle, DifficultyLevel: 1, EstimatedHours: 0.5},
		},
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.True(t, schedule.Feasible)
	require.NotEmpty(t, schedule.Items)
	assert.Equal(t, "monday", schedule.Items[0].DayOfWeek)
	assert.Equal(t, "09:50", schedule.Items[0].EndTime)
}

func TestGenerateScheduleInfeasible(t *testing.T) {
	svc := optimizerFixture()

	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Everything At Once", DifficultyLevel: 3, TargetHours: 40},
		},
		Availability: []models.TimeAvailability{
			{DayOfWeek: "saturday", StartTime: "10:00", EndTime: "12:00", IsAvailable: true},
		},
		Resources: resourcePool(),
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err, "an infeasible goal set is a normal outcome, not an error")

	assert.False(t, schedule.Feasible)
	assert.Equal(t, 40.0, schedule.TotalHours)
	assert.Equal(t, 2.0, schedule.AvailableHours)
	assert.Equal(t, 38.0, schedule.DeficitHours)
	assert.Empty(t, schedule.Items)
	assert.Equal(t, []string{
		"Increase available learning time",
		"Reduce number of goals",
		"Extend deadline",
		"Focus on higher priority goals",
	}, schedule.Recommendations)
}

func TestGenerateScheduleNoOverlap(t *testing.T) {
	svc := optimizerFixture()

	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Goal A", DifficultyLevel: 2, TargetHours: 3, Deadline: strPtr("2026-09-10")},
			{ID: "goal-2", Title: "Goal B", DifficultyLevel: 3, TargetHours: 3},
		},
		Availability: weekAvailability(),
		Resources:    resourcePool(),
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.True(t, schedule.Feasible)

	// Items come back in calendar order; on the same day each session must
	// start at or after the previous one ends.
	for i := 1; i < len(schedule.Items); i++ {
		prev, cur := schedule.Items[i-1], schedule.Items[i]
		di, dj := models.DayIndex(prev.DayOfWeek), models.DayIndex(cur.DayOfWeek)
		require.LessOrEqual(t, di, dj)
		if di == dj {
			prevEnd, err := parseClock(prev.EndTime)
			require.NoError(t, err)
			curStart, err := parseClock(cur.StartTime)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, curStart, prevEnd,
				"sessions %q and %q overlap on %s", prev.ResourceTitle, cur.ResourceTitle, cur.DayOfWeek)
		}
	}
}

func TestGenerateScheduleDeadlinePriority(t *testing.T) {
	svc := optimizerFixture()

	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-late", Title: "No Rush", DifficultyLevel: 1, TargetHours: 4},
			{ID: "goal-soon", Title: "Urgent", DifficultyLevel: 4, TargetHours: 4, Deadline: strPtr("2026-09-08")},
		},
		Availability: weekAvailability(),
		Resources: []models.LearningResource{
			{ID: "res-hard", Title: "Deep Dive", Type: models.ResourceCourse, DifficultyLevel: 4, EstimatedHours: 1},
			{ID: "res-easy", Title: "Primer", Type: models.ResourceArticle, DifficultyLevel: 1, EstimatedHours: 1},
		},
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, schedule.Items)

	// The dated goal is allocated first even though it was passed second: only
	// it matches the hard resource, so order index zero must be the deep dive.
	for _, item := range schedule.Items {
		if item.OrderIndex == 0 {
			assert.Equal(t, "res-hard", item.ResourceID)
		}
	}
}

func TestGenerateScheduleRejectsNonPositiveTarget(t *testing.T) {
	svc := optimizerFixture()

	_, err := svc.Generate(context.Background(), GenerateScheduleInput{
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Broken", TargetHours: 0},
		},
	})
	require.Error(t, err)
}

func TestMatchResourcesDifficultyRule(t *testing.T) {
	svc := optimizerFixture()

	goals := []models.LearningGoal{
		{ID: "goal-1", Title: "Intermediate Goal", DifficultyLevel: 3},
	}
	resources := []models.LearningResource{
		{ID: "too-hard", DifficultyLevel: 5, EstimatedHours: 1},
		{ID: "one-above", DifficultyLevel: 4, EstimatedHours: 1},
		{ID: "exact", DifficultyLevel: 3, EstimatedHours: 1},
		{ID: "much-easier", DifficultyLevel: 1, EstimatedHours: 1},
	}

	matched := svc.matchResources(goals, resources, nil)
	candidates := matched["goal-1"]
	require.Len(t, candidates, 3)

	// Two levels above the goal is excluded; easier resources always qualify.
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.NotContains(t, ids, "too-hard")
	assert.Contains(t, ids, "much-easier")

	// Candidates sort ascending by difficulty.
	for i := 1; i < len(candidates); i++ {
		assert.LessOrEqual(t, candidates[i-1].DifficultyLevel, candidates[i].DifficultyLevel)
	}
}

func TestSelectResourceSlackAndFallback(t *testing.T) {
	svc := optimizerFixture()
	goal := models.LearningGoal{ID: "goal-1", DifficultyLevel: 3}

	long := scoredResource{LearningResource: models.LearningResource{ID: "long", DifficultyLevel: 3, EstimatedHours: 10}}
	short := scoredResource{LearningResource: models.LearningResource{ID: "short", DifficultyLevel: 1, EstimatedHours: 2}}

	// Within slack: a 1.5h session tolerates resources up to 2.25h.
	picked, ok := svc.selectResource([]scoredResource{long, short}, 1.5, goal, DifficultyScorer)
	require.True(t, ok)
	assert.Equal(t, "short", picked.ID)

	// Nothing fits: fall back to the overall shortest.
	picked, ok = svc.selectResource([]scoredResource{long}, 1.5, goal, DifficultyScorer)
	require.True(t, ok)
	assert.Equal(t, "long", picked.ID)

	_, ok = svc.selectResource(nil, 1.5, goal, DifficultyScorer)
	assert.False(t, ok)
}

func TestConfidenceScorerStrategy(t *testing.T) {
	svc := optimizerFixture()

	in := GenerateScheduleInput{
		UserID: "user-1",
		Goals: []models.LearningGoal{
			{ID: "goal-1", Title: "Learn Go", DifficultyLevel: 2, TargetHours: 1},
		},
		Availability: []models.TimeAvailability{
			{DayOfWeek: "monday", StartTime: "09:00", EndTime: "11:00", IsAvailable: true},
		},
		Resources: []models.LearningResource{
			{ID: "res-exact", Title: "Exact Match", Type: models.ResourceCourse, DifficultyLevel: 2, EstimatedHours: 1},
			{ID: "res-trusted", Title: "High Confidence", Type: models.ResourceVideo, DifficultyLevel: 1, EstimatedHours: 1},
		},
		Confidence: map[string]float64{"res-exact": 0.1, "res-trusted": 0.9},
		Scorer:     ScorerByName("confidence"),
	}

	schedule, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, schedule.Items)
	assert.Equal(t, "res-trusted", schedule.Items[0].ResourceID)

	// The default strategy prefers the closest difficulty instead.
	in.Scorer = ScorerByName("difficulty")
	schedule, err = svc.Generate(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, schedule.Items)
	assert.Equal(t, "res-exact", schedule.Items[0].ResourceID)
}

func TestProcessAvailabilitySkipsBadRecords(t *testing.T) {
	svc := optimizerFixture()

	windows := svc.processAvailability([]models.TimeAvailability{
		{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{DayOfWeek: "tuesday", StartTime: "09:00", EndTime: "12:00", IsAvailable: false},
		{DayOfWeek: "funday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{DayOfWeek: "wednesday", StartTime: "9am", EndTime: "12:00", IsAvailable: true},
		{DayOfWeek: "thursday", StartTime: "12:00", EndTime: "09:00", IsAvailable: true},
	})

	require.Len(t, windows, 1)
	assert.Equal(t, "monday", windows[0].day)
	assert.Equal(t, 180, windows[0].remainingMinutes())
}

func TestValidateFeasibility(t *testing.T) {
	svc := optimizerFixture()

	tests := []struct {
		name         string
		targetHours  int
		wantFeasible bool
		wantHint     string
	}{
		{name: "deficit", targetHours: 20, wantFeasible: false, wantHint: "Need 12.0 more hours per week"},
		{name: "underused", targetHours: 2, wantFeasible: true, wantHint: "Consider adding more learning goals"},
		{name: "tight", targetHours: 8, wantFeasible: true, wantHint: "Schedule is very tight - consider buffer time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := svc.ValidateFeasibility(
				[]models.LearningGoal{{ID: "goal-1", Title: "Goal", TargetHours: tt.targetHours}},
				weekAvailability(),
			)
			assert.Equal(t, tt.wantFeasible, report.Feasible)
			assert.Equal(t, 8.0, report.AvailableHours)
			require.NotEmpty(t, report.Recommendations)
			assert.Contains(t, report.Recommendations, tt.wantHint)
		})
	}
}

func TestValidateFeasibilityNoWindows(t *testing.T) {
	svc := optimizerFixture()

	report := svc.ValidateFeasibility(
		[]models.LearningGoal{{ID: "goal-1", Title: "Goal", TargetHours: 5}},
		nil,
	)
	assert.False(t, report.Feasible)
	assert.Zero(t, report.AvailableHours)
	assert.Zero(t, report.EfficiencyPercentage)
	assert.Zero(t, report.TimeWindowsCount)
}

func TestClockHelpers(t *testing.T) {
	minutes, err := parseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)
	assert.Equal(t, "09:30", formatClock(570))

	_, err = parseClock("25:00")
	assert.Error(t, err)
}
