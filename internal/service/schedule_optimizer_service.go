package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

// deadlineSentinel sorts goals without a deadline after every dated goal.
const deadlineSentinel = "9999-12-31"

// infeasibleRecommendations is returned verbatim when available time cannot
// cover the requested goals.
var infeasibleRecommendations = []string{
	"Increase available learning time",
	"Reduce number of goals",
	"Extend deadline",
	"Focus on higher priority goals",
}

// timeWindow is a validated availability interval. Windows form a shared
// depletable pool: placing a session advances startMin, so later goals in the
// same run cannot overlap earlier placements.
type timeWindow struct {
	day      string
	startMin int
	endMin   int
}

func (w timeWindow) remainingMinutes() int {
	return w.endMin - w.startMin
}

// scoredResource pairs a candidate resource with an optional recommendation
// confidence used by the confidence scoring strategy.
type scoredResource struct {
	models.LearningResource
	Confidence float64
}

// ResourceScorer reports whether candidate a should be preferred over b when
// filling a session for the given goal.
type ResourceScorer func(a, b scoredResource, goal models.LearningGoal) bool

// DifficultyScorer prefers the smallest difficulty distance to the goal,
// breaking ties on shorter estimated duration.
func DifficultyScorer(a, b scoredResource, goal models.LearningGoal) bool {
	da := abs(a.DifficultyLevel - goal.DifficultyLevel)
	db := abs(b.DifficultyLevel - goal.DifficultyLevel)
	if da != db {
		return da < db
	}
	return a.EstimatedHours < b.EstimatedHours
}

// ConfidenceScorer prefers higher recommendation confidence, breaking ties on
// difficulty distance.
func ConfidenceScorer(a, b scoredResource, goal models.LearningGoal) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return abs(a.DifficultyLevel-goal.DifficultyLevel) < abs(b.DifficultyLevel-goal.DifficultyLevel)
}

// ScorerByName maps a strategy name from the API to a scorer. Unknown names
// fall back to the difficulty strategy.
func ScorerByName(name string) ResourceScorer {
	if strings.EqualFold(name, "confidence") {
		return ConfidenceScorer
	}
	return DifficultyScorer
}

// GenerateScheduleInput carries everything one optimizer run consumes. The
// optimizer never loads or persists data itself; callers own both sides.
type GenerateScheduleInput struct {
	UserID       string
	Title        string
	Description  string
	StartDate    string
	EndDate      string
	Goals        []models.LearningGoal
	Availability []models.TimeAvailability
	Resources    []models.LearningResource
	Confidence   map[string]float64
	Scorer       ResourceScorer
}

// ScheduleOptimizerService builds conflict-free weekly study schedules from
// goals, availability windows and a resource pool.
type ScheduleOptimizerService struct {
	cfg    config.OptimizerConfig
	logger *zap.Logger
}

// NewScheduleOptimizerService wires the optimizer with its tuning constants.
func NewScheduleOptimizerService(cfg config.OptimizerConfig, logger *zap.Logger) *ScheduleOptimizerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionMinutes <= 0 {
		cfg.SessionMinutes = 90
	}
	if cfg.DurationSlack <= 0 {
		cfg.DurationSlack = 1.5
	}
	return &ScheduleOptimizerService{cfg: cfg, logger: logger}
}

// Generate runs the full optimization pipeline. An infeasible goal set is a
// normal terminal outcome, returned as a schedule with Feasible=false; only
// unexpected internal failures surface as errors.
func (s *ScheduleOptimizerService) Generate(ctx context.Context, in GenerateScheduleInput) (*models.Schedule, error) {
	if err := validateGoals(in.Goals); err != nil {
		return nil, err
	}

	s.logger.Info("generating schedule",
		zap.String("user_id", in.UserID),
		zap.Int("goals", len(in.Goals)),
		zap.Int("resources", len(in.Resources)),
	)

	totalNeeded := totalTargetHours(in.Goals)

	windows := s.processAvailability(in.Availability)
	totalAvailable := availableHours(windows)

	if totalAvailable < totalNeeded {
		s.logger.Warn("insufficient availability",
			zap.Float64("needed_hours", totalNeeded),
			zap.Float64("available_hours", totalAvailable),
		)
		return s.infeasibleSchedule(in, totalNeeded, totalAvailable), nil
	}

	scorer := in.Scorer
	if scorer == nil {
		scorer = DifficultyScorer
	}

	candidates := s.matchResources(in.Goals, in.Resources, in.Confidence)
	items := s.allocate(in.Goals, candidates, windows, totalNeeded, scorer)

	efficiency := round1(totalNeeded / totalAvailable * 100)

	schedule := &models.Schedule{
		UserID:         in.UserID,
		Title:          in.Title,
		Description:    in.Description,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Feasible:       true,
		TotalHours:     totalNeeded,
		AvailableHours: totalAvailable,
		Efficiency:     efficiency,
		Items:          items,
		GoalsCovered:   goalTitles(in.Goals),
		GeneratedAt:    time.Now().UTC(),
	}
	if schedule.Description == "" {
		schedule.Description = fmt.Sprintf("Personalized schedule for %d learning goals", len(in.Goals))
	}

	s.logger.Info("schedule generated", zap.Int("items", len(items)), zap.Float64("efficiency", efficiency))
	return schedule, nil
}

// ValidateFeasibility is a pure check comparing required against available
// hours. It has no side effects and never errors.
func (s *ScheduleOptimizerService) ValidateFeasibility(goals []models.LearningGoal, availability []models.TimeAvailability) models.FeasibilityReport {
	needed := totalTargetHours(goals)
	windows := s.processAvailability(availability)
	available := availableHours(windows)

	feasible := available >= needed
	var efficiency float64
	if available > 0 {
		efficiency = needed / available * 100
	}

	var recommendations []string
	switch {
	case !feasible:
		deficit := needed - available
		recommendations = append(recommendations,
			fmt.Sprintf("Need %.1f more hours per week", deficit),
			"Consider reducing number of goals",
			"Extend learning timeline",
			"Increase daily learning time",
		)
	case efficiency < 50:
		recommendations = append(recommendations, "Consider adding more learning goals")
	case efficiency > 90:
		recommendations = append(recommendations, "Schedule is very tight - consider buffer time")
	}

	return models.FeasibilityReport{
		Feasible:             feasible,
		NeededHours:          needed,
		AvailableHours:       available,
		EfficiencyPercentage: round1(efficiency),
		Recommendations:      recommendations,
		GoalsCount:           len(goals),
		TimeWindowsCount:     len(windows),
	}
}

// processAvailability normalizes raw records into validated windows.
// Unavailable records are skipped silently; malformed times or non-positive
// durations are dropped with a warning and processing continues.
func (s *ScheduleOptimizerService) processAvailability(availability []models.TimeAvailability) []timeWindow {
	windows := make([]timeWindow, 0, len(availability))
	for _, record := range availability {
		if !record.IsAvailable {
			continue
		}

		start, err := parseClock(record.StartTime)
		if err != nil {
			s.logger.Warn("dropping availability record", zap.String("start_time", record.StartTime), zap.Error(err))
			continue
		}
		end, err := parseClock(record.EndTime)
		if err != nil {
			s.logger.Warn("dropping availability record", zap.String("end_time", record.EndTime), zap.Error(err))
			continue
		}

		day := strings.ToLower(strings.TrimSpace(record.DayOfWeek))
		if models.DayIndex(day) < 0 {
			s.logger.Warn("dropping availability record", zap.String("day_of_week", record.DayOfWeek))
			continue
		}

		if end-start <= 0 {
			s.logger.Warn("dropping availability record with non-positive duration",
				zap.String("day_of_week", day),
				zap.String("start_time", record.StartTime),
				zap.String("end_time", record.EndTime),
			)
			continue
		}

		windows = append(windows, timeWindow{day: day, startMin: start, endMin: end})
	}
	return windows
}

// matchResources builds the per-goal candidate list. A resource qualifies when
// its difficulty is within one level of the goal's, or when it is easier than
// the goal regardless of gap. Candidates sort ascending by difficulty with
// input order preserved on ties.
func (s *ScheduleOptimizerService) matchResources(goals []models.LearningGoal, resources []models.LearningResource, confidence map[string]float64) map[string][]scoredResource {
	mapping := make(map[string][]scoredResource, len(goals))
	for _, goal := range goals {
		var suitable []scoredResource
		for _, resource := range resources {
			gap := abs(resource.DifficultyLevel - goal.DifficultyLevel)
			if gap <= 1 || resource.DifficultyLevel <= goal.DifficultyLevel {
				suitable = append(suitable, scoredResource{
					LearningResource: resource,
					Confidence:       confidence[resource.ID],
				})
			}
		}
		sort.SliceStable(suitable, func(i, j int) bool {
			return suitable[i].DifficultyLevel < suitable[j].DifficultyLevel
		})
		mapping[goal.ID] = suitable
		s.logger.Debug("matched resources", zap.String("goal", goal.Title), zap.Int("candidates", len(suitable)))
	}
	return mapping
}

// allocate walks goals in priority order, placing sessions into the shared
// window pool, then re-sorts all placements into calendar order.
func (s *ScheduleOptimizerService) allocate(
	goals []models.LearningGoal,
	candidates map[string][]scoredResource,
	windows []timeWindow,
	totalNeeded float64,
	scorer ResourceScorer,
) []models.ScheduleItem {
	sorted := make([]models.LearningGoal, len(goals))
	copy(sorted, goals)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := deadlineKey(sorted[i]), deadlineKey(sorted[j])
		if di != dj {
			return di < dj
		}
		return sorted[i].DifficultyLevel < sorted[j].DifficultyLevel
	})

	totalTarget := totalTargetHours(goals)

	var items []models.ScheduleItem
	orderIndex := 0
	for _, goal := range sorted {
		// Proportional allocation; with a single run this resolves to the
		// goal's own target hours.
		goalHours := 0.0
		if totalTarget > 0 {
			goalHours = totalNeeded * (float64(goal.TargetHours) / totalTarget)
		}
		if goalHours <= 0 {
			continue
		}

		goalResources := candidates[goal.ID]
		if len(goalResources) == 0 {
			s.logger.Warn("no matching resources for goal", zap.String("goal", goal.Title))
			continue
		}

		allocated := s.allocateGoal(goal, goalResources, windows, goalHours, scorer, &orderIndex)
		items = append(items, allocated...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		di, dj := models.DayIndex(items[i].DayOfWeek), models.DayIndex(items[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return items[i].StartTime < items[j].StartTime
	})
	return items
}

// allocateGoal consumes window capacity for one goal until its hour budget is
// met or the pool is exhausted. Windows deplete in place.
func (s *ScheduleOptimizerService) allocateGoal(
	goal models.LearningGoal,
	resources []scoredResource,
	windows []timeWindow,
	targetHours float64,
	scorer ResourceScorer,
	orderIndex *int,
) []models.ScheduleItem {
	var items []models.ScheduleItem
	remaining := targetHours
	sessionCapHours := float64(s.cfg.SessionMinutes) / 60.0

	for i := range windows {
		if remaining <= 0 {
			break
		}
		window := &windows[i]

		// A window takes as many capped sessions as fit before the walk
		// moves on; a single long window must be able to absorb the whole
		// target on its own.
		for remaining > 0 && window.remainingMinutes() > 0 {
			windowHours := float64(window.remainingMinutes()) / 60.0
			sessionHours := math.Min(math.Min(windowHours, sessionCapHours), remaining)
			if sessionHours <= 0 {
				break
			}

			resource, ok := s.selectResource(resources, sessionHours, goal, scorer)
			if !ok {
				break
			}

			sessionMinutes := int(math.Round(sessionHours * 60))
			endMin := window.startMin + sessionMinutes
			if endMin > window.endMin {
				endMin = window.endMin
				sessionMinutes = endMin - window.startMin
			}
			if sessionMinutes <= 0 {
				break
			}

			items = append(items, models.ScheduleItem{
				ResourceID:      resource.ID,
				ResourceTitle:   resource.Title,
				ResourceType:    string(resource.Type),
				DayOfWeek:       window.day,
				StartTime:       formatClock(window.startMin),
				EndTime:         formatClock(endMin),
				DifficultyLevel: resource.DifficultyLevel,
				EstimatedHours:  float64(sessionMinutes) / 60.0,
				OrderIndex:      *orderIndex,
			})
			*orderIndex++

			remaining -= float64(sessionMinutes) / 60.0
			window.startMin = endMin
		}
	}

	return items
}

// selectResource picks the best candidate fitting the session with slack
// tolerance; when nothing fits, it falls back to the overall shortest one.
func (s *ScheduleOptimizerService) selectResource(resources []scoredResource, sessionHours float64, goal models.LearningGoal, scorer ResourceScorer) (scoredResource, bool) {
	if len(resources) == 0 {
		return scoredResource{}, false
	}

	var suitable []scoredResource
	for _, r := range resources {
		if r.EstimatedHours <= sessionHours*s.cfg.DurationSlack {
			suitable = append(suitable, r)
		}
	}
	if len(suitable) == 0 {
		shortest := resources[0]
		for _, r := range resources[1:] {
			if r.EstimatedHours < shortest.EstimatedHours {
				shortest = r
			}
		}
		suitable = []scoredResource{shortest}
	}

	best := suitable[0]
	for _, r := range suitable[1:] {
		if scorer(r, best, goal) {
			best = r
		}
	}
	return best, true
}

func (s *ScheduleOptimizerService) infeasibleSchedule(in GenerateScheduleInput, needed, available float64) *models.Schedule {
	return &models.Schedule{
		UserID:          in.UserID,
		Title:           "Schedule - Insufficient Time",
		Description:     "Schedule cannot be completed with available time",
		Feasible:        false,
		TotalHours:      needed,
		AvailableHours:  available,
		DeficitHours:    needed - available,
		Items:           []models.ScheduleItem{},
		Recommendations: infeasibleRecommendations,
		GeneratedAt:     time.Now().UTC(),
	}
}

func validateGoals(goals []models.LearningGoal) error {
	for _, goal := range goals {
		if goal.TargetHours <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("goal %q target_hours must be > 0", goal.Title))
		}
	}
	return nil
}

func totalTargetHours(goals []models.LearningGoal) float64 {
	var total float64
	for _, goal := range goals {
		total += float64(goal.TargetHours)
	}
	return total
}

func availableHours(windows []timeWindow) float64 {
	totalMinutes := 0
	for _, w := range windows {
		totalMinutes += w.remainingMinutes()
	}
	return float64(totalMinutes) / 60.0
}

func goalTitles(goals []models.LearningGoal) []string {
	titles := make([]string, 0, len(goals))
	for _, goal := range goals {
		titles = append(titles, goal.Title)
	}
	return titles
}

func deadlineKey(goal models.LearningGoal) string {
	if goal.Deadline == nil || *goal.Deadline == "" {
		return deadlineSentinel
	}
	return *goal.Deadline
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
