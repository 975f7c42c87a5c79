package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
	"github.com/danarifka/studyplan-api/pkg/export"
)

type scheduleRepository interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ScheduleRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error)
	Create(ctx context.Context, record *models.ScheduleRecord) error
	Delete(ctx context.Context, id string) error
}

type scheduleGoalSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.LearningGoal, error)
	FindByIDs(ctx context.Context, userID string, ids []string) ([]models.LearningGoal, error)
}

type scheduleAvailabilitySource interface {
	ListByUser(ctx context.Context, userID string) ([]models.TimeAvailability, error)
}

type scheduleResourceSource interface {
	ListAll(ctx context.Context) ([]models.LearningResource, error)
}

type scheduleOptimizer interface {
	Generate(ctx context.Context, in GenerateScheduleInput) (*models.Schedule, error)
	ValidateFeasibility(goals []models.LearningGoal, availability []models.TimeAvailability) models.FeasibilityReport
}

type confidenceSource interface {
	Trained() bool
	ConfidenceByResource(ctx context.Context, topic string) (map[string]float64, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scheduleMetrics interface {
	RecordCacheOperation(hit bool)
}

// ScheduleService orchestrates schedule generation: it loads the caller's
// goals, availability and the resource pool, runs the optimizer and
// optionally persists and exports the result.
type ScheduleService struct {
	schedules    scheduleRepository
	goals        scheduleGoalSource
	availability scheduleAvailabilitySource
	resources    scheduleResourceSource
	optimizer    scheduleOptimizer
	recommender  confidenceSource
	cache        scheduleCache
	cacheCfg     config.CacheConfig
	metrics      scheduleMetrics
	pdf          *export.PDFExporter
	csv          *export.CSVExporter
	validator    *validator.Validate
	logger       *zap.Logger
}

// ScheduleServiceDeps bundles the collaborators for NewScheduleService.
type ScheduleServiceDeps struct {
	Schedules    scheduleRepository
	Goals        scheduleGoalSource
	Availability scheduleAvailabilitySource
	Resources    scheduleResourceSource
	Optimizer    scheduleOptimizer
	Recommender  confidenceSource
	Cache        scheduleCache
	CacheConfig  config.CacheConfig
	Metrics      scheduleMetrics
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewScheduleService constructs the schedule orchestration service.
func NewScheduleService(deps ScheduleServiceDeps) *ScheduleService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules:    deps.Schedules,
		goals:        deps.Goals,
		availability: deps.Availability,
		resources:    deps.Resources,
		optimizer:    deps.Optimizer,
		recommender:  deps.Recommender,
		cache:        deps.Cache,
		cacheCfg:     deps.CacheConfig,
		metrics:      deps.Metrics,
		pdf:          export.NewPDFExporter(),
		csv:          export.NewCSVExporter(),
		validator:    deps.Validator,
		logger:       deps.Logger,
	}
}

// Generate runs the optimizer for the user and optionally persists the result.
func (s *ScheduleService) Generate(ctx context.Context, userID string, req dto.GenerateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	goals, err := s.loadGoals(ctx, userID, req.GoalIDs)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no learning goals defined")
	}

	availability, err := s.availability.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if len(availability) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no availability defined")
	}

	resources, err := s.resources.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resources")
	}
	if len(resources) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no learning resources available")
	}

	confidence := s.confidenceScores(ctx, req.Strategy, goals)

	title := req.Title
	if title == "" {
		title = "Weekly Learning Schedule"
	}

	schedule, err := s.optimizer.Generate(ctx, GenerateScheduleInput{
		UserID:       userID,
		Title:        title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Goals:        goals,
		Availability: availability,
		Resources:    resources,
		Confidence:   confidence,
		Scorer:       ScorerByName(req.Strategy),
	})
	if err != nil {
		return nil, err
	}

	if req.Persist && schedule.Feasible {
		record, err := scheduleToRecord(schedule)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
		}
		if err := s.schedules.Create(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
		}
		s.invalidateListCache(ctx, userID)
		s.logger.Info("schedule persisted", zap.String("schedule_id", record.ID), zap.String("user_id", userID))
	}

	return schedule, nil
}

// Availability exposes the user's raw availability records for collaborators
// that run their own placement, such as the video chunker.
func (s *ScheduleService) Availability(ctx context.Context, userID string) ([]models.TimeAvailability, error) {
	availability, err := s.availability.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return availability, nil
}

// CheckFeasibility reports whether the user's goals fit their availability
// without generating a schedule.
func (s *ScheduleService) CheckFeasibility(ctx context.Context, userID string, goalIDs []string) (*models.FeasibilityReport, error) {
	goals, err := s.loadGoals(ctx, userID, goalIDs)
	if err != nil {
		return nil, err
	}
	availability, err := s.availability.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	report := s.optimizer.ValidateFeasibility(goals, availability)
	return &report, nil
}

// List returns the user's saved schedules, cached when caching is enabled.
func (s *ScheduleService) List(ctx context.Context, userID string, page, pageSize int) ([]models.ScheduleRecord, *models.Pagination, error) {
	type cachedList struct {
		Records []models.ScheduleRecord `json:"records"`
		Total   int                     `json:"total"`
	}

	key := fmt.Sprintf("schedules:%s:%d:%d", userID, page, pageSize)
	if s.cacheEnabled() {
		var cached cachedList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCacheOperation(true)
			return cached.Records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: cached.Total}, nil
		}
		s.recordCacheOperation(false)
	}

	records, total, err := s.schedules.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, cachedList{Records: records, Total: total}, s.cacheCfg.ScheduleTTL); err != nil {
			s.logger.Warn("failed to cache schedule list", zap.Error(err))
		}
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one saved schedule, scoped to its owner.
func (s *ScheduleService) Get(ctx context.Context, userID, id string) (*models.ScheduleRecord, error) {
	record, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if record.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another user")
	}
	return record, nil
}

// Delete removes a saved schedule, scoped to its owner.
func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidateListCache(ctx, userID)
	return nil
}

// ExportPDF renders a saved schedule as a per-day PDF timetable.
func (s *ScheduleService) ExportPDF(ctx context.Context, userID, id string) ([]byte, string, error) {
	record, items, err := s.loadForExport(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	payload, err := s.pdf.Render(timetableDocument(record, items))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename(record.Title, "pdf"), nil
}

// ExportCSV renders a saved schedule as flattened timetable rows.
func (s *ScheduleService) ExportCSV(ctx context.Context, userID, id string) ([]byte, string, error) {
	record, items, err := s.loadForExport(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	payload, err := s.csv.Render(timetableDocument(record, items))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename(record.Title, "csv"), nil
}

// timetableDocument groups schedule items by weekday; both exporters render
// the same document.
func timetableDocument(record *models.ScheduleRecord, items []models.ScheduleItem) export.TimetableDocument {
	doc := export.TimetableDocument{
		Title:    record.Title,
		Subtitle: fmt.Sprintf("%s to %s", record.StartDate, record.EndDate),
		Headers:  []string{"Time", "Resource", "Type", "Hours"},
	}
	for _, day := range models.Weekdays {
		var rows []map[string]string
		for _, item := range items {
			if item.DayOfWeek != day {
				continue
			}
			rows = append(rows, map[string]string{
				"Time":     fmt.Sprintf("%s - %s", item.StartTime, item.EndTime),
				"Resource": item.ResourceTitle,
				"Type":     item.ResourceType,
				"Hours":    fmt.Sprintf("%.1f", item.EstimatedHours),
			})
		}
		if len(rows) > 0 {
			doc.Sections = append(doc.Sections, export.TimetableSection{Heading: day, Rows: rows})
		}
	}
	return doc
}

func (s *ScheduleService) loadGoals(ctx context.Context, userID string, goalIDs []string) ([]models.LearningGoal, error) {
	var goals []models.LearningGoal
	var err error
	if len(goalIDs) > 0 {
		goals, err = s.goals.FindByIDs(ctx, userID, goalIDs)
		if err == nil && len(goals) != len(goalIDs) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more goals not found")
		}
	} else {
		goals, err = s.goals.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goals")
	}
	return goals, nil
}

// confidenceScores queries the recommender when the confidence strategy is
// requested. A missing or untrained model degrades to nil scores so the
// optimizer falls back to difficulty ordering inside ConfidenceScorer ties.
func (s *ScheduleService) confidenceScores(ctx context.Context, strategy string, goals []models.LearningGoal) map[string]float64 {
	if !strings.EqualFold(strategy, "confidence") || s.recommender == nil || !s.recommender.Trained() {
		return nil
	}
	topic := strings.Join(goalTitles(goals), " ")
	scores, err := s.recommender.ConfidenceByResource(ctx, topic)
	if err != nil {
		s.logger.Warn("confidence scoring unavailable", zap.Error(err))
		return nil
	}
	return scores
}

func (s *ScheduleService) loadForExport(ctx context.Context, userID, id string) (*models.ScheduleRecord, []models.ScheduleItem, error) {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	var items []models.ScheduleItem
	if err := json.Unmarshal(record.Items, &items); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule items")
	}
	return record, items, nil
}

func (s *ScheduleService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *ScheduleService) recordCacheOperation(hit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheOperation(hit)
}

func (s *ScheduleService) invalidateListCache(ctx context.Context, userID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("schedules:%s:*", userID)); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}

func scheduleToRecord(schedule *models.Schedule) (*models.ScheduleRecord, error) {
	items, err := json.Marshal(schedule.Items)
	if err != nil {
		return nil, err
	}
	covered, err := json.Marshal(schedule.GoalsCovered)
	if err != nil {
		return nil, err
	}
	return &models.ScheduleRecord{
		UserID:         schedule.UserID,
		Title:          schedule.Title,
		Description:    schedule.Description,
		StartDate:      schedule.StartDate,
		EndDate:        schedule.EndDate,
		Feasible:       schedule.Feasible,
		TotalHours:     schedule.TotalHours,
		AvailableHours: schedule.AvailableHours,
		Efficiency:     schedule.Efficiency,
		Items:          types.JSONText(items),
		GoalsCovered:   types.JSONText(covered),
		GeneratedAt:    schedule.GeneratedAt,
	}, nil
}

func exportFilename(title, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	if slug == "" {
		slug = "schedule"
	}
	return fmt.Sprintf("%s.%s", slug, ext)
}
