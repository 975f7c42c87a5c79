package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/models"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type goalRepository interface {
	List(ctx context.Context, filter models.GoalFilter) ([]models.LearningGoal, int, error)
	FindByID(ctx context.Context, id string) (*models.LearningGoal, error)
	Create(ctx context.Context, goal *models.LearningGoal) error
	Update(ctx context.Context, goal *models.LearningGoal) error
	Delete(ctx context.Context, id string) error
}

// CreateGoalRequest holds payload for creating learning goals.
type CreateGoalRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     *string `json:"description"`
	DifficultyLevel int     `json:"difficulty_level" validate:"required,min=1,max=5"`
	TargetHours     int     `json:"target_hours" validate:"required,min=1"`
	Deadline        *string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateGoalRequest holds payload for updating learning goals.
type UpdateGoalRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     *string `json:"description"`
	DifficultyLevel int     `json:"difficulty_level" validate:"required,min=1,max=5"`
	TargetHours     int     `json:"target_hours" validate:"required,min=1"`
	Deadline        *string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// GoalService handles learning goal use-cases.
type GoalService struct {
	repo      goalRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGoalService constructs the goal service.
func NewGoalService(repo goalRepository, validate *validator.Validate, logger *zap.Logger) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalService{repo: repo, validator: validate, logger: logger}
}

// List returns goals and pagination metadata.
func (s *GoalService) List(ctx context.Context, filter models.GoalFilter) ([]models.LearningGoal, *models.Pagination, error) {
	goals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goals")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return goals, pagination, nil
}

// Get returns one goal, scoped to its owner.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*models.LearningGoal, error) {
	goal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	if goal.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "goal belongs to another user")
	}
	return goal, nil
}

// Create registers a new learning goal for the user.
func (s *GoalService) Create(ctx context.Context, userID string, req CreateGoalRequest) (*models.LearningGoal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	goal := &models.LearningGoal{
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		DifficultyLevel: req.DifficultyLevel,
		TargetHours:     req.TargetHours,
		Deadline:        req.Deadline,
	}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goal")
	}
	s.logger.Info("goal created", zap.String("goal_id", goal.ID), zap.String("user_id", userID))
	return goal, nil
}

// Update modifies an existing goal, scoped to its owner.
func (s *GoalService) Update(ctx context.Context, userID, id string, req UpdateGoalRequest) (*models.LearningGoal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	goal, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	goal.Title = req.Title
	goal.Description = req.Description
	goal.DifficultyLevel = req.DifficultyLevel
	goal.TargetHours = req.TargetHours
	goal.Deadline = req.Deadline
	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal")
	}
	return goal, nil
}

// Delete removes a goal, scoped to its owner.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete goal")
	}
	s.logger.Info("goal deleted", zap.String("goal_id", id), zap.String("user_id", userID))
	return nil
}
