package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/models"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type resourceRepository interface {
	List(ctx context.Context, filter models.ResourceFilter) ([]models.LearningResource, int, error)
	ListAll(ctx context.Context) ([]models.LearningResource, error)
	FindByID(ctx context.Context, id string) (*models.LearningResource, error)
	Create(ctx context.Context, resource *models.LearningResource) error
	Update(ctx context.Context, resource *models.LearningResource) error
	Delete(ctx context.Context, id string) error
}

// resourceRetrainer receives change notifications so the recommendation model
// can follow the corpus.
type resourceRetrainer interface {
	EnqueueRetrain(reason string)
}

// CreateResourceRequest holds payload for creating learning resources.
type CreateResourceRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     *string `json:"description"`
	Type            string  `json:"type" validate:"required,oneof=video article course book"`
	DifficultyLevel int     `json:"difficulty_level" validate:"required,min=1,max=5"`
	EstimatedHours  float64 `json:"estimated_hours" validate:"required,gt=0"`
	Tags            *string `json:"tags"`
	URL             *string `json:"url" validate:"omitempty,url"`
}

// UpdateResourceRequest holds payload for updating learning resources.
type UpdateResourceRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     *string `json:"description"`
	Type            string  `json:"type" validate:"required,oneof=video article course book"`
	DifficultyLevel int     `json:"difficulty_level" validate:"required,min=1,max=5"`
	EstimatedHours  float64 `json:"estimated_hours" validate:"required,gt=0"`
	Tags            *string `json:"tags"`
	URL             *string `json:"url" validate:"omitempty,url"`
}

// ResourceService handles learning resource use-cases.
type ResourceService struct {
	repo      resourceRepository
	retrainer resourceRetrainer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs the resource service. The retrainer is
// optional; without one, corpus changes simply do not trigger retraining.
func NewResourceService(repo resourceRepository, retrainer resourceRetrainer, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, retrainer: retrainer, validator: validate, logger: logger}
}

// List returns resources and pagination metadata.
func (s *ResourceService) List(ctx context.Context, filter models.ResourceFilter) ([]models.LearningResource, *models.Pagination, error) {
	resources, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
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
	return resources, pagination, nil
}

// Get returns one resource by ID.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.LearningResource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

// Create registers a new learning resource.
func (s *ResourceService) Create(ctx context.Context, req CreateResourceRequest) (*models.LearningResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}
	resource := &models.LearningResource{
		Title:           req.Title,
		Description:     req.Description,
		Type:            models.ResourceType(req.Type),
		DifficultyLevel: req.DifficultyLevel,
		EstimatedHours:  req.EstimatedHours,
		Tags:            req.Tags,
		URL:             req.URL,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	s.notifyRetrain("resource created")
	return resource, nil
}

// Update modifies an existing resource.
func (s *ResourceService) Update(ctx context.Context, id string, req UpdateResourceRequest) (*models.LearningResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}
	resource, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resource.Title = req.Title
	resource.Description = req.Description
	resource.Type = models.ResourceType(req.Type)
	resource.DifficultyLevel = req.DifficultyLevel
	resource.EstimatedHours = req.EstimatedHours
	resource.Tags = req.Tags
	resource.URL = req.URL
	if err := s.repo.Update(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}
	s.notifyRetrain("resource updated")
	return resource, nil
}

// Delete removes a resource permanently.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	s.notifyRetrain("resource deleted")
	return nil
}

func (s *ResourceService) notifyRetrain(reason string) {
	if s.retrainer == nil {
		return
	}
	s.retrainer.EnqueueRetrain(reason)
}
