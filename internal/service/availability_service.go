package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/models"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type availabilityRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.TimeAvailability, error)
	FindByID(ctx context.Context, id string) (*models.TimeAvailability, error)
	Create(ctx context.Context, record *models.TimeAvailability) error
	Update(ctx context.Context, record *models.TimeAvailability) error
	Delete(ctx context.Context, id string) error
	ReplaceForUser(ctx context.Context, userID string, records []models.TimeAvailability) error
}

// AvailabilitySlotRequest holds one weekly availability slot.
type AvailabilitySlotRequest struct {
	DayOfWeek   string `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	IsAvailable *bool  `json:"is_available"`
}

// ReplaceAvailabilityRequest swaps the user's full weekly availability.
type ReplaceAvailabilityRequest struct {
	Slots []AvailabilitySlotRequest `json:"slots" validate:"required,min=1,dive"`
}

// AvailabilityService handles weekly availability use-cases.
type AvailabilityService struct {
	repo      availabilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the availability service.
func NewAvailabilityService(repo availabilityRepository, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, validator: validate, logger: logger}
}

// List returns the user's weekly availability.
func (s *AvailabilityService) List(ctx context.Context, userID string) ([]models.TimeAvailability, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return records, nil
}

// Create adds one availability slot for the user.
func (s *AvailabilityService) Create(ctx context.Context, userID string, req AvailabilitySlotRequest) (*models.TimeAvailability, error) {
	record, err := s.buildRecord(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
	}
	return record, nil
}

// Update modifies one availability slot, scoped to its owner.
func (s *AvailabilityService) Update(ctx context.Context, userID, id string, req AvailabilitySlotRequest) (*models.TimeAvailability, error) {
	updated, err := s.buildRecord(userID, req)
	if err != nil {
		return nil, err
	}
	existing, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	existing.DayOfWeek = updated.DayOfWeek
	existing.StartTime = updated.StartTime
	existing.EndTime = updated.EndTime
	existing.IsAvailable = updated.IsAvailable
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return existing, nil
}

// Delete removes one availability slot, scoped to its owner.
func (s *AvailabilityService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	return nil
}

// Replace swaps the user's entire weekly availability atomically.
func (s *AvailabilityService) Replace(ctx context.Context, userID string, req ReplaceAvailabilityRequest) ([]models.TimeAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	records := make([]models.TimeAvailability, 0, len(req.Slots))
	for _, slot := range req.Slots {
		record, err := s.buildRecord(userID, slot)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := s.repo.ReplaceForUser(ctx, userID, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	s.logger.Info("availability replaced", zap.String("user_id", userID), zap.Int("slots", len(records)))
	return records, nil
}

func (s *AvailabilityService) get(ctx context.Context, userID, id string) (*models.TimeAvailability, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if record.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "availability slot belongs to another user")
	}
	return record, nil
}

func (s *AvailabilityService) buildRecord(userID string, req AvailabilitySlotRequest) (*models.TimeAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability slot")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return &models.TimeAvailability{
		UserID:      userID,
		DayOfWeek:   strings.ToLower(req.DayOfWeek),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: available,
	}, nil
}
