package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danarifka/studyplan-api/internal/models"
)

// AvailabilityRepository manages weekly time availability records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByUser returns the user's availability in weekday order.
func (r *AvailabilityRepository) ListByUser(ctx context.Context, userID string) ([]models.TimeAvailability, error) {
	const query = `SELECT id, user_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
        FROM time_availability WHERE user_id = $1
        ORDER BY array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'], day_of_week), start_time`
	var records []models.TimeAvailability
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return records, nil
}

// FindByID fetches an availability record by ID.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.TimeAvailability, error) {
	const query = `SELECT id, user_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
        FROM time_availability WHERE id = $1`
	var record models.TimeAvailability
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new availability record.
func (r *AvailabilityRepository) Create(ctx context.Context, record *models.TimeAvailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO time_availability (id, user_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
        VALUES (:id, :user_id, :day_of_week, :start_time, :end_time, :is_available, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update modifies an existing availability record.
func (r *AvailabilityRepository) Update(ctx context.Context, record *models.TimeAvailability) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_availability SET day_of_week = :day_of_week, start_time = :start_time,
        end_time = :end_time, is_available = :is_available, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// Delete removes an availability record permanently.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM time_availability WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

// ReplaceForUser swaps the user's entire weekly availability in one
// transaction so a partial write never leaves a mixed week behind.
func (r *AvailabilityRepository) ReplaceForUser(ctx context.Context, userID string, records []models.TimeAvailability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM time_availability WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}

	const insert = `INSERT INTO time_availability (id, user_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
        VALUES (:id, :user_id, :day_of_week, :start_time, :end_time, :is_available, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range records {
		records[i].UserID = userID
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, records[i]); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
	}
	return tx.Commit()
}
