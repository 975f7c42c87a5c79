package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danarifka/studyplan-api/internal/models"
)

// ScheduleRepository persists generated schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByUser returns the user's saved schedules, newest first.
func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ScheduleRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, user_id, title, description, start_date, end_date, feasible, total_hours,
        available_hours, efficiency, items, goals_covered, generated_at, created_at
        FROM schedules WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schedules WHERE user_id = $1", userID); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return records, total, nil
}

// FindByID fetches a schedule record by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	const query = `SELECT id, user_id, title, description, start_date, end_date, feasible, total_hours,
        available_hours, efficiency, items, goals_covered, generated_at, created_at
        FROM schedules WHERE id = $1`
	var record models.ScheduleRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, record *models.ScheduleRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedules (id, user_id, title, description, start_date, end_date, feasible, total_hours,
        available_hours, efficiency, items, goals_covered, generated_at, created_at)
        VALUES (:id, :user_id, :title, :description, :start_date, :end_date, :feasible, :total_hours,
        :available_hours, :efficiency, :items, :goals_covered, :generated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule permanently.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
