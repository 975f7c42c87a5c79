package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danarifka/studyplan-api/internal/models"
)

// GoalRepository manages persistence for learning goals.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository constructs a GoalRepository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// List returns goals matching the provided filters.
func (r *GoalRepository) List(ctx context.Context, filter models.GoalFilter) ([]models.LearningGoal, int, error) {
	base := "FROM learning_goals"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Difficulty != nil {
		conditions = append(conditions, fmt.Sprintf("difficulty_level = $%d", len(args)+1))
		args = append(args, *filter.Difficulty)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":      "title",
		"deadline":   "deadline",
		"difficulty": "difficulty_level",
		"created_at": "created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var goals []models.LearningGoal
	if err := r.db.SelectContext(ctx, &goals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list goals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count goals: %w", err)
	}
	return goals, total, nil
}

// FindByID fetches a goal by ID.
func (r *GoalRepository) FindByID(ctx context.Context, id string) (*models.LearningGoal, error) {
	const query = `SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at
        FROM learning_goals WHERE id = $1`
	var goal models.LearningGoal
	if err := r.db.GetContext(ctx, &goal, query, id); err != nil {
		return nil, err
	}
	return &goal, nil
}

// FindByIDs fetches the goals whose IDs appear in the given set.
func (r *GoalRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.LearningGoal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at
        FROM learning_goals WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("build goal query: %w", err)
	}
	query = r.db.Rebind(query)

	var goals []models.LearningGoal
	if err := r.db.SelectContext(ctx, &goals, query, args...); err != nil {
		return nil, fmt.Errorf("find goals: %w", err)
	}
	return goals, nil
}

// ListByUser returns every goal owned by the user, most urgent deadline first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]models.LearningGoal, error) {
	const query = `SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at
        FROM learning_goals WHERE user_id = $1 ORDER BY deadline NULLS LAST, difficulty_level`
	var goals []models.LearningGoal
	if err := r.db.SelectContext(ctx, &goals, query, userID); err != nil {
		return nil, fmt.Errorf("list user goals: %w", err)
	}
	return goals, nil
}

// Create inserts a new goal record.
func (r *GoalRepository) Create(ctx context.Context, goal *models.LearningGoal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now
	const query = `INSERT INTO learning_goals (id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at)
        VALUES (:id, :user_id, :title, :description, :difficulty_level, :target_hours, :deadline, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// Update modifies an existing goal.
func (r *GoalRepository) Update(ctx context.Context, goal *models.LearningGoal) error {
	goal.UpdatedAt = time.Now().UTC()
	const query = `UPDATE learning_goals SET title = :title, description = :description, difficulty_level = :difficulty_level,
        target_hours = :target_hours, deadline = :deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// Delete removes a goal permanently.
func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM learning_goals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
