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

// ResourceRepository manages persistence for learning resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// List returns resources matching the provided filters.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.LearningResource, int, error) {
	base := "FROM learning_resources"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Difficulty != nil {
		conditions = append(conditions, fmt.Sprintf("difficulty_level = $%d", len(args)+1))
		args = append(args, *filter.Difficulty)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(COALESCE(tags, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":      "title",
		"difficulty": "difficulty_level",
		"hours":      "estimated_hours",
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

	query := fmt.Sprintf(`SELECT id, title, description, type, difficulty_level, estimated_hours, tags, url, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var resources []models.LearningResource
	if err := r.db.SelectContext(ctx, &resources, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}
	return resources, total, nil
}

// ListAll returns the full resource corpus for matching and model training.
func (r *ResourceRepository) ListAll(ctx context.Context) ([]models.LearningResource, error) {
	const query = `SELECT id, title, description, type, difficulty_level, estimated_hours, tags, url, created_at, updated_at
        FROM learning_resources ORDER BY created_at`
	var resources []models.LearningResource
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("list all resources: %w", err)
	}
	return resources, nil
}

// FindByID fetches a resource by ID.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.LearningResource, error) {
	const query = `SELECT id, title, description, type, difficulty_level, estimated_hours, tags, url, created_at, updated_at
        FROM learning_resources WHERE id = $1`
	var resource models.LearningResource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Create inserts a new resource record.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.LearningResource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}
	resource.UpdatedAt = now
	const query = `INSERT INTO learning_resources (id, title, description, type, difficulty_level, estimated_hours, tags, url, created_at, updated_at)
        VALUES (:id, :title, :description, :type, :difficulty_level, :estimated_hours, :tags, :url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Update modifies an existing resource.
func (r *ResourceRepository) Update(ctx context.Context, resource *models.LearningResource) error {
	resource.UpdatedAt = time.Now().UTC()
	const query = `UPDATE learning_resources SET title = :title, description = :description, type = :type,
        difficulty_level = :difficulty_level, estimated_hours = :estimated_hours, tags = :tags, url = :url,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return nil
}

// Delete removes a resource permanently.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM learning_resources WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
