package models

import "time"

// ResourceType enumerates supported learning resource categories.
type ResourceType string

const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourceCourse  ResourceType = "course"
	ResourceBook    ResourceType = "book"
)

// LearningResource is a read-only input to matching and allocation.
type LearningResource struct {
	ID              string       `db:"id" json:"id"`
	Title           string       `db:"title" json:"title"`
	Description     *string      `db:"description" json:"description,omitempty"`
	Type            ResourceType `db:"type" json:"type"`
	DifficultyLevel int          `db:"difficulty_level" json:"difficulty_level"`
	EstimatedHours  float64      `db:"estimated_hours" json:"estimated_hours"`
	Tags            *string      `db:"tags" json:"tags,omitempty"`
	URL             *string      `db:"url" json:"url,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// ResourceFilter captures filtering criteria for listing resources.
type ResourceFilter struct {
	Type       string
	Difficulty *int
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
