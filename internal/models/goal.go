package models

import "time"

// LearningGoal represents a desired learning outcome with required hours
// and a difficulty level on the 1-5 scale.
type LearningGoal struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Title           string    `db:"title" json:"title"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DifficultyLevel int       `db:"difficulty_level" json:"difficulty_level"`
	TargetHours     int       `db:"target_hours" json:"target_hours"`
	Deadline        *string   `db:"deadline" json:"deadline,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// GoalFilter captures filtering criteria for listing goals.
type GoalFilter struct {
	UserID     string
	Difficulty *int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
