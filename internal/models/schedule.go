package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleItem is one placed, time-bounded unit of study within a window,
// tied to a single resource. Items are never mutated after creation; the
// final merge only re-sorts the collection.
type ScheduleItem struct {
	ResourceID      string  `json:"resource_id"`
	ResourceTitle   string  `json:"resource_title"`
	ResourceType    string  `json:"resource_type"`
	DayOfWeek       string  `json:"day_of_week"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DifficultyLevel int     `json:"difficulty_level"`
	EstimatedHours  float64 `json:"estimated_hours"`
	OrderIndex      int     `json:"order_index"`
}

// Schedule is the aggregate produced by one optimizer invocation.
type Schedule struct {
	UserID          string         `json:"user_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	StartDate       string         `json:"start_date,omitempty"`
	EndDate         string         `json:"end_date,omitempty"`
	Feasible        bool           `json:"feasible"`
	TotalHours      float64        `json:"total_hours"`
	AvailableHours  float64        `json:"available_hours"`
	DeficitHours    float64        `json:"deficit_hours,omitempty"`
	Efficiency      float64        `json:"efficiency"`
	Items           []ScheduleItem `json:"schedule_items"`
	GoalsCovered    []string       `json:"goals_covered,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// ScheduleRecord is the persisted form of a generated schedule. Items are
// stored as a JSON document since they are immutable once generated.
type ScheduleRecord struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	StartDate      string         `db:"start_date" json:"start_date"`
	EndDate        string         `db:"end_date" json:"end_date"`
	Feasible       bool           `db:"feasible" json:"feasible"`
	TotalHours     float64        `db:"total_hours" json:"total_hours"`
	AvailableHours float64        `db:"available_hours" json:"available_hours"`
	Efficiency     float64        `db:"efficiency" json:"efficiency"`
	Items          types.JSONText `db:"items" json:"items"`
	GoalsCovered   types.JSONText `db:"goals_covered" json:"goals_covered"`
	GeneratedAt    time.Time      `db:"generated_at" json:"generated_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// FeasibilityReport is the result of the pure feasibility check.
type FeasibilityReport struct {
	Feasible             bool     `json:"feasible"`
	NeededHours          float64  `json:"needed_hours"`
	AvailableHours       float64  `json:"available_hours"`
	EfficiencyPercentage float64  `json:"efficiency_percentage"`
	Recommendations      []string `json:"recommendations"`
	GoalsCount           int      `json:"goals_count"`
	TimeWindowsCount     int      `json:"time_windows_count"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
