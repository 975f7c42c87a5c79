package dto

// GenerateScheduleRequest instructs the optimizer to build a weekly schedule
// from the caller's goals, availability and the resource pool.
type GenerateScheduleRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	GoalIDs     []string `json:"goal_ids"`
	Strategy    string   `json:"strategy" validate:"omitempty,oneof=difficulty confidence"`
	Persist     bool     `json:"persist"`
}

// VideoScheduleRequest asks for a chunked weekly plan covering one long
// external video.
type VideoScheduleRequest struct {
	VideoURL      string  `json:"video_url" validate:"required,url"`
	DurationHours float64 `json:"duration_hours" validate:"required,gt=0"`
	Title         string  `json:"title"`
}

// VideoSessionChunk is one bounded sub-session carved from the video duration.
type VideoSessionChunk struct {
	SessionNumber string  `json:"session_number"`
	DurationHours float64 `json:"duration_hours"`
	OffsetHours   float64 `json:"offset_hours"`
}

// VideoScheduleResponse returns the distributed chunk placements.
type VideoScheduleResponse struct {
	Title          string              `json:"title"`
	VideoURL       string              `json:"video_url"`
	TotalHours     float64             `json:"total_hours"`
	AvailableHours float64             `json:"available_hours"`
	Efficiency     float64             `json:"efficiency"`
	Items          []VideoScheduleItem `json:"schedule_items"`
	SessionsCount  int                 `json:"sessions_count"`
	DroppedChunks  int                 `json:"dropped_chunks"`
	DaysUsed       int                 `json:"days_used"`
}

// VideoScheduleItem is one placed video study session.
type VideoScheduleItem struct {
	SessionNumber  string  `json:"session_number"`
	Title          string  `json:"title"`
	DayOfWeek      string  `json:"day_of_week"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	EstimatedHours float64 `json:"estimated_hours"`
	BreakAfterMin  int     `json:"break_after_minutes"`
	OrderIndex     int     `json:"order_index"`
}
