package models

import "time"

// TimeAvailability is a raw weekly availability record as supplied by the user.
// StartTime and EndTime carry HH:MM strings; validation happens when the
// optimizer normalizes records into time windows.
type TimeAvailability struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DayOfWeek   string    `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Weekdays lists the canonical day names in Monday-first order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayIndex returns the Monday-first index of a day name, or -1 when unknown.
func DayIndex(day string) int {
	for i, name := range Weekdays {
		if name == day {
			return i
		}
	}
	return -1
}
