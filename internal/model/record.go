package model

import "time"

// StatusCompleted is the only activity status with special meaning; the
// upstream enumeration is otherwise open.
const StatusCompleted = "Completed"

// RawRecord is one upstream task-activity object, kept verbatim. The
// upstream schema is not stable across responses, so raw records stay
// schemaless until normalized.
type RawRecord map[string]interface{}

// TaskRecord is a normalized unit of tracked work.
type TaskRecord struct {
	ID               string     `json:"id"`
	UName            string     `json:"uname"`
	Email            string     `json:"email"`
	College          string     `json:"college"`
	Project          string     `json:"project"`
	TaskTitle        string     `json:"task_title"`
	Remark           string     `json:"remark"`
	CurrentTask      string     `json:"current_task"`
	ActivityStatus   string     `json:"activity_status"`
	TimeSpent        string     `json:"time_spent"`         // source encoding, "H:MM"
	TimeSpentMinutes int        `json:"time_spent_minutes"` // parsed, 0 when unparseable
	CreatedDate      *time.Time `json:"created_date,omitempty"`
	UpdatedDate      *time.Time `json:"updated_date,omitempty"`
}

// Completed reports whether the record's activity status marks it done.
func (r TaskRecord) Completed() bool {
	return r.ActivityStatus == StatusCompleted
}

// ReportSummary holds the derived statistics for one report run.
// Recomputed per generation, never persisted.
type ReportSummary struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	TotalMinutes int     `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"` // minutes/60, rounded to 2 decimals
}

// ScheduleConfig is the single daily trigger, 24-hour local time.
type ScheduleConfig struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// DefaultSchedule returns the 18:00 default trigger.
func DefaultSchedule() ScheduleConfig {
	return ScheduleConfig{Hour: 18, Minute: 0}
}

// Valid reports whether the trigger is a real wall-clock time.
func (s ScheduleConfig) Valid() bool {
	return s.Hour >= 0 && s.Hour <= 23 && s.Minute >= 0 && s.Minute <= 59
}
