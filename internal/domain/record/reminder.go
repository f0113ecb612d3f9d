// internal/domain/record/reminder.go
package record

import "time"

// Reminder is a one-shot user reminder. It produces at most one alert,
// valid while the reminder is enabled and its firing instant has not passed.
type Reminder struct {
	ID        string
	Title     string
	FireAt    time.Time
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
