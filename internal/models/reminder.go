package models

import "time"

// ReminderStatus represents where a reminder is in its lifecycle
type ReminderStatus string

const (
	ReminderStatusUpcoming ReminderStatus = "upcoming"
	ReminderStatusPending  ReminderStatus = "pending"
	ReminderStatusAnswered ReminderStatus = "answered"
)

// ReminderValue records how an answered reminder was resolved
type ReminderValue string

const (
	ReminderValueCompleted ReminderValue = "completed"
	ReminderValueDismissed ReminderValue = "dismissed"
)

// Reminder represents a single due event for a habit. A habit has at most
// one upcoming reminder; pending and answered reminders accumulate as its
// history.
type Reminder struct {
	ID          string         `json:"id" db:"id"`
	UserID      string         `json:"user_id" db:"user_id"`
	HabitID     string         `json:"habit_id" db:"habit_id"`
	ScheduledAt time.Time      `json:"scheduled_at" db:"scheduled_at"`
	Status      ReminderStatus `json:"status" db:"status"`
	Value       ReminderValue  `json:"value,omitempty" db:"value"`
	Notes       string         `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// IsDue returns true if an upcoming reminder's instant has elapsed
func (r *Reminder) IsDue(now time.Time) bool {
	if r.Status != ReminderStatusUpcoming {
		return false
	}
	return !r.ScheduledAt.After(now)
}

// Answered reports whether the reminder has reached its terminal status
func (r *Reminder) Answered() bool {
	return r.Status == ReminderStatusAnswered
}
