package repository

import (
	"context"
	"time"

	"github.com/habitloop/habitloop/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// HabitRepository defines the interface for habit data operations. Lookups
// are scoped to the owning user: a habit that exists but belongs to someone
// else behaves exactly like one that does not exist.
type HabitRepository interface {
	Create(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	GetByID(ctx context.Context, id, userID string) (*models.Habit, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Habit, error)
	Update(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	Delete(ctx context.Context, id, userID string) error
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	GetByID(ctx context.Context, id, userID string) (*models.Reminder, error)
	// GetUpcomingByHabit returns the habit's single upcoming reminder, or
	// nil when none exists.
	GetUpcomingByHabit(ctx context.Context, habitID, userID string) (*models.Reminder, error)
	// GetByHabit returns all of the habit's reminders, any status, ordered
	// by scheduled instant.
	GetByHabit(ctx context.Context, habitID, userID string) ([]*models.Reminder, error)
	// GetActiveByUser returns the user's pending and upcoming reminders,
	// ordered by scheduled instant. Answered reminders are excluded.
	GetActiveByUser(ctx context.Context, userID string) ([]*models.Reminder, error)
	// GetDueUpcoming returns upcoming reminders across all users whose
	// instant is at or before now. Used by the background sweeper.
	GetDueUpcoming(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	Delete(ctx context.Context, id, userID string) error
	// DeleteByHabit removes the habit's reminders in the given statuses, or
	// all of them when no status is passed.
	DeleteByHabit(ctx context.Context, habitID, userID string, statuses ...models.ReminderStatus) error
}
