package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
)

type reminderRepository struct {
	mu        sync.RWMutex
	reminders map[string]*models.Reminder
}

// NewReminderRepository creates an in-memory reminder repository
func NewReminderRepository() repository.ReminderRepository {
	return &reminderRepository{reminders: make(map[string]*models.Reminder)}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if reminder.ID == "" {
		reminder.ID = newID()
	}
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	r.reminders[reminder.ID] = cloneReminder(reminder)
	return reminder, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id, userID string) (*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reminder, ok := r.reminders[id]
	if !ok || reminder.UserID != userID {
		return nil, nil
	}
	return cloneReminder(reminder), nil
}

func (r *reminderRepository) GetUpcomingByHabit(ctx context.Context, habitID, userID string) (*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Reminder
	for _, reminder := range r.reminders {
		if reminder.HabitID != habitID || reminder.UserID != userID {
			continue
		}
		if reminder.Status != models.ReminderStatusUpcoming {
			continue
		}
		if found == nil || reminder.ScheduledAt.Before(found.ScheduledAt) {
			found = reminder
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneReminder(found), nil
}

func (r *reminderRepository) GetByHabit(ctx context.Context, habitID, userID string) ([]*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reminders []*models.Reminder
	for _, reminder := range r.reminders {
		if reminder.HabitID == habitID && reminder.UserID == userID {
			reminders = append(reminders, cloneReminder(reminder))
		}
	}
	sortByInstant(reminders)
	return reminders, nil
}

func (r *reminderRepository) GetActiveByUser(ctx context.Context, userID string) ([]*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reminders []*models.Reminder
	for _, reminder := range r.reminders {
		if reminder.UserID != userID {
			continue
		}
		if reminder.Status == models.ReminderStatusAnswered {
			continue
		}
		reminders = append(reminders, cloneReminder(reminder))
	}
	sortByInstant(reminders)
	return reminders, nil
}

func (r *reminderRepository) GetDueUpcoming(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reminders []*models.Reminder
	for _, reminder := range r.reminders {
		if reminder.Status == models.ReminderStatusUpcoming && !reminder.ScheduledAt.After(now) {
			reminders = append(reminders, cloneReminder(reminder))
		}
	}
	sortByInstant(reminders)
	return reminders, nil
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[reminder.ID]
	if !ok || existing.UserID != reminder.UserID {
		return nil, fmt.Errorf("reminder %s not found", reminder.ID)
	}

	reminder.UpdatedAt = time.Now()
	r.reminders[reminder.ID] = cloneReminder(reminder)
	return reminder, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("reminder %s not found", id)
	}

	delete(r.reminders, id)
	return nil
}

func (r *reminderRepository) DeleteByHabit(ctx context.Context, habitID, userID string, statuses ...models.ReminderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, reminder := range r.reminders {
		if reminder.HabitID != habitID || reminder.UserID != userID {
			continue
		}
		if len(statuses) == 0 || statusIn(reminder.Status, statuses) {
			delete(r.reminders, id)
		}
	}
	return nil
}

func statusIn(status models.ReminderStatus, statuses []models.ReminderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortByInstant(reminders []*models.Reminder) {
	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].ScheduledAt.Before(reminders[j].ScheduledAt)
	})
}
