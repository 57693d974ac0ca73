package service

import (
	"context"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/metrics"
	"github.com/habitloop/habitloop/internal/models"
)

// CreateReminder explicitly creates a reminder for the habit at the given
// instant. A target already due yields a pending reminder and dispatches
// notifications. A target in the future becomes the habit's single upcoming
// reminder: an existing upcoming row is retargeted, never duplicated.
func (s *Service) CreateReminder(ctx context.Context, habitID, userID string, at time.Time) (*models.Reminder, error) {
	unlock := s.lockHabit(habitID)
	defer unlock()

	habit, err := s.habits.GetByID(ctx, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %s: %w", habitID, err)
	}
	if habit == nil {
		return nil, fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
	}

	now := time.Now()
	if at.After(now) {
		existing, err := s.reminders.GetUpcomingByHabit(ctx, habitID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load upcoming reminder for habit %s: %w", habitID, err)
		}
		if existing != nil {
			existing.ScheduledAt = at
			updated, err := s.reminders.Update(ctx, existing)
			if err != nil {
				return nil, fmt.Errorf("failed to retarget upcoming reminder for habit %s: %w", habitID, err)
			}
			return updated, nil
		}
	}

	return s.createReminder(ctx, habit, at, now)
}

// CompleteReminder resolves the reminder as done and lines up the habit's
// next occurrence.
func (s *Service) CompleteReminder(ctx context.Context, id, userID string) (*models.Reminder, error) {
	return s.answerReminder(ctx, id, userID, models.ReminderValueCompleted)
}

// DismissReminder resolves the reminder as skipped and lines up the habit's
// next occurrence.
func (s *Service) DismissReminder(ctx context.Context, id, userID string) (*models.Reminder, error) {
	return s.answerReminder(ctx, id, userID, models.ReminderValueDismissed)
}

func (s *Service) answerReminder(ctx context.Context, id, userID string, value models.ReminderValue) (*models.Reminder, error) {
	reminder, err := s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	if reminder == nil {
		return nil, fmt.Errorf("%w: reminder %s", ErrNotFound, id)
	}

	unlock := s.lockHabit(reminder.HabitID)
	defer unlock()

	// Reload under the lock so the second of two concurrent answers fails
	// the transition check.
	reminder, err = s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	if reminder == nil {
		return nil, fmt.Errorf("%w: reminder %s", ErrNotFound, id)
	}

	if err := validateTransition(reminder.Status, models.ReminderStatusAnswered); err != nil {
		return nil, err
	}

	reminder.Status = models.ReminderStatusAnswered
	reminder.Value = value
	updated, err := s.reminders.Update(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", id, err)
	}

	habit, err := s.habits.GetByID(ctx, updated.HabitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %s: %w", updated.HabitID, err)
	}
	if habit != nil {
		// Exclude the just-resolved instant so the same slot is not picked
		// again for the same day.
		if err := s.syncUpcoming(ctx, habit, time.Now(), updated.ScheduledAt); err != nil {
			return nil, err
		}
	}

	s.logger.Infof("Reminder %s answered as %s", id, value)
	return updated, nil
}

// SnoozeReminder pushes the reminder's due moment out by the given number
// of minutes. The habit's upcoming reminder is retargeted to the snoozed
// time (or created when absent); a snoozed pending reminder is deleted, not
// preserved as answered.
func (s *Service) SnoozeReminder(ctx context.Context, id, userID string, minutes int) (*models.Reminder, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("%w: snooze duration must be at least one minute", ErrInvalidSchedule)
	}

	reminder, err := s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	if reminder == nil {
		return nil, fmt.Errorf("%w: reminder %s", ErrNotFound, id)
	}

	unlock := s.lockHabit(reminder.HabitID)
	defer unlock()

	reminder, err = s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	if reminder == nil {
		return nil, fmt.Errorf("%w: reminder %s", ErrNotFound, id)
	}
	if reminder.Answered() {
		return nil, fmt.Errorf("%w: cannot snooze an answered reminder", ErrInvalidTransition)
	}

	now := time.Now()
	target := now.Add(time.Duration(minutes) * time.Minute)

	upcoming, err := s.reminders.GetUpcomingByHabit(ctx, reminder.HabitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming reminder for habit %s: %w", reminder.HabitID, err)
	}

	// Snoozing a not-yet-due reminder just moves it later.
	if upcoming != nil && upcoming.ID == reminder.ID {
		upcoming.ScheduledAt = target
		updated, err := s.reminders.Update(ctx, upcoming)
		if err != nil {
			return nil, fmt.Errorf("failed to retarget reminder %s: %w", id, err)
		}
		return updated, nil
	}

	var result *models.Reminder
	if upcoming != nil {
		upcoming.ScheduledAt = target
		result, err = s.reminders.Update(ctx, upcoming)
		if err != nil {
			return nil, fmt.Errorf("failed to retarget upcoming reminder for habit %s: %w", reminder.HabitID, err)
		}
	} else {
		result, err = s.reminders.Create(ctx, &models.Reminder{
			UserID:      userID,
			HabitID:     reminder.HabitID,
			ScheduledAt: target,
			Status:      models.ReminderStatusUpcoming,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create snoozed reminder for habit %s: %w", reminder.HabitID, err)
		}
	}

	// The snoozed reminder is superseded by the retargeted row.
	if err := s.reminders.Delete(ctx, reminder.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to delete snoozed reminder %s: %w", id, err)
	}

	s.logger.Infof("Reminder %s snoozed %d minutes for habit %s", id, minutes, reminder.HabitID)
	return result, nil
}

// DeleteReminder removes a single pending or upcoming reminder and, for a
// running recurring habit, recomputes the upcoming slot excluding the
// deleted instant. Answered reminders are history and cannot be deleted
// individually; they go away with their habit.
func (s *Service) DeleteReminder(ctx context.Context, id, userID string) error {
	reminder, err := s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	if reminder == nil {
		return fmt.Errorf("%w: reminder %s", ErrNotFound, id)
	}
	if reminder.Answered() {
		return fmt.Errorf("%w: cannot delete an answered reminder", ErrInvalidTransition)
	}

	unlock := s.lockHabit(reminder.HabitID)
	defer unlock()

	if err := s.reminders.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", id, err)
	}

	habit, err := s.habits.GetByID(ctx, reminder.HabitID, userID)
	if err != nil {
		return fmt.Errorf("failed to get habit %s: %w", reminder.HabitID, err)
	}
	if habit == nil || habit.State != models.HabitStateRunning || !habit.Frequency.Recurring() {
		return nil
	}

	return s.syncUpcoming(ctx, habit, time.Now(), reminder.ScheduledAt)
}

// ListReminders returns the user's pending and upcoming reminders. Listing
// runs the expiry sweep first: elapsed upcoming reminders are promoted to
// pending (with notification dispatch) and replacements are created, then
// the listing is reloaded so the new rows appear in the same response.
func (s *Service) ListReminders(ctx context.Context, userID string) ([]*models.Reminder, error) {
	reminders, err := s.reminders.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders for user %s: %w", userID, err)
	}

	if s.sweepBatch(ctx, reminders, time.Now()) {
		reminders, err = s.reminders.GetActiveByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload reminders for user %s: %w", userID, err)
		}
	}

	return reminders, nil
}

// sweepBatch promotes due upcoming reminders to pending and repairs
// orphans. Affected habits are collected first and given their replacement
// reminder once each, so several slots expiring in the same sweep cannot
// produce duplicate upcoming rows. Every failure here is logged and
// swallowed: the sweep must never fail the read that triggered it. Returns
// true when any row changed.
func (s *Service) sweepBatch(ctx context.Context, reminders []*models.Reminder, now time.Time) bool {
	changed := false
	affected := make(map[string]*models.Habit)

	for _, reminder := range reminders {
		habit, err := s.habits.GetByID(ctx, reminder.HabitID, reminder.UserID)
		if err != nil {
			s.logger.WithError(err).Errorf("Failed to resolve habit %s during sweep", reminder.HabitID)
			continue
		}
		if habit == nil {
			if err := s.reminders.Delete(ctx, reminder.ID, reminder.UserID); err != nil {
				s.logger.WithError(err).Errorf("Failed to remove orphaned reminder %s", reminder.ID)
				continue
			}
			metrics.OrphansRepaired.Inc()
			s.logger.Warnf("Removed orphaned reminder %s (habit %s is gone)", reminder.ID, reminder.HabitID)
			changed = true
			continue
		}

		if !reminder.IsDue(now) {
			continue
		}

		unlock := s.lockHabit(habit.ID)
		// Reload under the lock: an answer or snooze committed after the
		// snapshot was taken must not be overwritten back to pending.
		current, err := s.reminders.GetByID(ctx, reminder.ID, reminder.UserID)
		if err != nil {
			unlock()
			s.logger.WithError(err).Errorf("Failed to reload reminder %s during sweep", reminder.ID)
			continue
		}
		if current == nil || !current.IsDue(now) {
			unlock()
			continue
		}
		current.Status = models.ReminderStatusPending
		_, err = s.reminders.Update(ctx, current)
		unlock()
		if err != nil {
			s.logger.WithError(err).Errorf("Failed to promote reminder %s", reminder.ID)
			continue
		}

		changed = true
		metrics.RemindersFired.Inc()
		s.notifyReminder(ctx, habit, current)
		affected[habit.ID] = habit
	}

	for _, habit := range affected {
		unlock := s.lockHabit(habit.ID)
		err := s.syncUpcoming(ctx, habit, now, time.Time{})
		unlock()
		if err != nil {
			// The habit stays without an upcoming reminder until the next
			// successful pass.
			s.logger.WithError(err).Errorf("Failed to create next reminder for habit %s", habit.ID)
		}
	}

	return changed
}
