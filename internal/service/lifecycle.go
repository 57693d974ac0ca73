package service

import (
	"context"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/metrics"
	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/schedule"
)

// validateTransition checks a reminder status change against the state
// machine: upcoming -> pending -> answered, with answered reachable from
// either of the first two. Re-entering the current status is rejected so a
// duplicated request fails cleanly instead of re-firing side effects.
func validateTransition(from, to models.ReminderStatus) error {
	if from == to {
		return fmt.Errorf("%w: reminder is already %s", ErrInvalidTransition, from)
	}
	switch {
	case from == models.ReminderStatusUpcoming && to == models.ReminderStatusPending:
		return nil
	case from == models.ReminderStatusUpcoming && to == models.ReminderStatusAnswered:
		return nil
	case from == models.ReminderStatusPending && to == models.ReminderStatusAnswered:
		return nil
	}
	return fmt.Errorf("%w: cannot move reminder from %s to %s", ErrInvalidTransition, from, to)
}

// statusFor returns the status a reminder targeted at instant is born with:
// upcoming while the instant is in the future, pending once it has arrived.
func statusFor(instant, now time.Time) models.ReminderStatus {
	if instant.After(now) {
		return models.ReminderStatusUpcoming
	}
	return models.ReminderStatusPending
}

// createReminder writes a new reminder for the habit at the given instant.
// A reminder born pending fires notification dispatch immediately.
func (s *Service) createReminder(ctx context.Context, habit *models.Habit, instant, now time.Time) (*models.Reminder, error) {
	reminder := &models.Reminder{
		UserID:      habit.UserID,
		HabitID:     habit.ID,
		ScheduledAt: instant,
		Status:      statusFor(instant, now),
	}

	created, err := s.reminders.Create(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder for habit %s: %w", habit.ID, err)
	}

	if created.Status == models.ReminderStatusPending {
		metrics.RemindersFired.Inc()
		s.notifyReminder(ctx, habit, created)
	}

	return created, nil
}

// notifyReminder dispatches the reminder to the owner's channels. Dispatch
// is best-effort: failures are logged and swallowed, never rolled back into
// the state change that triggered them.
func (s *Service) notifyReminder(ctx context.Context, habit *models.Habit, reminder *models.Reminder) {
	user, err := s.users.GetByID(ctx, habit.UserID)
	if err != nil {
		s.logger.WithError(err).Errorf("Failed to load user %s for notification", habit.UserID)
		return
	}
	if user == nil {
		s.logger.Warnf("No user %s for reminder %s, skipping notification", habit.UserID, reminder.ID)
		return
	}

	if err := s.dispatcher.Dispatch(ctx, user, habit, reminder); err != nil {
		s.logger.WithError(err).Errorf("Failed to notify user %s for reminder %s", user.ID, reminder.ID)
	}
}

// syncUpcoming reconciles the habit's single upcoming reminder with its
// current state and schedule: create it if absent, retarget it if present,
// delete it when the habit is not running or the frequency is one-time.
// exclude skips the instant of a just-resolved occurrence so the same slot
// is not selected again on the same day.
func (s *Service) syncUpcoming(ctx context.Context, habit *models.Habit, now, exclude time.Time) error {
	existing, err := s.reminders.GetUpcomingByHabit(ctx, habit.ID, habit.UserID)
	if err != nil {
		return fmt.Errorf("failed to load upcoming reminder for habit %s: %w", habit.ID, err)
	}

	if habit.State != models.HabitStateRunning || !habit.Frequency.Recurring() {
		if existing != nil {
			if err := s.reminders.Delete(ctx, existing.ID, existing.UserID); err != nil {
				return fmt.Errorf("failed to delete upcoming reminder for habit %s: %w", habit.ID, err)
			}
		}
		return nil
	}

	next, err := schedule.NextOccurrence(habit.Frequency, habit.Slots, now, exclude)
	if err != nil {
		return fmt.Errorf("failed to compute next occurrence for habit %s: %w", habit.ID, err)
	}

	if existing != nil {
		if existing.ScheduledAt.Equal(next) {
			return nil
		}
		existing.ScheduledAt = next
		if _, err := s.reminders.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to retarget upcoming reminder for habit %s: %w", habit.ID, err)
		}
		return nil
	}

	_, err = s.createReminder(ctx, habit, next, now)
	return err
}
