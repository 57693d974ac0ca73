package service

import (
	"context"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/metrics"
	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/schedule"
)

// CreateHabit validates and stores a new habit and spawns its first
// reminder. A habit created in the running state with a target instant
// already in the past gets a pending reminder and an immediate
// notification.
func (s *Service) CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	if habit.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidSchedule)
	}
	if habit.State == "" {
		habit.State = models.HabitStateRunning
	}
	if err := habit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	now := time.Now()

	// Compute the first occurrence before persisting so an unsatisfiable
	// schedule fails the whole create.
	var first time.Time
	if habit.State == models.HabitStateRunning {
		var err error
		first, err = schedule.NextOccurrence(habit.Frequency, habit.Slots, now, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to compute first occurrence: %w", err)
		}
	}

	created, err := s.habits.Create(ctx, habit)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	if created.State == models.HabitStateRunning {
		if _, err := s.createReminder(ctx, created, first, now); err != nil {
			return nil, err
		}
	}

	s.logger.Infof("Created habit %s (%q) for user %s", created.ID, created.Question, created.UserID)
	return created, nil
}

// GetHabit loads a habit scoped to its owner
func (s *Service) GetHabit(ctx context.Context, id, userID string) (*models.Habit, error) {
	habit, err := s.habits.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %s: %w", id, err)
	}
	if habit == nil {
		return nil, fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}
	return habit, nil
}

// ListHabits returns all habits owned by the user
func (s *Service) ListHabits(ctx context.Context, userID string) ([]*models.Habit, error) {
	habits, err := s.habits.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits for user %s: %w", userID, err)
	}
	return habits, nil
}

// UpdateHabit updates the habit's descriptive fields and schedule. State is
// not changed here; use SetHabitState. A schedule change on a running habit
// retargets its upcoming reminder in place, or creates one when absent.
// Pending and answered reminders are untouched.
func (s *Service) UpdateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	unlock := s.lockHabit(habit.ID)
	defer unlock()

	existing, err := s.habits.GetByID(ctx, habit.ID, habit.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %s: %w", habit.ID, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: habit %s", ErrNotFound, habit.ID)
	}

	habit.State = existing.State
	habit.CreatedAt = existing.CreatedAt
	if err := habit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	updated, err := s.habits.Update(ctx, habit)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit %s: %w", habit.ID, err)
	}

	if updated.State == models.HabitStateRunning {
		if err := s.applyScheduleChange(ctx, updated, time.Now()); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// validateStateTransition enforces the habit state machine: running pauses
// or archives, paused archives or resumes, archived only resumes. Same-state
// requests are rejected like reminder no-op transitions.
func validateStateTransition(from, to models.HabitState) error {
	if from == to {
		return fmt.Errorf("%w: habit is already %s", ErrInvalidTransition, from)
	}
	switch {
	case from == models.HabitStateRunning && to == models.HabitStatePaused:
		return nil
	case (from == models.HabitStateRunning || from == models.HabitStatePaused) && to == models.HabitStateArchived:
		return nil
	case (from == models.HabitStatePaused || from == models.HabitStateArchived) && to == models.HabitStateRunning:
		return nil
	}
	return fmt.Errorf("%w: cannot move habit from %s to %s", ErrInvalidTransition, from, to)
}

// SetHabitState transitions the habit between running, paused and archived,
// cascading into its reminders: pausing drops the upcoming reminder,
// archiving additionally drops pending ones, resuming recreates the next
// reminder.
func (s *Service) SetHabitState(ctx context.Context, id, userID string, state models.HabitState) (*models.Habit, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: unknown habit state %q", ErrInvalidTransition, state)
	}

	unlock := s.lockHabit(id)
	defer unlock()

	habit, err := s.habits.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %s: %w", id, err)
	}
	if habit == nil {
		return nil, fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}

	if err := validateStateTransition(habit.State, state); err != nil {
		return nil, err
	}

	habit.State = state
	updated, err := s.habits.Update(ctx, habit)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit %s: %w", id, err)
	}

	switch state {
	case models.HabitStatePaused:
		if err := s.reminders.DeleteByHabit(ctx, id, userID, models.ReminderStatusUpcoming); err != nil {
			return nil, fmt.Errorf("failed to remove upcoming reminders for habit %s: %w", id, err)
		}
	case models.HabitStateArchived:
		if err := s.reminders.DeleteByHabit(ctx, id, userID,
			models.ReminderStatusUpcoming, models.ReminderStatusPending); err != nil {
			return nil, fmt.Errorf("failed to remove reminders for habit %s: %w", id, err)
		}
	case models.HabitStateRunning:
		if err := s.resumeReminder(ctx, updated, time.Now()); err != nil {
			return nil, err
		}
	}

	s.logger.Infof("Habit %s moved to %s", id, state)
	return updated, nil
}

// resumeReminder creates the next reminder after a habit returns to the
// running state. A one-time habit that already spawned its single reminder
// stays without one.
func (s *Service) resumeReminder(ctx context.Context, habit *models.Habit, now time.Time) error {
	if !habit.Frequency.Recurring() {
		existing, err := s.reminders.GetByHabit(ctx, habit.ID, habit.UserID)
		if err != nil {
			return fmt.Errorf("failed to load reminders for habit %s: %w", habit.ID, err)
		}
		if len(existing) > 0 {
			return nil
		}
	}

	next, err := schedule.NextOccurrence(habit.Frequency, habit.Slots, now, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to compute next occurrence for habit %s: %w", habit.ID, err)
	}

	_, err = s.createReminder(ctx, habit, next, now)
	return err
}

// applyScheduleChange reconciles the forward-looking reminder after the
// habit's frequency or slots changed. Conversions between one-time and
// recurring follow the same rule: only the upcoming row is replaced.
func (s *Service) applyScheduleChange(ctx context.Context, habit *models.Habit, now time.Time) error {
	existing, err := s.reminders.GetUpcomingByHabit(ctx, habit.ID, habit.UserID)
	if err != nil {
		return fmt.Errorf("failed to load upcoming reminder for habit %s: %w", habit.ID, err)
	}

	next, err := schedule.NextOccurrence(habit.Frequency, habit.Slots, now, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to compute next occurrence for habit %s: %w", habit.ID, err)
	}

	if existing == nil {
		if !habit.Frequency.Recurring() {
			// The single one-time reminder is never recreated once resolved.
			rows, err := s.reminders.GetByHabit(ctx, habit.ID, habit.UserID)
			if err != nil {
				return fmt.Errorf("failed to load reminders for habit %s: %w", habit.ID, err)
			}
			if len(rows) > 0 {
				return nil
			}
		}
		_, err := s.createReminder(ctx, habit, next, now)
		return err
	}

	if existing.ScheduledAt.Equal(next) {
		return nil
	}

	existing.ScheduledAt = next
	becamePending := false
	if status := statusFor(next, now); status != existing.Status {
		// A conversion to a one-time date in the past makes the reminder
		// immediately due.
		existing.Status = status
		becamePending = status == models.ReminderStatusPending
	}
	if _, err := s.reminders.Update(ctx, existing); err != nil {
		return fmt.Errorf("failed to retarget upcoming reminder for habit %s: %w", habit.ID, err)
	}
	if becamePending {
		metrics.RemindersFired.Inc()
		s.notifyReminder(ctx, habit, existing)
	}
	return nil
}

// DeleteHabit removes the habit and all of its reminders
func (s *Service) DeleteHabit(ctx context.Context, id, userID string) error {
	unlock := s.lockHabit(id)
	defer unlock()

	habit, err := s.habits.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to get habit %s: %w", id, err)
	}
	if habit == nil {
		return fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}

	if err := s.reminders.DeleteByHabit(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete reminders for habit %s: %w", id, err)
	}
	if err := s.habits.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}

	s.logger.Infof("Deleted habit %s and its reminders", id)
	return nil
}
