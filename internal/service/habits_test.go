package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/schedule"
)

func TestCreateHabitSpawnsUpcomingReminder(t *testing.T) {
	env := newTestEnv(t)

	habit, reminder := mustCreateHabit(t, env, dailyHabit())

	if habit.State != models.HabitStateRunning {
		t.Errorf("new habit state = %s, want running", habit.State)
	}
	if reminder.Status != models.ReminderStatusUpcoming {
		t.Errorf("first reminder status = %s, want upcoming", reminder.Status)
	}
	if !reminder.ScheduledAt.After(time.Now().Add(-time.Second)) {
		t.Errorf("first reminder scheduled in the past: %s", reminder.ScheduledAt)
	}
	if env.dispatcher.count() != 0 {
		t.Errorf("upcoming reminder dispatched %d notifications", env.dispatcher.count())
	}
}

func TestCreateHabitRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)

	habit := dailyHabit()
	habit.Slots = nil

	if _, err := env.svc.CreateHabit(context.Background(), habit); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("got %v, want ErrInvalidSchedule", err)
	}
}

func TestCreateHabitUnsatisfiableSchedule(t *testing.T) {
	env := newTestEnv(t)

	habit := dailyHabit()
	habit.Frequency = models.Frequency{
		Kind:  models.FrequencyYearlyDate,
		Month: time.February,
		Day:   30,
	}

	_, err := env.svc.CreateHabit(context.Background(), habit)
	if !errors.Is(err, schedule.ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}

	// Nothing must be persisted when the first occurrence cannot be found.
	habits, err := env.svc.ListHabits(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("failed to list habits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("unsatisfiable habit was persisted")
	}
}

func TestCreateHabitPausedStaysSilent(t *testing.T) {
	env := newTestEnv(t)

	habit := dailyHabit()
	habit.State = models.HabitStatePaused

	created, err := env.svc.CreateHabit(context.Background(), habit)
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	rows, err := env.reminders.GetByHabit(context.Background(), created.ID, created.UserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("paused habit spawned %d reminders", len(rows))
	}
}

func TestPauseDropsOnlyUpcoming(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())

	// A pending reminder from an earlier slot must survive the pause.
	pending, err := env.reminders.Create(ctx, &models.Reminder{
		UserID:      testUserID,
		HabitID:     habit.ID,
		ScheduledAt: time.Now().Add(-time.Hour),
		Status:      models.ReminderStatusPending,
	})
	if err != nil {
		t.Fatalf("failed to seed pending reminder: %v", err)
	}

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStatePaused); err != nil {
		t.Fatalf("failed to pause habit: %v", err)
	}

	rows, err := env.reminders.GetByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != pending.ID {
		t.Fatalf("pause should keep exactly the pending reminder, got %d rows", len(rows))
	}
}

func TestArchiveDropsPendingToo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())

	if _, err := env.reminders.Create(ctx, &models.Reminder{
		UserID:      testUserID,
		HabitID:     habit.ID,
		ScheduledAt: time.Now().Add(-time.Hour),
		Status:      models.ReminderStatusPending,
	}); err != nil {
		t.Fatalf("failed to seed pending reminder: %v", err)
	}

	answered, err := env.reminders.Create(ctx, &models.Reminder{
		UserID:      testUserID,
		HabitID:     habit.ID,
		ScheduledAt: time.Now().Add(-2 * time.Hour),
		Status:      models.ReminderStatusAnswered,
		Value:       models.ReminderValueCompleted,
	})
	if err != nil {
		t.Fatalf("failed to seed answered reminder: %v", err)
	}

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStateArchived); err != nil {
		t.Fatalf("failed to archive habit: %v", err)
	}

	rows, err := env.reminders.GetByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != answered.ID {
		t.Fatalf("archive should keep only answered history, got %d rows", len(rows))
	}
}

func TestResumeRecreatesReminder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStatePaused); err != nil {
		t.Fatalf("failed to pause habit: %v", err)
	}
	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStateRunning); err != nil {
		t.Fatalf("failed to resume habit: %v", err)
	}

	upcoming, err := env.reminders.GetUpcomingByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load upcoming reminder: %v", err)
	}
	if upcoming == nil {
		t.Fatal("resumed habit has no upcoming reminder")
	}
	if !upcoming.ScheduledAt.After(time.Now().Add(-time.Second)) {
		t.Errorf("resumed reminder scheduled in the past: %s", upcoming.ScheduledAt)
	}
}

func TestResumeOneTimeHabitIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit := dailyHabit()
	habit.Frequency = models.Frequency{
		Kind: models.FrequencyOnce,
		Date: time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour),
	}
	created, reminder := mustCreateHabit(t, env, habit)

	if _, err := env.svc.CompleteReminder(ctx, reminder.ID, testUserID); err != nil {
		t.Fatalf("failed to complete reminder: %v", err)
	}

	if _, err := env.svc.SetHabitState(ctx, created.ID, testUserID, models.HabitStatePaused); err != nil {
		t.Fatalf("failed to pause habit: %v", err)
	}
	if _, err := env.svc.SetHabitState(ctx, created.ID, testUserID, models.HabitStateRunning); err != nil {
		t.Fatalf("failed to resume habit: %v", err)
	}

	upcoming, err := env.reminders.GetUpcomingByHabit(ctx, created.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load upcoming reminder: %v", err)
	}
	if upcoming != nil {
		t.Error("answered one-time habit spawned a new reminder on resume")
	}
}

func TestSetHabitStateInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStateRunning); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("running -> running: got %v, want ErrInvalidTransition", err)
	}

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStateArchived); err != nil {
		t.Fatalf("failed to archive habit: %v", err)
	}
	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStatePaused); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("archived -> paused: got %v, want ErrInvalidTransition", err)
	}

	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, "sleeping"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("unknown state: got %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateHabitRetargetsUpcoming(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, old := mustCreateHabit(t, env, dailyHabit())

	habit.Slots = []models.TimeSlot{{Hour: 6, Minute: 30}}
	if _, err := env.svc.UpdateHabit(ctx, habit); err != nil {
		t.Fatalf("failed to update habit: %v", err)
	}

	rows, err := env.reminders.GetByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("schedule change should retarget in place, got %d rows", len(rows))
	}
	got := rows[0]
	if got.ID != old.ID {
		t.Errorf("upcoming reminder was replaced instead of retargeted")
	}
	if got.ScheduledAt.Equal(old.ScheduledAt) {
		t.Errorf("reminder instant unchanged after schedule change")
	}
	if h, m, _ := got.ScheduledAt.Clock(); h != 6 || m != 30 {
		t.Errorf("retargeted instant %s does not hit the 06:30 slot", got.ScheduledAt)
	}
}

func TestUpdateHabitKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())
	if _, err := env.svc.SetHabitState(ctx, habit.ID, testUserID, models.HabitStatePaused); err != nil {
		t.Fatalf("failed to pause habit: %v", err)
	}

	habit.State = models.HabitStateRunning // must be ignored
	habit.Question = "Did you hydrate?"
	updated, err := env.svc.UpdateHabit(ctx, habit)
	if err != nil {
		t.Fatalf("failed to update habit: %v", err)
	}

	if updated.State != models.HabitStatePaused {
		t.Errorf("update changed state to %s, want paused", updated.State)
	}
	upcoming, err := env.reminders.GetUpcomingByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load upcoming reminder: %v", err)
	}
	if upcoming != nil {
		t.Error("updating a paused habit created a reminder")
	}
}

func TestDeleteHabitCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, _ := mustCreateHabit(t, env, dailyHabit())

	if err := env.svc.DeleteHabit(ctx, habit.ID, testUserID); err != nil {
		t.Fatalf("failed to delete habit: %v", err)
	}

	if _, err := env.svc.GetHabit(ctx, habit.ID, testUserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	rows, err := env.reminders.GetByHabit(ctx, habit.ID, testUserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("%d reminders survived the habit delete", len(rows))
	}
}
