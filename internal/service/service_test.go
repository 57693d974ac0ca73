package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
	"github.com/habitloop/habitloop/internal/repository/memory"
)

const testUserID = "user-1"

// fakeDispatcher records every dispatch so tests can assert on notification
// side effects without real channels.
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []*models.Reminder
	err  error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, reminder)
	return d.err
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type testEnv struct {
	svc        *Service
	habits     repository.HabitRepository
	reminders  repository.ReminderRepository
	dispatcher *fakeDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := memory.NewUserRepository()
	habits := memory.NewHabitRepository()
	reminders := memory.NewReminderRepository()
	dispatcher := &fakeDispatcher{}

	if _, err := users.Create(context.Background(), &models.User{
		ID:    testUserID,
		Name:  "Test User",
		Email: "test@example.com",
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return &testEnv{
		svc:        New(logger, users, habits, reminders, dispatcher),
		habits:     habits,
		reminders:  reminders,
		dispatcher: dispatcher,
	}
}

func dailyHabit() *models.Habit {
	return &models.Habit{
		UserID:    testUserID,
		Question:  "Did you stretch?",
		Frequency: models.Frequency{Kind: models.FrequencyDaily},
		Slots:     []models.TimeSlot{{Hour: 9, Minute: 0}},
	}
}

// mustCreateHabit creates the habit and returns it together with the
// reminder spawned for it.
func mustCreateHabit(t *testing.T, env *testEnv, habit *models.Habit) (*models.Habit, *models.Reminder) {
	t.Helper()

	created, err := env.svc.CreateHabit(context.Background(), habit)
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	rows, err := env.reminders.GetByHabit(context.Background(), created.ID, created.UserID)
	if err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one reminder after create, got %d", len(rows))
	}
	return created, rows[0]
}
