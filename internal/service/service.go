package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
)

// Dispatcher sends a due reminder to the user's enabled notification
// channels. Implementations aggregate per-channel failures into the
// returned error; the service logs and swallows it.
type Dispatcher interface {
	Dispatch(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error
}

// Service is the business logic layer for habits and their reminders. All
// reminder-affecting operations go through it so the single-upcoming
// invariant is maintained in one place.
type Service struct {
	logger     *logrus.Logger
	users      repository.UserRepository
	habits     repository.HabitRepository
	reminders  repository.ReminderRepository
	dispatcher Dispatcher

	mu         sync.Mutex
	habitLocks map[string]*sync.Mutex
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger,
	users repository.UserRepository,
	habits repository.HabitRepository,
	reminders repository.ReminderRepository,
	dispatcher Dispatcher,
) *Service {
	return &Service{
		logger:     logger,
		users:      users,
		habits:     habits,
		reminders:  reminders,
		dispatcher: dispatcher,
		habitLocks: make(map[string]*sync.Mutex),
	}
}

// lockHabit serializes reminder-affecting operations per habit so that e.g.
// a double-click completing the same reminder twice fails on the status
// check instead of double-firing side effects. The returned func releases
// the lock.
func (s *Service) lockHabit(habitID string) func() {
	s.mu.Lock()
	lock, ok := s.habitLocks[habitID]
	if !ok {
		lock = &sync.Mutex{}
		s.habitLocks[habitID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
