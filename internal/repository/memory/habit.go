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

type habitRepository struct {
	mu     sync.RWMutex
	habits map[string]*models.Habit
}

// NewHabitRepository creates an in-memory habit repository
func NewHabitRepository() repository.HabitRepository {
	return &habitRepository{habits: make(map[string]*models.Habit)}
}

func (r *habitRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if habit.ID == "" {
		habit.ID = newID()
	}
	habit.CreatedAt = now
	habit.UpdatedAt = now

	r.habits[habit.ID] = cloneHabit(habit)
	return habit, nil
}

func (r *habitRepository) GetByID(ctx context.Context, id, userID string) (*models.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.habits[id]
	if !ok || habit.UserID != userID {
		return nil, nil
	}
	return cloneHabit(habit), nil
}

func (r *habitRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*models.Habit
	for _, habit := range r.habits {
		if habit.UserID == userID {
			habits = append(habits, cloneHabit(habit))
		}
	}
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.habits[habit.ID]
	if !ok || existing.UserID != habit.UserID {
		return nil, fmt.Errorf("habit %s not found", habit.ID)
	}

	habit.UpdatedAt = time.Now()
	r.habits[habit.ID] = cloneHabit(habit)
	return habit, nil
}

func (r *habitRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.habits[id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("habit %s not found", id)
	}

	delete(r.habits, id)
	return nil
}
