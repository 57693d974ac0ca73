package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUserRepository creates an in-memory user repository
func NewUserRepository() repository.UserRepository {
	return &userRepository{users: make(map[string]*models.User)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if user.ID == "" {
		user.ID = newID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(user), nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return nil, fmt.Errorf("user %s not found", user.ID)
	}

	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s not found", id)
	}

	delete(r.users, id)
	return nil
}
