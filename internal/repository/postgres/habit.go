package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
)

type habitRepository struct {
	db *sql.DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *sql.DB) repository.HabitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	query := `
		INSERT INTO habits (id, user_id, question, details, icon, state, frequency, slots, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	if habit.ID == "" {
		habit.ID = uuid.New().String()
	}
	habit.CreatedAt = now
	habit.UpdatedAt = now

	frequency, err := json.Marshal(habit.Frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frequency: %w", err)
	}
	slots, err := json.Marshal(habit.Slots)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slots: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Question,
		habit.Details,
		habit.Icon,
		habit.State,
		frequency,
		slots,
		habit.CreatedAt,
		habit.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return habit, nil
}

func (r *habitRepository) GetByID(ctx context.Context, id, userID string) (*models.Habit, error) {
	query := `
		SELECT id, user_id, question, details, icon, state, frequency, slots, created_at, updated_at
		FROM habits
		WHERE id = $1 AND user_id = $2`

	habit, err := scanHabit(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	return habit, nil
}

func (r *habitRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Habit, error) {
	query := `
		SELECT id, user_id, question, details, icon, state, frequency, slots, created_at, updated_at
		FROM habits
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits by user ID: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, habit)
	}

	return habits, rows.Err()
}

func (r *habitRepository) Update(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	query := `
		UPDATE habits
		SET question = $3, details = $4, icon = $5, state = $6, frequency = $7, slots = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2`

	habit.UpdatedAt = time.Now()

	frequency, err := json.Marshal(habit.Frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frequency: %w", err)
	}
	slots, err := json.Marshal(habit.Slots)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slots: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Question,
		habit.Details,
		habit.Icon,
		habit.State,
		frequency,
		slots,
		habit.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("habit %s not found", habit.ID)
	}

	return habit, nil
}

func (r *habitRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM habits WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit %s not found", id)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(s scanner) (*models.Habit, error) {
	habit := &models.Habit{}
	var frequency, slots []byte

	if err := s.Scan(
		&habit.ID,
		&habit.UserID,
		&habit.Question,
		&habit.Details,
		&habit.Icon,
		&habit.State,
		&frequency,
		&slots,
		&habit.CreatedAt,
		&habit.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(frequency, &habit.Frequency); err != nil {
		return nil, fmt.Errorf("failed to decode frequency: %w", err)
	}
	if err := json.Unmarshal(slots, &habit.Slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	return habit, nil
}
