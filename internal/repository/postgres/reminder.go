package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository"
)

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

const reminderColumns = `id, user_id, habit_id, scheduled_at, status, value, notes, created_at, updated_at`

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `
		INSERT INTO reminders (id, user_id, habit_id, scheduled_at, status, value, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if reminder.ID == "" {
		reminder.ID = uuid.New().String()
	}
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.UserID,
		reminder.HabitID,
		reminder.ScheduledAt,
		reminder.Status,
		nullValue(reminder.Value),
		reminder.Notes,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id, userID string) (*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1 AND user_id = $2`

	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) GetUpcomingByHabit(ctx context.Context, habitID, userID string) (*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE habit_id = $1 AND user_id = $2 AND status = $3
		ORDER BY scheduled_at ASC
		LIMIT 1`

	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, habitID, userID, models.ReminderStatusUpcoming))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get upcoming reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) GetByHabit(ctx context.Context, habitID, userID string) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE habit_id = $1 AND user_id = $2
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders by habit: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *reminderRepository) GetActiveByUser(ctx context.Context, userID string) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID,
		models.ReminderStatusPending, models.ReminderStatusUpcoming)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *reminderRepository) GetDueUpcoming(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ReminderStatusUpcoming, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `
		UPDATE reminders
		SET scheduled_at = $3, status = $4, value = $5, notes = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2`

	reminder.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.UserID,
		reminder.ScheduledAt,
		reminder.Status,
		nullValue(reminder.Value),
		reminder.Notes,
		reminder.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("reminder %s not found", reminder.ID)
	}

	return reminder, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM reminders WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reminder %s not found", id)
	}

	return nil
}

func (r *reminderRepository) DeleteByHabit(ctx context.Context, habitID, userID string, statuses ...models.ReminderStatus) error {
	if len(statuses) == 0 {
		query := `DELETE FROM reminders WHERE habit_id = $1 AND user_id = $2`
		if _, err := r.db.ExecContext(ctx, query, habitID, userID); err != nil {
			return fmt.Errorf("failed to delete reminders for habit: %w", err)
		}
		return nil
	}

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `DELETE FROM reminders WHERE habit_id = $1 AND user_id = $2 AND status = ANY($3)`
	if _, err := r.db.ExecContext(ctx, query, habitID, userID, pq.Array(names)); err != nil {
		return fmt.Errorf("failed to delete reminders for habit: %w", err)
	}
	return nil
}

// nullValue maps the zero reminder value to SQL NULL
func nullValue(v models.ReminderValue) sql.NullString {
	return sql.NullString{String: string(v), Valid: v != ""}
}

func scanReminder(s scanner) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var value sql.NullString

	if err := s.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.HabitID,
		&reminder.ScheduledAt,
		&reminder.Status,
		&value,
		&reminder.Notes,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if value.Valid {
		reminder.Value = models.ReminderValue(value.String)
	}

	return reminder, nil
}

func collectReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
