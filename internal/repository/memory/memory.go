// Package memory provides map-backed repository implementations. They back
// the service and API tests and are handy for running the server without a
// database.
package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/habitloop/internal/models"
)

func newID() string {
	return uuid.New().String()
}

func cloneHabit(h *models.Habit) *models.Habit {
	c := *h
	c.Slots = append([]models.TimeSlot(nil), h.Slots...)
	c.Frequency.Weekdays = append([]time.Weekday(nil), h.Frequency.Weekdays...)
	c.Frequency.MonthDays = append([]int(nil), h.Frequency.MonthDays...)
	return &c
}

func cloneReminder(r *models.Reminder) *models.Reminder {
	c := *r
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Channels = append([]string(nil), u.Channels...)
	return &c
}
