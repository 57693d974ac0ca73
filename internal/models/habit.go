package models

import (
	"fmt"
	"time"
)

// HabitState represents the lifecycle state of a habit
type HabitState string

const (
	HabitStateRunning  HabitState = "running"
	HabitStatePaused   HabitState = "paused"
	HabitStateArchived HabitState = "archived"
)

// Valid reports whether the state is one of the known habit states.
func (s HabitState) Valid() bool {
	switch s {
	case HabitStateRunning, HabitStatePaused, HabitStateArchived:
		return true
	}
	return false
}

// FrequencyKind identifies which rule of the frequency union applies
type FrequencyKind string

const (
	FrequencyDaily          FrequencyKind = "daily"
	FrequencyWeekly         FrequencyKind = "weekly"
	FrequencyMonthlyDays    FrequencyKind = "monthly_days"
	FrequencyMonthlyLastDay FrequencyKind = "monthly_last_day"
	FrequencyMonthlyWeekday FrequencyKind = "monthly_weekday"
	FrequencyYearlyDate     FrequencyKind = "yearly_date"
	FrequencyYearlyWeekday  FrequencyKind = "yearly_weekday"
	FrequencyOnce           FrequencyKind = "once"
)

// Frequency describes which calendar dates qualify for a reminder. Only the
// fields belonging to the Kind are meaningful; Validate enforces that they
// are present.
type Frequency struct {
	Kind      FrequencyKind  `json:"kind"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`   // weekly
	MonthDays []int          `json:"month_days,omitempty"` // monthly_days
	Weekday   time.Weekday   `json:"weekday,omitempty"`    // monthly_weekday, yearly_weekday
	Ordinal   int            `json:"ordinal,omitempty"`    // 1-5, Nth occurrence
	Month     time.Month     `json:"month,omitempty"`      // yearly_date
	Day       int            `json:"day,omitempty"`        // yearly_date
	Date      time.Time      `json:"date,omitempty"`       // once
}

// Recurring reports whether the frequency produces more than one occurrence.
func (f Frequency) Recurring() bool {
	return f.Kind != FrequencyOnce
}

// Validate checks that the fields required by the frequency kind are set and
// within range.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyDaily, FrequencyMonthlyLastDay:
		return nil
	case FrequencyWeekly:
		if len(f.Weekdays) == 0 {
			return fmt.Errorf("weekly frequency requires at least one weekday")
		}
		seen := make(map[time.Weekday]bool, len(f.Weekdays))
		for _, d := range f.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("weekday %d out of range", d)
			}
			if seen[d] {
				return fmt.Errorf("duplicate weekday %s", d)
			}
			seen[d] = true
		}
		return nil
	case FrequencyMonthlyDays:
		if len(f.MonthDays) == 0 {
			return fmt.Errorf("monthly frequency requires at least one day of month")
		}
		seen := make(map[int]bool, len(f.MonthDays))
		for _, d := range f.MonthDays {
			if d < 1 || d > 31 {
				return fmt.Errorf("day of month %d out of range", d)
			}
			if seen[d] {
				return fmt.Errorf("duplicate day of month %d", d)
			}
			seen[d] = true
		}
		return nil
	case FrequencyMonthlyWeekday, FrequencyYearlyWeekday:
		if f.Weekday < time.Sunday || f.Weekday > time.Saturday {
			return fmt.Errorf("weekday %d out of range", f.Weekday)
		}
		if f.Ordinal < 1 || f.Ordinal > 5 {
			return fmt.Errorf("ordinal %d out of range (1-5)", f.Ordinal)
		}
		return nil
	case FrequencyYearlyDate:
		if f.Month < time.January || f.Month > time.December {
			return fmt.Errorf("month %d out of range", f.Month)
		}
		if f.Day < 1 || f.Day > 31 {
			return fmt.Errorf("day %d out of range", f.Day)
		}
		return nil
	case FrequencyOnce:
		if f.Date.IsZero() {
			return fmt.Errorf("one-time frequency requires a date")
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency kind %q", f.Kind)
	}
}

// TimeSlot is a fixed time of day at which a qualifying date produces a
// reminder instant.
type TimeSlot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// At combines the slot with the calendar date of t, in t's location.
func (s TimeSlot) At(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
}

// MaxTimeSlots is the upper bound on slots per habit.
const MaxTimeSlots = 5

// Habit represents a recurring activity the user wants reminders for
type Habit struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Question  string     `json:"question" db:"question"`
	Details   string     `json:"details,omitempty" db:"details"`
	Icon      string     `json:"icon,omitempty" db:"icon"`
	State     HabitState `json:"state" db:"state"`
	Frequency Frequency  `json:"frequency"`
	Slots     []TimeSlot `json:"slots"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks the schedule-bearing fields of the habit: a known state, a
// valid frequency and 1-5 unique time slots.
func (h *Habit) Validate() error {
	if h.Question == "" {
		return fmt.Errorf("question is required")
	}
	if !h.State.Valid() {
		return fmt.Errorf("unknown habit state %q", h.State)
	}
	if err := h.Frequency.Validate(); err != nil {
		return err
	}
	if len(h.Slots) == 0 {
		return fmt.Errorf("at least one time slot is required")
	}
	if len(h.Slots) > MaxTimeSlots {
		return fmt.Errorf("at most %d time slots are allowed", MaxTimeSlots)
	}
	seen := make(map[TimeSlot]bool, len(h.Slots))
	for _, slot := range h.Slots {
		if slot.Hour < 0 || slot.Hour > 23 {
			return fmt.Errorf("slot hour %d out of range", slot.Hour)
		}
		if slot.Minute < 0 || slot.Minute > 59 {
			return fmt.Errorf("slot minute %d out of range", slot.Minute)
		}
		if seen[slot] {
			return fmt.Errorf("duplicate time slot %02d:%02d", slot.Hour, slot.Minute)
		}
		seen[slot] = true
	}
	return nil
}
