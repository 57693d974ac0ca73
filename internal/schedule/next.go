package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/models"
)

// scanCeiling bounds the forward day scan so specifications that can never
// match (e.g. a fifth Monday that a month lacks for years) still terminate.
const scanCeiling = 1000

// ErrExhausted is returned when the scan ceiling is reached without finding
// a qualifying instant.
var ErrExhausted = errors.New("recurrence scan exhausted without a match")

// NextOccurrence returns the nearest instant strictly after now at which the
// frequency and one of the time slots line up. The exclude instant, when
// non-zero, is skipped so a just-resolved occurrence is not selected again.
//
// One-time frequencies short-circuit the scan: the single candidate is the
// configured date combined with the first slot, returned even when it is
// already in the past so the caller can decide between an upcoming and an
// immediately pending reminder.
func NextOccurrence(f models.Frequency, slots []models.TimeSlot, now, exclude time.Time) (time.Time, error) {
	if len(slots) == 0 {
		return time.Time{}, fmt.Errorf("no time slots configured")
	}

	if f.Kind == models.FrequencyOnce {
		d := f.Date
		slot := slots[0]
		return time.Date(d.Year(), d.Month(), d.Day(), slot.Hour, slot.Minute, 0, 0, now.Location()), nil
	}

	var best time.Time
	for _, slot := range slots {
		candidate, err := nextForSlot(f, slot, now, exclude)
		if err != nil {
			continue
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	if best.IsZero() {
		return time.Time{}, ErrExhausted
	}
	return best, nil
}

// nextForSlot scans forward one day at a time from today's slot instant.
// Candidates at or before now, or equal to exclude, are advanced past before
// the frequency rule is consulted. Every day qualifies for daily habits, so
// they return without scanning.
func nextForSlot(f models.Frequency, slot models.TimeSlot, now, exclude time.Time) (time.Time, error) {
	candidate := slot.At(now)

	if f.Kind == models.FrequencyDaily {
		for !candidate.After(now) || candidate.Equal(exclude) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, nil
	}

	for i := 0; i < scanCeiling; i++ {
		if !candidate.After(now) || candidate.Equal(exclude) {
			candidate = candidate.AddDate(0, 0, 1)
			continue
		}
		if Matches(f, candidate) {
			return candidate, nil
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return time.Time{}, ErrExhausted
}
