package service

import (
	"context"
	"time"
)

// StartSweeper runs a background loop that promotes due reminders at a
// fixed interval, for near-real-time delivery on top of the lazy
// read-triggered sweep. It blocks until the context is cancelled, so it
// should be launched in a separate goroutine.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Reminder sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder sweeper stopped")
			return
		case <-ticker.C:
			now := time.Now()
			due, err := s.reminders.GetDueUpcoming(ctx, now)
			if err != nil {
				s.logger.Errorf("Failed to get due reminders: %v", err)
				continue
			}
			s.sweepBatch(ctx, due, now)
		}
	}
}
