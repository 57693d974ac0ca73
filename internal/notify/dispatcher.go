package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/metrics"
	"github.com/habitloop/habitloop/internal/models"
)

// Channel delivers a due-reminder notification over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error
}

// Dispatcher fans a due reminder out to the channels the user has enabled.
type Dispatcher struct {
	channels map[string]Channel
	logger   *logrus.Logger
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(logger *logrus.Logger, channels ...Channel) *Dispatcher {
	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &Dispatcher{channels: byName, logger: logger}
}

// Dispatch sends the reminder on every enabled channel. Channels run
// concurrently and are awaited collectively; one channel failing never
// suppresses another's send. Failures come back aggregated so the caller
// can log them without losing detail.
func (d *Dispatcher) Dispatch(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)

	for _, name := range user.EnabledChannels() {
		ch, ok := d.channels[name]
		if !ok {
			d.logger.Warnf("No notification channel %q configured for user %s", name, user.ID)
			continue
		}

		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, user, habit, reminder); err != nil {
				metrics.Notifications.WithLabelValues(ch.Name(), "error").Inc()
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("channel %s: %w", ch.Name(), err))
				mu.Unlock()
				return
			}
			metrics.Notifications.WithLabelValues(ch.Name(), "sent").Inc()
		}(ch)
	}

	wg.Wait()
	return result.ErrorOrNil()
}
