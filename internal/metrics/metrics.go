// Package metrics exposes the Prometheus instruments for the reminder
// engine. Collectors are registered on the default registry and served by
// the HTTP layer under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersFired counts reminders promoted from upcoming to pending.
	RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "habitloop_reminders_fired_total",
		Help: "Number of reminders that became pending and triggered notification dispatch.",
	})

	// Notifications counts notification sends by channel and outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitloop_notifications_total",
		Help: "Notification send attempts partitioned by channel and status.",
	}, []string{"channel", "status"})

	// OrphansRepaired counts reminders deleted because their habit no
	// longer exists.
	OrphansRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "habitloop_orphan_reminders_repaired_total",
		Help: "Number of orphaned reminders removed during listing.",
	})
)
