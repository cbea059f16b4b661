package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	RunsDispatched = prometheus.NewCounter(prometheus.CounterOpts{Name: "automation_runs_dispatched_total", Help: "Runs handed to the executor by the scheduler"})
	RunsSucceeded  = prometheus.NewCounter(prometheus.CounterOpts{Name: "automation_runs_succeeded_total", Help: "Runs whose content generation succeeded"})
	RunsFailed     = prometheus.NewCounter(prometheus.CounterOpts{Name: "automation_runs_failed_total", Help: "Runs whose content generation failed"})
	RunsInFlight   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "automation_runs_inflight", Help: "Runs currently processing"})

	DueSkippedBusy      = prometheus.NewCounter(prometheus.CounterOpts{Name: "automation_due_skipped_busy_total", Help: "Due automations skipped because a run was already processing"})
	DueSkippedExhausted = prometheus.NewCounter(prometheus.CounterOpts{Name: "automation_due_skipped_exhausted_total", Help: "Due automations skipped because the queue was exhausted"})

	PlatformPostSuccess  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "platform_posts_succeeded_total", Help: "Successful platform posts"}, []string{"platform"})
	PlatformPostFailures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "platform_posts_failed_total", Help: "Failed platform posts"}, []string{"platform"})
)

// Register installs all collectors on the default registry. Safe to call more
// than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RunsDispatched,
			RunsSucceeded,
			RunsFailed,
			RunsInFlight,
			DueSkippedBusy,
			DueSkippedExhausted,
			PlatformPostSuccess,
			PlatformPostFailures,
		)
	})
}
