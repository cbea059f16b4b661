package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/telemetry"
)

// Clock abstracts wall-clock time so ticks can be driven deterministically in
// tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Enqueuer hands a due automation to the run executor.
type Enqueuer interface {
	EnqueueRun(automationID string) error
}

// Scheduler is the single process-wide tick loop. Every tick it scans the
// running automations and dispatches the ones due at the current wall-clock
// minute. Dispatch means enqueue: execution happens on the worker pool, never
// on the tick goroutine.
type Scheduler struct {
	ar    repository.AutomationRepository
	rr    repository.RunRepository
	enq   Enqueuer
	clock Clock
	tick  time.Duration

	mu        sync.Mutex
	lastFired map[string]string

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(ar repository.AutomationRepository, rr repository.RunRepository, enq Enqueuer, clock Clock, tick time.Duration) *Scheduler {
	if clock == nil {
		clock = systemClock{}
	}
	return &Scheduler{
		ar:        ar,
		rr:        rr,
		enq:       enq,
		clock:     clock,
		tick:      tick,
		lastFired: make(map[string]string),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the tick loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	slog.Info("scheduler started")
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(s.clock.Now())
			}
		}
	}()
}

// Stop halts future ticks. In-flight runs on the worker pool are unaffected.
// Safe to call more than once, or without a prior Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.done
		}
		slog.Info("scheduler stopped")
	})
}

// Tick evaluates every running automation against now and enqueues the due
// ones. Exported so tests can simulate ticks without sleeping.
func (s *Scheduler) Tick(now time.Time) {
	ctx := context.Background()

	automations, err := s.ar.ListByStatus(ctx, models.AutomationStatusRunning)
	if err != nil {
		slog.Info(fmt.Sprintf("scheduler tick: listing automations failed: %v", err))
		return
	}

	for _, a := range automations {
		if !isDue(a, now) {
			continue
		}
		if s.firedThisMinute(a.ID, now) {
			continue
		}
		if a.IsExhausted() {
			telemetry.DueSkippedExhausted.Inc()
			continue
		}

		processing, err := s.rr.CountProcessing(ctx, a.ID)
		if err != nil {
			slog.Info(fmt.Sprintf("scheduler tick: processing check for %s failed: %v", a.ID, err))
			continue
		}
		if processing > 0 {
			// A second trigger for a still-running automation is
			// dropped, not queued.
			telemetry.DueSkippedBusy.Inc()
			continue
		}

		// The minute is consumed only on a successful enqueue; a redis
		// hiccup leaves the slot eligible for the next tick.
		if err := s.enq.EnqueueRun(a.ID); err != nil {
			slog.Info(fmt.Sprintf("scheduler tick: enqueue for %s failed: %v", a.ID, err))
			continue
		}
		s.markFired(a.ID, now)
	}
}

// isDue reports whether the automation's schedule matches the given instant
// at minute granularity.
func isDue(a *models.Automation, now time.Time) bool {
	hhmm := now.Format("15:04")
	timeMatch := false
	for _, t := range a.ScheduleTimes {
		if t == hhmm {
			timeMatch = true
			break
		}
	}
	if !timeMatch {
		return false
	}

	// Empty schedule_days means every day.
	if len(a.ScheduleDays) == 0 {
		return true
	}
	weekday := strings.ToLower(now.Weekday().String())
	for _, d := range a.ScheduleDays {
		if strings.ToLower(d) == weekday {
			return true
		}
	}
	return false
}

func minuteKey(now time.Time) string {
	return now.Format("2006-01-02 15:04")
}

func (s *Scheduler) firedThisMinute(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFired[id] == minuteKey(now)
}

func (s *Scheduler) markFired(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFired[id] = minuteKey(now)
}
