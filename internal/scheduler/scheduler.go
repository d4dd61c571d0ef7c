// Package scheduler detects calendar day changes so that date sections of
// grouped reminder collections can be recomputed.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/waterme/internal/logging"
)

// DefaultSpec refreshes at local midnight.
const DefaultSpec = "0 0 * * *"

// tickSpec polls for day changes missed while the machine slept.
const tickSpec = "@every 1m"

// Reloader is anything that can recompute itself, such as a grouped
// collection token.
type Reloader interface {
	Reload()
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a standard five-field cron spec. Empty means DefaultSpec.
	Spec     string
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Scheduler fires listeners at the configured refresh spec and whenever the
// calendar day changes between ticks. Listeners may run twice around
// midnight and must be idempotent.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	day       time.Time
	listeners []func(day time.Time)
}

// New creates a scheduler. It does nothing until Start.
func New(opts Options) *Scheduler {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(opts.Location)),
		spec:   opts.Spec,
		loc:    opts.Location,
		logger: opts.Logger.With(slog.String("component", "scheduler")),
		now:    opts.Now,
	}
	s.day = s.startOfDay(s.now())
	return s
}

// OnDayChange registers fn. It receives the start of the new day.
func (s *Scheduler) OnDayChange(fn func(day time.Time)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// ReloadOnDayChange reloads r whenever the day changes.
func (s *Scheduler) ReloadOnDayChange(r Reloader) {
	s.OnDayChange(func(time.Time) { r.Reload() })
}

// Start starts the refresh job and the day-change tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Refresh); err != nil {
		return fmt.Errorf("invalid refresh spec %q: %w", s.spec, err)
	}
	if _, err := s.cron.AddFunc(tickSpec, func() { s.Check() }); err != nil {
		return fmt.Errorf("failed to add day-change tick: %w", err)
	}

	s.cron.Start()
	s.logger.Debug("scheduler started", slog.String("spec", s.spec))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.logger.Debug("scheduler stopped")
}

// Refresh fires every listener unconditionally.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	s.day = s.startOfDay(s.now())
	day := s.day
	listeners := append([]func(time.Time){}, s.listeners...)
	s.mu.Unlock()

	s.logger.Debug("refreshing day sections", slog.Time("day", day))
	for _, fn := range listeners {
		fn(day)
	}
}

// Check fires the listeners if the calendar day changed since the last check
// or refresh, and reports whether it did.
func (s *Scheduler) Check() bool {
	s.mu.Lock()
	today := s.startOfDay(s.now())
	if today.Equal(s.day) {
		s.mu.Unlock()
		return false
	}
	skipped := int(today.Sub(s.day).Hours() / 24)
	s.day = today
	listeners := append([]func(time.Time){}, s.listeners...)
	s.mu.Unlock()

	if skipped > 1 {
		s.logger.Info("day changed while asleep", slog.Int(logging.KeyCount, skipped))
	}
	for _, fn := range listeners {
		fn(today)
	}
	return true
}

func (s *Scheduler) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// RemoveJob removes a job from the scheduler.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time for any job.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// ValidateSpec reports whether spec parses as a standard cron spec.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}
