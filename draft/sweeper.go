package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweep once an hour.
const DefaultSweepSchedule = "@hourly"

// Logger is the subset of the engine logger the sweeper needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Sweeper purges drafts not saved within a retention window on a cron
// schedule.
type Sweeper struct {
	repo      Repository
	retention time.Duration
	schedule  string
	location  *time.Location
	logger    Logger
	now       func() time.Time

	mu      sync.Mutex
	cron    *rcron.Cron
	sched   rcron.Schedule
	entryID rcron.EntryID
	onSweep func(purged int, err error)
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSchedule sets the cron expression (standard 5 fields or descriptors).
func WithSchedule(expr string) SweeperOption {
	return func(s *Sweeper) { s.schedule = expr }
}

// WithLocation sets the timezone used to interpret the schedule.
func WithLocation(loc *time.Location) SweeperOption {
	return func(s *Sweeper) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSweepLogger sets the logger.
func WithSweepLogger(l Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = l }
}

// WithSweepClock overrides the time source used to compute the cutoff.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// OnSweep registers a callback run after every sweep.
func OnSweep(fn func(purged int, err error)) SweeperOption {
	return func(s *Sweeper) { s.onSweep = fn }
}

// NewSweeper builds a sweeper. Retention must be positive.
func NewSweeper(repo Repository, retention time.Duration, opts ...SweeperOption) (*Sweeper, error) {
	if repo == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	s := &Sweeper{
		repo:      repo,
		retention: retention,
		schedule:  DefaultSweepSchedule,
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.cron = rcron.New(rcron.WithLocation(s.location), rcron.WithLogger(cronLogger{logger: s.logger}))
	return s, nil
}

// Sweep purges stale drafts once.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.PurgeOlderThan(ctx, cutoff)
	if s.logger != nil {
		if err != nil {
			s.logger.Error("draft sweep failed: %v", err)
		} else if n > 0 {
			s.logger.Info("draft sweep purged %d drafts older than %s", n, cutoff.Format(time.RFC3339))
		}
	}
	if s.onSweep != nil {
		s.onSweep(n, err)
	}
	return n, err
}

// Start schedules the sweep and starts the cron loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID != 0 {
		return nil
	}
	sched, err := rcron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("schedule draft sweep %q: %w", s.schedule, err)
	}
	s.sched = sched
	s.entryID = s.cron.Schedule(sched, rcron.FuncJob(func() {
		_, _ = s.Sweep(ctx)
	}))
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.entryID = 0
}

// Next returns the next scheduled run, zero when not started.
func (s *Sweeper) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.sched.Next(s.now().In(s.location))
}

// cronLogger adapts Logger to robfig/cron's logger.
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
