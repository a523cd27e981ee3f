package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"

	"github.com/robfig/cron/v3"
)

// Sweepable evicts stale entries and reports how many it removed.
type Sweepable interface {
	Sweep() int
}

// Scheduler runs the session sweep on a cron schedule.
type Scheduler struct {
	target   Sweepable
	schedule string

	mu        sync.RWMutex
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	lastRun   time.Time
	lastCount int

	shutdownTimeout time.Duration
}

func NewScheduler(target Sweepable, sessionCfg config.SessionConfig, daemonCfg config.DaemonConfig) (*Scheduler, error) {
	schedule := strings.TrimSpace(sessionCfg.SweepSchedule)
	if schedule == "" {
		schedule = config.DefaultSessionSweepSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid session.sweep_schedule %q: %w", schedule, err)
	}

	shutdownTimeout, err := config.DurationOrDefault(daemonCfg.ShutdownTimeout, config.DefaultDaemonShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler shutdown timeout: %w", err)
	}

	return &Scheduler{
		target:          target,
		schedule:        schedule,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func (s *Scheduler) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	id, err := c.AddFunc(s.schedule, s.RunOnce)
	if err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}
	s.cron = c
	s.entryID = id

	slog.Info("Scheduler initialized", "schedule", s.schedule)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.cron == nil {
		return bberrors.Internal("scheduler not initialized")
	}
	s.cron.Start()
	s.running = true

	slog.Info("Scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		slog.Info("Scheduler stopped gracefully")
		return nil
	case <-time.After(s.shutdownTimeout):
		slog.Warn("Scheduler shutdown timeout, force stopping")
		return bberrors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cron == nil {
		return bberrors.Internal("scheduler not initialized")
	}
	if !s.running {
		return bberrors.Internal("scheduler not running")
	}
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRun is the next planned sweep, zero when not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cron == nil || !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// RunOnce sweeps immediately.
func (s *Scheduler) RunOnce() {
	evicted := s.target.Sweep()

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastCount = evicted
	s.mu.Unlock()

	if evicted > 0 {
		slog.Info("Expired sessions evicted", "count", evicted)
	}
}

// LastRun reports when the sweep last ran and what it evicted.
func (s *Scheduler) LastRun() (time.Time, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastCount
}
