package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/daemon"
	"github.com/harunnryd/bookbot/internal/scheduler"
)

// SchedulerComponent evicts idle sessions on the configured schedule.
type SchedulerComponent struct {
	sched    *scheduler.Scheduler
	cfg      *config.Config
	convComp *ConversationComponent
}

func NewSchedulerComponent(cfg *config.Config, convComp *ConversationComponent) *SchedulerComponent {
	return &SchedulerComponent{
		cfg:      cfg,
		convComp: convComp,
	}
}

func (s *SchedulerComponent) Name() string {
	return daemon.ComponentScheduler
}

func (s *SchedulerComponent) Dependencies() []string {
	return []string{daemon.ComponentConversation}
}

func (s *SchedulerComponent) Init(ctx context.Context) error {
	if s.convComp == nil {
		return fmt.Errorf("convComp not provided")
	}

	stack := s.convComp.Stack()
	if stack == nil {
		return fmt.Errorf("conversation not initialized")
	}

	sched, err := scheduler.NewScheduler(stack.Sessions, s.cfg.Session, s.cfg.Daemon)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.sched = sched

	if err := s.sched.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	slog.Info("Scheduler initialized", "component", s.Name())
	return nil
}

func (s *SchedulerComponent) Start(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	if err := s.sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info("Scheduler started", "component", s.Name(), "next_run", s.sched.NextRun())
	return nil
}

func (s *SchedulerComponent) Stop(ctx context.Context) error {
	if s.sched == nil {
		slog.Info("Scheduler not initialized, skipping stop", "component", s.Name())
		return nil
	}

	if err := s.sched.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	slog.Info("Scheduler stopped", "component", s.Name())
	return nil
}

func (s *SchedulerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	if s.sched == nil {
		return daemon.Unhealthy(s.Name(), fmt.Errorf("not initialized")), nil
	}
	if err := s.sched.Health(ctx); err != nil {
		return daemon.Unhealthy(s.Name(), err), nil
	}

	h := daemon.Healthy(s.Name())
	if next := s.sched.NextRun(); !next.IsZero() {
		h.With("next_sweep", next.Format(time.RFC3339))
	}
	if last, evicted := s.sched.LastRun(); !last.IsZero() {
		h.With("last_sweep", last.Format(time.RFC3339)).With("last_evicted", evicted)
	}
	return h, nil
}

func (s *SchedulerComponent) GetScheduler() *scheduler.Scheduler {
	return s.sched
}
