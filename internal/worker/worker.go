package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/concurrency"
	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/ingress"
	"github.com/harunnryd/bookbot/internal/logger"
)

// Replier produces the reply to one user message.
type Replier interface {
	Handle(ctx context.Context, userID, text string) string
}

// Sender delivers a reply back to the platform the message came from.
type Sender interface {
	Send(ctx context.Context, source, channelID, content string) error
}

type RuntimeConfig struct {
	ShutdownTimeout time.Duration
}

// Worker answers events from one lane in arrival order.
type Worker struct {
	mu      sync.RWMutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup

	lane   string
	events <-chan *ingress.Event
	conv   Replier
	out    Sender

	shutdownTimeout time.Duration
}

func NewWorker(lane string, events <-chan *ingress.Event, conv Replier, out Sender, runtimeCfg RuntimeConfig) *Worker {
	if runtimeCfg.ShutdownTimeout <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultDaemonShutdownTimeout)
		if err == nil {
			runtimeCfg.ShutdownTimeout = d
		}
	}

	return &Worker{
		lane:   lane,
		events: events,
		conv:   conv,
		out:    out,

		shutdownTimeout: runtimeCfg.ShutdownTimeout,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return bberrors.InvalidInput("worker already started")
	}

	w.started = true
	w.quit = make(chan struct{})

	workerCtx, cancel := context.WithCancel(ctx)

	w.wg.Add(1)
	concurrency.SafeGo(func() {
		defer w.wg.Done()
		defer cancel()

		slog.Info("Worker started", "lane", w.lane)
		w.eventLoop(workerCtx)
		slog.Info("Worker stopped", "lane", w.lane)
	}, func(r interface{}) {
		slog.Error("Worker panicked", "lane", w.lane, "panic", r)
	})

	return nil
}

func (w *Worker) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker stopping (context cancelled)", "lane", w.lane)
			return
		case <-w.quit:
			slog.Info("Worker stopping (quit signal)", "lane", w.lane)
			return
		case evt, ok := <-w.events:
			if !ok {
				slog.Info("Worker stopping (channel closed)", "lane", w.lane)
				return
			}
			w.process(ctx, evt)
		}
	}
}

func (w *Worker) process(ctx context.Context, evt *ingress.Event) {
	start := time.Now()

	slog.Info("Processing event",
		"id", evt.ID,
		"lane", w.lane,
		"session_id", evt.SessionID,
		"source", evt.Source)

	if err := w.processEvent(ctx, evt); err != nil {
		slog.Error("Event processing failed",
			"id", evt.ID,
			"lane", w.lane,
			"error", err)
		return
	}

	slog.Debug("Event processed",
		"id", evt.ID,
		"duration", time.Since(start))
}

func (w *Worker) processEvent(ctx context.Context, evt *ingress.Event) error {
	if err := validateEvent(evt); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	ctx = logger.WithTraceID(ctx, evt.ID)
	reply := w.conv.Handle(ctx, evt.SessionID, evt.Content)
	if reply == "" {
		return nil
	}

	if err := w.out.Send(ctx, evt.Source, evt.ChannelID, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func validateEvent(evt *ingress.Event) error {
	if evt == nil {
		return bberrors.InvalidInput("event is nil")
	}
	if evt.ID == "" {
		return bberrors.InvalidInput("event ID is empty")
	}
	if evt.SessionID == "" {
		return bberrors.InvalidInput("session ID is empty")
	}
	if evt.ChannelID == "" {
		return bberrors.InvalidInput("channel ID is empty")
	}
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		slog.Info("Worker not started, skipping stop", "lane", w.lane)
		return nil
	}

	slog.Info("Stopping worker...", "lane", w.lane)

	close(w.quit)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker stopped gracefully", "lane", w.lane)
		w.started = false
		return nil
	case <-time.After(w.shutdownTimeout):
		slog.Warn("Worker shutdown timeout, force stopping", "lane", w.lane)
		w.started = false
		return bberrors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Health(ctx context.Context) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.started {
		return bberrors.Internal("worker not started")
	}
	if w.events == nil {
		return bberrors.Internal("event channel not initialized")
	}
	if w.conv == nil {
		return bberrors.Internal("conversation not configured")
	}
	if w.out == nil {
		return bberrors.Internal("egress not configured")
	}
	return nil
}
