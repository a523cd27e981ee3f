package components

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/daemon"
	"github.com/harunnryd/bookbot/internal/ingress"
)

// HTTPServerComponent serves /health and the web chat API.
type HTTPServerComponent struct {
	daemon      *daemon.Daemon
	cfg         *config.ServerConfig
	ingressComp *IngressComponent
	convComp    *ConversationComponent
	deps        []string
	server      *http.Server
	shutdownTTL time.Duration
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewHTTPServerComponent(d *daemon.Daemon, cfg *config.ServerConfig, ingComp *IngressComponent, convComp *ConversationComponent) *HTTPServerComponent {
	return NewHTTPServerComponentWithDependencies(d, cfg, ingComp, convComp, []string{daemon.ComponentConversation, daemon.ComponentIngress, daemon.ComponentWorkers, daemon.ComponentScheduler})
}

func NewHTTPServerComponentWithDependencies(d *daemon.Daemon, cfg *config.ServerConfig, ingComp *IngressComponent, convComp *ConversationComponent, deps []string) *HTTPServerComponent {
	return &HTTPServerComponent{
		daemon:      d,
		cfg:         cfg,
		ingressComp: ingComp,
		convComp:    convComp,
		deps:        append([]string(nil), deps...),
		initialized: false,
		started:     false,
	}
}

func (h *HTTPServerComponent) Name() string {
	return daemon.ComponentHTTPServer
}

func (h *HTTPServerComponent) Dependencies() []string {
	return append([]string(nil), h.deps...)
}

func (h *HTTPServerComponent) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)

	if h.ingressComp != nil && h.convComp != nil {
		ing := h.ingressComp.GetIngress()
		stack := h.convComp.Stack()
		if ing == nil || stack == nil {
			return fmt.Errorf("chat API dependencies not initialized")
		}
		ingress.NewChatAPI(ing, stack.Engine).Register(mux)
	}

	readTimeout, err := config.DurationOrDefault(h.cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(h.cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(h.cfg.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(h.cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", h.cfg.Port),
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	h.shutdownTTL = shutdownTimeout

	h.initialized = true
	slog.Info("HTTPServer initialized", "component", h.Name(), "port", h.cfg.Port)
	return nil
}

func (h *HTTPServerComponent) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return fmt.Errorf("HTTPServer not initialized")
	}

	go func() {
		slog.Info("HTTP server listening", "component", h.Name(), "addr", h.server.Addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "component", h.Name(), "error", err)
		}
	}()

	h.started = true
	h.startTime = time.Now()
	slog.Info("HTTPServer started", "component", h.Name())
	return nil
}

func (h *HTTPServerComponent) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		slog.Info("HTTPServer not started, skipping stop", "component", h.Name())
		return nil
	}

	slog.Info("Stopping HTTPServer...", "component", h.Name())
	shutdownCtx, cancel := context.WithTimeout(ctx, h.shutdownTTL)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTPServer shutdown error", "component", h.Name(), "error", err)
		return err
	}

	h.started = false
	slog.Info("HTTPServer stopped", "component", h.Name())
	return nil
}

func (h *HTTPServerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case !h.initialized:
		return daemon.Unhealthy(h.Name(), fmt.Errorf("not initialized")), nil
	case !h.started:
		return daemon.Unhealthy(h.Name(), fmt.Errorf("not started")), nil
	}
	return daemon.Healthy(h.Name()).With("port", h.cfg.Port), nil
}

func (h *HTTPServerComponent) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	healthResponse := map[string]interface{}{
		"status":  string(h.daemon.Health()),
		"version": "1.0.0",
		"uptime":  h.daemon.Uptime().Round(time.Second).String(),
	}
	if h.convComp != nil {
		if stack := h.convComp.Stack(); stack != nil {
			healthResponse["active_sessions"] = stack.Sessions.Stats().Total
		}
	}

	componentHealths := h.daemon.ComponentHealth()
	componentHealthMap := make(map[string]map[string]any, len(componentHealths))
	for name, ch := range componentHealths {
		entry := map[string]any{"healthy": ch.Healthy}
		if ch.Error != nil {
			entry["error"] = ch.Error.Error()
		}
		for k, v := range ch.Details {
			entry[k] = v
		}
		componentHealthMap[name] = entry
	}

	healthResponse["components"] = componentHealthMap

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse)
}
