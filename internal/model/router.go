package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/logger"
	"github.com/harunnryd/bookbot/internal/model/contract"
	anthropicProvider "github.com/harunnryd/bookbot/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/bookbot/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/bookbot/internal/model/providers/openai"
)

// DefaultModelRouter implements ModelRouter interface
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mu        sync.RWMutex
}

type RouterOption func(*DefaultModelRouter)

// WithProvider registers a provider under a model name, replacing any registry entry.
func WithProvider(name string, p Provider) RouterOption {
	return func(r *DefaultModelRouter) {
		r.providers[name] = p
	}
}

// NewModelRouter creates a new model router
func NewModelRouter(ctx context.Context, cfg config.ModelsConfig, opts ...RouterOption) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	if err := router.initProviders(ctx); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(router)
	}

	return router, nil
}

// Route routes a completion request to the appropriate provider
func (r *DefaultModelRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if model == "" {
		model = r.cfg.Default
	}
	traceID := logger.GetTraceID(ctx)

	slog.Debug("Routing completion request", "model", model, "trace_id", traceID)

	currentModel, provider, err := r.resolveProvider(ctx, model)
	if err != nil {
		return nil, err
	}

	return r.executeWithFallback(ctx, currentModel, provider, req, traceID)
}

func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *DefaultModelRouter) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.providers) == 0 {
		return bberrors.NotFound("no models configured")
	}
	if _, ok := r.providers[r.cfg.Default]; !ok {
		return bberrors.NotFound(fmt.Sprintf("default model %s not registered", r.cfg.Default))
	}
	return nil
}

// initProviders initializes all providers from registry. Entries that
// cannot be built are skipped so one missing key does not disable the rest.
func (r *DefaultModelRouter) initProviders(ctx context.Context) error {
	for _, entry := range r.cfg.Registry {
		if entry.Name == "" {
			return bberrors.InvalidInput("model registry entry without name")
		}

		provider, err := r.createProvider(ctx, entry)
		if err != nil {
			slog.Warn("Skipping model", "model", entry.Name, "provider", entry.Provider, "error", err)
			continue
		}

		timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultModelRequestTimeout)
		if err != nil {
			return bberrors.InvalidInput(fmt.Sprintf("invalid request_timeout for model %s: %v", entry.Name, err))
		}

		r.providers[entry.Name] = &timeoutProvider{next: provider, timeout: timeout}
		slog.Debug("Model registered", "model", entry.Name, "provider", entry.Provider)
	}

	return nil
}

func (r *DefaultModelRouter) resolveProvider(ctx context.Context, model string) (string, Provider, error) {
	select {
	case <-ctx.Done():
		return "", nil, bberrors.Wrap(ctx.Err(), "provider resolution cancelled")
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, exists := r.providers[model]; exists {
		return model, provider, nil
	}

	slog.Warn("Model not found", "model", model)

	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if fallbackProvider, ok := r.providers[r.cfg.Fallback]; ok {
			slog.Info("Using fallback model", "model", model, "fallback", r.cfg.Fallback)
			return r.cfg.Fallback, fallbackProvider, nil
		}
	}

	return "", nil, bberrors.NotFound(fmt.Sprintf("model %s not found", model))
}

// executeWithFallback executes a request with fallback logic
func (r *DefaultModelRouter) executeWithFallback(ctx context.Context, model string, provider Provider, req contract.CompletionRequest, traceID string) (*contract.CompletionResponse, error) {
	maxAttempts := r.cfg.MaxFallbackAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultModelMaxFallbackAttempts
	}

	currentModel := model
	currentProvider := provider

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, bberrors.Wrap(ctx.Err(), "request execution cancelled")
		default:
		}

		attemptReq := req
		attemptReq.Model = currentModel

		resp, err := currentProvider.Generate(ctx, attemptReq)
		if err == nil {
			slog.Debug("Request completed", "model", currentModel, "attempt", attempt+1, "trace_id", traceID)
			return resp, nil
		}

		slog.Warn("Provider request failed", "model", currentModel, "attempt", attempt+1, "error", err, "trace_id", traceID)

		if r.cfg.Fallback == "" || currentModel == r.cfg.Fallback {
			return nil, bberrors.WrapWithCategory(err, "provider request failed", bberrors.ErrTransient)
		}

		r.mu.RLock()
		fallbackProvider, exists := r.providers[r.cfg.Fallback]
		r.mu.RUnlock()
		if !exists {
			return nil, bberrors.NotFound(fmt.Sprintf("fallback model %s not found", r.cfg.Fallback))
		}

		slog.Info("Attempting fallback", "from", currentModel, "to", r.cfg.Fallback)
		currentModel = r.cfg.Fallback
		currentProvider = fallbackProvider
	}

	return nil, bberrors.Transient("fallback exhausted")
}

// createProvider creates a provider instance based on registry entry
func (r *DefaultModelRouter) createProvider(ctx context.Context, entry config.ModelRegistry) (Provider, error) {
	switch entry.Provider {
	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}
		if entry.APIKey == "" {
			return nil, bberrors.InvalidInput("API key required for OpenAI provider")
		}
		return openaiProvider.New(entry.APIKey, baseURL, entry.Name), nil

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}
		return openaiProvider.New(apiKey, baseURL, entry.Name), nil

	case "anthropic":
		if entry.APIKey == "" {
			return nil, bberrors.InvalidInput("API key required for Anthropic provider")
		}
		return anthropicProvider.New(entry.APIKey, entry.Name), nil

	case "gemini":
		if entry.APIKey == "" {
			return nil, bberrors.InvalidInput("API key required for Gemini provider")
		}
		provider, err := geminiProvider.New(ctx, entry.APIKey, entry.Name)
		if err != nil {
			return nil, bberrors.WrapWithCategory(err, "failed to create Gemini provider", bberrors.ErrInternal)
		}
		return provider, nil

	default:
		return nil, bberrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}

type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

func (p *timeoutProvider) Name() string {
	return p.next.Name()
}

func (p *timeoutProvider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if p.timeout <= 0 {
		return p.next.Generate(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.next.Generate(ctx, req)
}
