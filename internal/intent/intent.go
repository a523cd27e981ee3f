package intent

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

type Intent string

const (
	Booking         Intent = "BOOKING"
	AskAvailability Intent = "ASK_AVAILABILITY"
	WantAppointment Intent = "WANT_APPOINTMENT"
	ContactData     Intent = "CONTACT_DATA"
	CancelVisit     Intent = "CANCEL_VISIT"
	Other           Intent = "OTHER"
)

// State hints the classifier receives from the conversation.
const (
	HintWaitingForDetails = "WAITING_FOR_DETAILS"
	HintCancelling        = "CANCELLING"
)

// LanguageModel is the narrow port to a chat model.
type LanguageModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Rule inspects a message and optionally decides its intent.
type Rule struct {
	Name  string
	Match func(msg Message) (Intent, bool)
}

// Message is the text being classified plus what rules commonly need.
type Message struct {
	Text      string
	Lower     string
	StateHint string
}

type Resolver struct {
	rules          []Rule
	model          LanguageModel
	timeout        time.Duration
	services       []string
	defaultService string
}

type Option func(*Resolver)

// WithModel enables the language model as the last classification step.
func WithModel(model LanguageModel, timeout time.Duration) Option {
	return func(r *Resolver) {
		r.model = model
		r.timeout = timeout
	}
}

// WithServices registers the salon's own service names.
func WithServices(services []string, defaultService string) Option {
	return func(r *Resolver) {
		r.services = services
		if strings.TrimSpace(defaultService) != "" {
			r.defaultService = defaultService
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{defaultService: "Haircut"}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = r.defaultRules()
	return r
}

func (r *Resolver) HasModel() bool {
	return r.model != nil
}

// Classify walks the rules in order and falls back to the model, then OTHER.
func (r *Resolver) Classify(ctx context.Context, text, stateHint string) Intent {
	msg := Message{Text: text, Lower: strings.ToLower(text), StateHint: stateHint}
	for _, rule := range r.rules {
		if in, ok := rule.Match(msg); ok {
			slog.Debug("Intent matched", "rule", rule.Name, "intent", in)
			return in
		}
	}

	if r.model != nil {
		if in, ok := r.classifyWithModel(ctx, text); ok {
			return in
		}
	}
	return Other
}

const classifyPrompt = `You classify messages sent to a hair salon booking assistant.
Answer with exactly one category name:
BOOKING - the client names a day and a time for a visit
ASK_AVAILABILITY - the client asks which times are free
WANT_APPOINTMENT - the client wants a visit but names no day and time
CONTACT_DATA - the client gives first name, last name and phone number
CANCEL_VISIT - the client wants to cancel a visit
OTHER - anything else`

func (r *Resolver) classifyWithModel(ctx context.Context, text string) (Intent, bool) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.model.Complete(ctx, classifyPrompt, text)
	if err != nil {
		slog.Warn("Intent model unavailable", "error", err)
		return "", false
	}
	cleaned, ok := Sanitize(raw)
	if !ok {
		slog.Warn("Intent model returned nothing usable")
		return "", false
	}
	in, ok := ParseTag(cleaned)
	if !ok {
		slog.Warn("Intent model returned no tag", "output", cleaned)
		return "", false
	}
	slog.Debug("Intent classified by model", "intent", in)
	return in, true
}

const chatPrompt = `You are the friendly assistant of a hair salon. Answer briefly.
Never promise a booking yourself; ask the client to name a day and a time instead.`

// Chat answers small talk through the model. It reports false when no
// model is configured or the model fails.
func (r *Resolver) Chat(ctx context.Context, text string) (string, bool) {
	if r.model == nil {
		return "", false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.model.Complete(ctx, chatPrompt, text)
	if err != nil {
		slog.Warn("Chat model unavailable", "error", err)
		return "", false
	}
	return Sanitize(raw)
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
