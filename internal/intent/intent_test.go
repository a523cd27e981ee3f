package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestClassifyRules(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	tests := []struct {
		text string
		hint string
		want Intent
	}{
		{"Chcę anulować wizytę", "", CancelVisit},
		{"I need to cancel my appointment on Friday at 10", "", CancelVisit},
		{"Jan Kowalski, 123456789", HintWaitingForDetails, ContactData},
		{"Jan Kowalski 123-456-789", HintCancelling, ContactData},
		{"Umawiam się na wtorek 10:00 na strzyżenie", "", Booking},
		{"Can I come on Friday at 14:30?", "", Booking},
		{"jakie macie wolne terminy na jutro?", "", AskAvailability},
		{"Which times are available?", "", AskAvailability},
		{"chcę się umówić", "", WantAppointment},
		{"I'd like to book a haircut", "", WantAppointment},
		{"hello!", "", Other},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(ctx, tt.text, tt.hint))
		})
	}
}

func TestContactRuleNeedsState(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, Other, r.Classify(context.Background(), "Jan Kowalski, 123456789", ""))
}

func TestClassifyFallsBackToModel(t *testing.T) {
	model := &stubModel{reply: "<think>the client greets us, maybe asking about times</think>\nASK_AVAILABILITY"}
	r := NewResolver(WithModel(model, time.Second))

	assert.Equal(t, AskAvailability, r.Classify(context.Background(), "hej, jak tam?", ""))
	assert.Equal(t, 1, model.calls)

	// Deterministic rules never reach the model.
	assert.Equal(t, CancelVisit, r.Classify(context.Background(), "anuluj", ""))
	assert.Equal(t, 1, model.calls)
}

func TestClassifyModelFailureDegradesToOther(t *testing.T) {
	r := NewResolver(WithModel(&stubModel{err: errors.New("connection refused")}, time.Second))
	assert.Equal(t, Other, r.Classify(context.Background(), "hej", ""))

	r = NewResolver(WithModel(&stubModel{reply: "I am not sure what you mean"}, time.Second))
	assert.Equal(t, Other, r.Classify(context.Background(), "hej", ""))
}

func TestChat(t *testing.T) {
	r := NewResolver()
	_, ok := r.Chat(context.Background(), "hi")
	assert.False(t, ok)

	r = NewResolver(WithModel(&stubModel{reply: "<thinking>be nice</thinking>Hello! How can I help?"}, time.Second))
	reply, ok := r.Chat(context.Background(), "hi")
	require.True(t, ok)
	assert.Equal(t, "Hello! How can I help?", reply)
}
