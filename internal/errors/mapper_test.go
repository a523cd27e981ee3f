package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorCategories(t *testing.T) {
	m := NewDefaultErrorMapper()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"google not found", errors.New("googleapi: Error 404: Not Found"), ErrNotFound},
		{"google gone", errors.New("googleapi: Error 410: Resource has been deleted"), ErrNotFound},
		{"rate limit", errors.New("googleapi: Error 429: Rate Limit Exceeded"), ErrTransient},
		{"bad request", errors.New("googleapi: Error 400: Bad Request"), ErrInvalidInput},
		{"server error", errors.New("googleapi: Error 503: backend"), ErrTransient},
		{"network", errors.New("dial tcp: connection refused"), ErrTransient},
		{"deadline", context.DeadlineExceeded, ErrTransient},
		{"model output", errors.New("no choices returned"), ErrInvalidModelOutput},
		{"unknown", errors.New("something odd"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.MapError(tt.in)
			assert.True(t, errors.Is(got, tt.want), "got %v", got)
		})
	}
}

func TestMapErrorKeepsCategorisedAndCanceled(t *testing.T) {
	m := NewDefaultErrorMapper()

	already := Validation("phone must have 9 digits")
	assert.Same(t, already, m.MapError(already))

	assert.Equal(t, context.Canceled, m.MapError(context.Canceled))
	assert.Nil(t, m.MapError(nil))
}

func TestCategoryNames(t *testing.T) {
	m := NewDefaultErrorMapper()

	assert.Equal(t, "ErrStaleWrite", m.Category(StaleWrite("write not visible")))
	assert.Equal(t, "ErrClosed", m.Category(Closed("sunday")))
	assert.Equal(t, "ErrTransient", m.Category(fmt.Errorf("wrapped: %w", ErrExternalService)))
	assert.Equal(t, "Unknown", m.Category(errors.New("plain")))
	assert.Equal(t, "", m.Category(nil))
}

func TestWrapWithCategoryKeepsBothChains(t *testing.T) {
	cause := context.DeadlineExceeded
	err := WrapWithCategory(cause, "list events", ErrTransient)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Nil(t, WrapWithCategory(nil, "noop", ErrTransient))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient("calendar down")))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ErrConflict)))
	assert.False(t, IsRetryable(NotFound("event")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(nil))
}
