package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/ingress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoReplier struct {
	mu    sync.Mutex
	order map[string][]string
	delay time.Duration
}

func (e *echoReplier) Handle(ctx context.Context, userID, text string) string {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.order == nil {
		e.order = make(map[string][]string)
	}
	e.order[userID] = append(e.order[userID], text)
	return "re: " + text
}

type sent struct {
	source, channel, content string
}

type recordingSender struct {
	mu   sync.Mutex
	out  []sent
	err  error
	done chan struct{}
	want int
}

func (r *recordingSender) Send(ctx context.Context, source, channelID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.out = append(r.out, sent{source, channelID, content})
	if r.done != nil && len(r.out) == r.want {
		close(r.done)
	}
	return nil
}

func event(source, channel, session, text string) *ingress.Event {
	evt := ingress.NewEvent(source, ingress.TypeUserMessage, channel, text, nil)
	evt.SessionID = session
	return &evt
}

func TestWorker_RepliesThroughSender(t *testing.T) {
	events := make(chan *ingress.Event, 1)
	out := &recordingSender{done: make(chan struct{}), want: 1}
	w := NewWorker("test", events, &echoReplier{}, out, RuntimeConfig{ShutdownTimeout: time.Second})

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Health(context.Background()))

	events <- event("telegram", "456", "telegram:456", "hello")

	select {
	case <-out.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply not sent")
	}
	require.NoError(t, w.Stop(context.Background()))

	assert.Equal(t, []sent{{"telegram", "456", "re: hello"}}, out.out)
}

func TestWorker_SkipsInvalidEvents(t *testing.T) {
	out := &recordingSender{}
	w := NewWorker("test", nil, &echoReplier{}, out, RuntimeConfig{})

	w.process(context.Background(), &ingress.Event{ID: "1"})
	assert.Empty(t, out.out)
}

func TestWorker_SendFailureIsLogged(t *testing.T) {
	out := &recordingSender{err: errors.New("platform down")}
	w := NewWorker("test", nil, &echoReplier{}, out, RuntimeConfig{})

	err := w.processEvent(context.Background(), event("slack", "C1", "slack:C1", "hi"))
	assert.ErrorContains(t, err, "platform down")
}

func TestWorker_DoubleStart(t *testing.T) {
	w := NewWorker("test", make(chan *ingress.Event), &echoReplier{}, &recordingSender{}, RuntimeConfig{})
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

func TestPool_KeepsPerSessionOrder(t *testing.T) {
	source := make(chan *ingress.Event, 64)
	conv := &echoReplier{delay: time.Millisecond}
	out := &recordingSender{done: make(chan struct{}), want: 30}
	pool := NewPool(4, source, conv, out, RuntimeConfig{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	for i := 0; i < 10; i++ {
		for _, user := range []string{"a", "b", "c"} {
			source <- event("cli", user, "cli:"+user, fmt.Sprintf("%d", i))
		}
	}

	select {
	case <-out.done:
	case <-time.After(5 * time.Second):
		t.Fatal("not all replies sent")
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	for _, user := range []string{"a", "b", "c"} {
		got := conv.order["cli:"+user]
		require.Len(t, got, 10)
		for i, text := range got {
			assert.Equal(t, fmt.Sprintf("%d", i), text)
		}
	}
}

func TestPool_LaneIsStable(t *testing.T) {
	pool := NewPool(8, nil, &echoReplier{}, &recordingSender{}, RuntimeConfig{})
	assert.Equal(t, pool.laneFor("telegram:456"), pool.laneFor("telegram:456"))
	assert.Equal(t, 8, pool.Size())
}
