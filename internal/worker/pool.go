package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/harunnryd/bookbot/internal/concurrency"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/ingress"
)

// Pool fans the ingress queue out to a fixed set of lanes. Events of one
// session always land on the same lane, so a user's messages are answered
// in the order they arrived.
type Pool struct {
	mu      sync.Mutex
	source  <-chan *ingress.Event
	lanes   []chan *ingress.Event
	workers []*Worker
	done    chan struct{}
}

func NewPool(size int, source <-chan *ingress.Event, conv Replier, out Sender, runtimeCfg RuntimeConfig) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{source: source}
	for i := 0; i < size; i++ {
		lane := make(chan *ingress.Event, 1)
		p.lanes = append(p.lanes, lane)
		p.workers = append(p.workers, NewWorker(fmt.Sprintf("lane-%d", i), lane, conv, out, runtimeCfg))
	}
	return p
}

// laneFor maps a session to its lane.
func (p *Pool) laneFor(sessionID string) int {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(p.lanes)))
}

func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return bberrors.InvalidInput("pool already started")
	}

	for _, w := range p.workers {
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	p.done = make(chan struct{})
	done := p.done
	concurrency.SafeGo(func() {
		defer close(done)
		p.dispatch(ctx)
	}, func(r interface{}) {
		slog.Error("Dispatcher panicked", "panic", r)
	})
	return nil
}

func (p *Pool) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-p.source:
			if !ok {
				return
			}
			if evt == nil {
				continue
			}
			select {
			case p.lanes[p.laneFor(evt.SessionID)] <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, w := range p.workers {
		if err := w.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Pool) Health(ctx context.Context) error {
	for _, w := range p.workers {
		if err := w.Health(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) Size() int {
	return len(p.workers)
}
