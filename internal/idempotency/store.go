package idempotency

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/pathutil"
	"github.com/natefinch/atomic"
)

type ProcessedKeys struct {
	Keys map[string]int64 `json:"keys"` // Key -> Expiry (Unix Timestamp)
}

// Store remembers processed message keys until they expire.
// An empty path keeps the keys in memory only.
type Store struct {
	path  string
	state ProcessedKeys
	now   func() time.Time
	mu    sync.RWMutex
}

type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path: path,
		state: ProcessedKeys{
			Keys: make(map[string]int64),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		if _, err := pathutil.EnsureParent(s.path); err != nil {
			return nil, err
		}
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.save()
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return err
	}
	if s.state.Keys == nil {
		s.state.Keys = make(map[string]int64)
	}
	return nil
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save()
}

// CheckAndMark reports whether key was already seen and unexpired.
// Unseen keys are recorded with the given ttl.
func (s *Store) CheckAndMark(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()

	if expiry, exists := s.state.Keys[key]; exists {
		if expiry > now {
			return true
		}
		delete(s.state.Keys, key)
	}

	s.state.Keys[key] = now + int64(ttl.Seconds())
	return false
}

func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	count := 0
	for k, expiry := range s.state.Keys {
		if expiry <= now {
			delete(s.state.Keys, k)
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Keys)
}
