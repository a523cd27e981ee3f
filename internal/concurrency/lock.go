package concurrency

import "sync"

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedLocker serializes work per key. Entries are dropped once no
// goroutine holds or waits on them, so idle users cost nothing.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[string]*keyedEntry),
	}
}

func (m *KeyedLocker) Lock(key string) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &keyedEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	entry.mu.Lock()
}

func (m *KeyedLocker) Unlock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
	entry.mu.Unlock()
}

// Do runs fn while holding the lock for key.
func (m *KeyedLocker) Do(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

// Len reports how many keys are currently held or awaited.
func (m *KeyedLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
