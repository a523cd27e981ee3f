package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// InstanceLock keeps a second bot from answering the same chats.
type InstanceLock struct {
	mu         sync.Mutex
	fileLock   *flock.Flock
	path       string
	acquiredAt time.Time
}

// AcquireInstanceLock takes the lock at path, retrying until timeout.
func AcquireInstanceLock(ctx context.Context, path string, timeout time.Duration) (*InstanceLock, error) {
	if path == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && lockCtx.Err() == nil {
		return nil, fmt.Errorf("failed to attempt lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another bookbot instance holds %s (timeout after %v)", path, timeout)
	}

	l := &InstanceLock{fileLock: fl, path: path, acquiredAt: time.Now()}
	slog.Info("Instance lock acquired", "path", path)
	return l, nil
}

func (l *InstanceLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLock == nil {
		return
	}
	if err := l.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release instance lock", "path", l.path, "error", err)
	} else {
		slog.Info("Instance lock released", "path", l.path, "held_duration_ms", time.Since(l.acquiredAt).Milliseconds())
	}
	l.fileLock = nil
}

func (l *InstanceLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fileLock != nil
}
