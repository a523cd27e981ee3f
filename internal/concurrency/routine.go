package concurrency

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// SafeGo runs fn in its own goroutine. A panic is logged with its stack
// and handed to onPanic instead of taking the process down.
func SafeGo(fn func(), onPanic func(any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic recovered", "panic", r, "stack", string(debug.Stack()))
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}

// Guard runs fn on the calling goroutine and reports a panic as an error.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic recovered", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
