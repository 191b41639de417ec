// Package signals delivers OS shutdown signals to registered handlers.
// The settings CLI uses it to deinitialize the persistence engine before
// the process exits.
package signals

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// sigChan is buffered to avoid missing signals delivered while no receiver is ready.
var sigChan = make(chan os.Signal, 1)

// Handler is a function called when a signal is received.
type Handler func()

var (
	mu           sync.RWMutex
	interrupters []Handler
	stopOnce     sync.Once
)

// RegisterInterruptHandler registers a handler called on SIGINT/SIGTERM
// (shutdown). Nil handlers are silently ignored.
func RegisterInterruptHandler(f Handler) {
	if f == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	interrupters = append(interrupters, f)
}

func handleInterrupted() {
	mu.RLock()
	snapshot := make([]Handler, len(interrupters))
	copy(snapshot, interrupters)
	mu.RUnlock()
	for _, fn := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// no logger here; panicking handlers still must be visible
					fmt.Fprintf(os.Stderr, "signals: panic in interrupt handler: %v\n", r)
				}
			}()
			fn()
		}()
	}
}

// StopHandle closes the signal channel, causing Handle() to return.
// Safe to call multiple times; only the first call takes effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
