package events

import (
	"context"
	"sync"

	"github.com/lyzr/genstore/common/logger"
)

// MemoryEmitter buffers events in memory. Used in development and tests
// where no redis is available.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []ProgressEvent
	closed bool
	log    *logger.Logger
}

// NewMemoryEmitter creates an in-memory emitter
func NewMemoryEmitter(log *logger.Logger) *MemoryEmitter {
	return &MemoryEmitter{log: log}
}

// Emit records the event
func (e *MemoryEmitter) Emit(ctx context.Context, event ProgressEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		e.log.Warn("emit on closed emitter", "stage", event.Stage)
		return
	}
	e.events = append(e.events, event)
}

// Events returns a snapshot of everything emitted so far
func (e *MemoryEmitter) Events() []ProgressEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ProgressEvent, len(e.events))
	copy(out, e.events)
	return out
}

// Close marks the emitter closed
func (e *MemoryEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return nil
}
