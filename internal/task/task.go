// Package task runs fire-and-forget goroutines that can still be joined.
//
// A Handle is the joinable side of a spawned goroutine. A Group keeps handles
// in issue order so that an owner can dispatch work without blocking and later
// wait for all of it.
package task

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// PanicError is returned by Join when the task function panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Handle is a running or finished task.
type Handle struct {
	done chan struct{}
	err  error
}

// Go runs fn on a new goroutine and returns its handle.
func Go(fn func() error) *Handle {
	h := &Handle{done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()

		h.err = fn()
	}()

	return h
}

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Join blocks until the task has finished and returns its error.
func (h *Handle) Join() error {
	<-h.done
	return h.err
}

// Group is an ordered collection of handles.
//
// The zero value is ready to use.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
}

// Go spawns fn and records its handle.
func (g *Group) Go(fn func() error) *Handle {
	h := Go(fn)

	g.mu.Lock()
	g.handles = append(g.handles, h)
	g.mu.Unlock()

	return h
}

// Len returns the number of tasks spawned so far.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Wait joins every handle recorded so far, in issue order, and returns the
// first error. All handles are joined even after an error has been seen.
func (g *Group) Wait() error {
	g.mu.Lock()
	handles := make([]*Handle, len(g.handles))
	copy(handles, g.handles)
	g.mu.Unlock()

	var first error
	for _, h := range handles {
		if err := h.Join(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
