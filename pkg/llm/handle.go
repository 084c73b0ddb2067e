package llm

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrHandleClosed is returned by Acquire once the handle is closed.
var ErrHandleClosed = errors.New("llm handle closed")

// Factory builds the underlying completer on first use.
type Factory func(ctx context.Context) (Completer, error)

// Handle is a lazily initialized, reference-counted completer shared by every
// query in the process. The completer is built on the first Acquire and torn
// down once Close has been called and every holder has released it.
type Handle struct {
	factory Factory

	mu        sync.Mutex
	completer Completer
	refs      int
	closed    bool
	closeErr  error
	torndown  bool
}

// NewHandle returns a Handle that builds its completer with factory.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Acquire returns the shared completer and a release func the caller must
// invoke when done with it. A failed build is not cached.
func (h *Handle) Acquire(ctx context.Context) (Completer, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, ErrHandleClosed
	}

	if h.completer == nil {
		c, err := h.factory(ctx)
		if err != nil {
			return nil, nil, err
		}
		h.completer = c
	}

	h.refs++

	var once sync.Once
	release := func() {
		once.Do(h.release)
	}
	return h.completer, release, nil
}

func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.refs--
	if h.closed && h.refs == 0 {
		h.teardown()
	}
}

// Refs reports the number of outstanding acquisitions.
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Close marks the handle for teardown. The completer is closed immediately
// when nothing holds it, otherwise when the last holder releases it.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return h.closeErr
	}
	h.closed = true

	if h.refs == 0 {
		h.teardown()
	}
	return h.closeErr
}

// teardown must be called with mu held.
func (h *Handle) teardown() {
	if h.torndown {
		return
	}
	h.torndown = true

	if closer, ok := h.completer.(io.Closer); ok {
		h.closeErr = closer.Close()
	}
	h.completer = nil
}

// Completer returns a Completer that acquires the shared completer for the
// duration of each call.
func (h *Handle) Completer() Completer {
	return CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		c, release, err := h.Acquire(ctx)
		if err != nil {
			return "", err
		}
		defer release()
		return c.Complete(ctx, prompt, opts)
	})
}
