package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/docent/pkg/llm"
)

// MockCompleter replays scripted replies. When Replies runs out the last
// reply repeats. Err, when set, is returned instead.
type MockCompleter struct {
	Replies []string
	Err     error

	mu      sync.Mutex
	prompts []string
	opts    []llm.Options
}

// NewMockCompleter returns a completer that answers with replies in order.
func NewMockCompleter(replies ...string) *MockCompleter {
	return &MockCompleter{Replies: replies}
}

func (m *MockCompleter) Complete(_ context.Context, prompt string, opts llm.Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "", nil
	}
	return m.Replies[min(idx, len(m.Replies)-1)], nil
}

// Calls reports how many completions were requested.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt received, in order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the options of the most recent call.
func (m *MockCompleter) LastOptions() llm.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return llm.Options{}
	}
	return m.opts[len(m.opts)-1]
}
