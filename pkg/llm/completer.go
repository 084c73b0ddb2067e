// Package llm defines the language-model completion contract shared by the
// answer composer, the summarizer and the knowledge capability.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrModelCall matches every ModelCallError.
var ErrModelCall = errors.New("model call failed")

// Options tune a single completion.
type Options struct {
	// MaxTokens caps the length of the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is passed through when set.
	Temperature *float64
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// ModelCallError reports a transport, status or decoding fault from a
// completion provider.
type ModelCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelCallError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: %s/%s: %v", ErrModelCall, e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrModelCall, e.Provider, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrModelCall) hold for every ModelCallError.
func (e *ModelCallError) Is(target error) bool {
	return target == ErrModelCall
}

// NewModelCallError wraps err for provider and model.
func NewModelCallError(provider, model string, err error) *ModelCallError {
	return &ModelCallError{Provider: provider, Model: model, Err: err}
}
