package rag

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion indicates the generation provider returned empty or
// all-whitespace text. It is always wrapped in a ProviderError.
var ErrEmptyCompletion = errors.New("model returned empty completion")

// ErrContractViolation indicates an internal invariant was broken, such as
// an embedding batch whose size does not match its input. It is never
// caused by user input.
var ErrContractViolation = errors.New("contract violation")

// ProviderError reports a failure of an external collaborator. Provider
// names the collaborator ("embedding", "generation", "vector store") so
// callers can attribute the failure without parsing messages.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// newProviderError wraps err as a ProviderError for the named collaborator.
func newProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Err: err}
}
