package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDomain signals a name outside heart, cancer, diabetes.
	ErrUnknownDomain = errors.New("unknown domain")
	// ErrSynthesis signals a failed or unusable query generation.
	ErrSynthesis = errors.New("query synthesis failed")
	// ErrExecution signals a structured query that could not be run.
	ErrExecution = errors.New("query execution failed")
	// ErrUnsafeQuery signals a generated query rejected before execution.
	ErrUnsafeQuery = errors.New("query rejected")
	// ErrSearchProvider signals a web-search provider failure.
	ErrSearchProvider = errors.New("search provider error")
	// ErrNarration signals a failed answer narration.
	ErrNarration = errors.New("narration failed")
	// ErrCompletionProvider signals a language-model provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrCompletionQuotaExceeded signals an exhausted token budget.
	ErrCompletionQuotaExceeded = errors.New("completion quota exceeded")
	// ErrDatasetNotConfigured signals a domain without a backing store.
	ErrDatasetNotConfigured = errors.New("dataset not configured")
)

// ExecutionError is returned by a Structured Data Tool when the store rejects a query
// or the connection fails.
type ExecutionError struct {
	Domain Domain
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s dataset: %s", e.Domain, e.Err.Error())
}

// Is matches ErrExecution.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError wraps err as an execution error for d.
func NewExecutionError(d Domain, err error) error {
	return &ExecutionError{Domain: d, Err: err}
}
