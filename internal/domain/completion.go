package domain

import "context"

// Completer is the language-model contract shared between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CompletionRequest is a single role-instructed completion call.
// Empty Model selects the provider default.
type CompletionRequest struct {
	Model       string
	Instruction string
	Input       string
	Temperature float32
}

// CompletionResult carries the response text and token usage through the decorator chain.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
