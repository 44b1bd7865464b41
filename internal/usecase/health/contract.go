package health

import "context"

// Pinger checks a store's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks language-model provider availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
