package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedCompleter wraps a Completer with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget can be nil.
func NewInstrumentedCompleter(
	inner domain.Completer, provider string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates to the inner completer, and records usage.
func (p *InstrumentedCompleter) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", req.Model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Completion request failed",
			zap.String("provider", p.provider),
			zap.String("model", req.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	if p.budget != nil && result.TotalTokens > 0 {
		p.budget.Record(int64(result.TotalTokens))
		remaining := metrics.CompletionBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Completion request completed",
		zap.String("provider", p.provider),
		zap.String("model", req.Model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck delegates to the inner completer when it supports health checks.
func (p *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx)
}
