package synth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
)

const instructionFormat = "You are a SQL query generator. Generate a SQL query for the %s table based on the user's question."

// Config controls the generation call.
type Config struct {
	Model       string
	Temperature float32
}

// Service turns a question into a query string for one domain table.
type Service struct {
	llm    Completer
	cfg    Config
	logger *zap.Logger
}

// New creates a query synthesizer.
func New(llm Completer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, cfg: cfg, logger: logger}
}

// Instruction returns the role instruction for a table.
func Instruction(table string) string {
	return fmt.Sprintf(instructionFormat, table)
}

// Synthesize makes one completion call and returns the model text verbatim.
// Unusable output is not detected here; the data tool rejects it at execution.
// A failed call is an execution error for d that also matches ErrSynthesis.
func (s *Service) Synthesize(ctx context.Context, question string, d domain.Domain, table string) (string, error) {
	res, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       s.cfg.Model,
		Instruction: Instruction(table),
		Input:       question,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", domain.NewExecutionError(d, fmt.Errorf("%w: %w", domain.ErrSynthesis, err))
	}

	s.logger.Debug("Query synthesized",
		zap.String("domain", d.String()),
		zap.String("query", res.Text),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res.Text, nil
}
