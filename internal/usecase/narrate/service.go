package narrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Role instructions per input kind.
const (
	DataInstruction      = "You are a medical data analyst. Format the data results into a clear, natural language response."
	KnowledgeInstruction = "You are a medical knowledge assistant. Provide accurate, helpful information based on search results."
)

// Config selects models and sampling for narration.
type Config struct {
	DataModel      string
	KnowledgeModel string
	Temperature    float32
}

// Service turns a raw result into a natural-language answer.
type Service struct {
	llm    Completer
	cfg    Config
	logger *zap.Logger
}

// New creates a result narrator.
func New(llm Completer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, cfg: cfg, logger: logger}
}

// Narrate makes one completion call and returns the model text verbatim.
func (s *Service) Narrate(ctx context.Context, question string, result domain.Result) (string, error) {
	req, err := s.request(question, result)
	if err != nil {
		return "", err
	}

	res, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNarration, err)
	}

	s.logger.Debug("Answer narrated",
		zap.String("model", req.Model),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res.Text, nil
}

func (s *Service) request(question string, result domain.Result) (domain.CompletionRequest, error) {
	switch r := result.(type) {
	case domain.TabularResult:
		return domain.CompletionRequest{
			Model:       s.cfg.DataModel,
			Instruction: DataInstruction,
			Input:       fmt.Sprintf("Query: %s\nData Results:\n%s", question, FormatTable(r)),
			Temperature: s.cfg.Temperature,
		}, nil
	case domain.SearchResultSet:
		return domain.CompletionRequest{
			Model:       s.cfg.KnowledgeModel,
			Instruction: KnowledgeInstruction,
			Input:       fmt.Sprintf("Based on these search results, answer the query: %s\nResults: %s", question, FormatSnippets(r)),
			Temperature: s.cfg.Temperature,
		}, nil
	default:
		return domain.CompletionRequest{}, fmt.Errorf("%w: unsupported result %T", domain.ErrNarration, result)
	}
}
