package knowledge

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

// DefaultQueryPrefix is prepended to every question sent to the provider.
const DefaultQueryPrefix = "medical information about "

// Config controls how questions are sent to the provider.
type Config struct {
	Provider    string
	QueryPrefix string
	Depth       string
	MaxResults  int
}

// Service is the knowledge search tool.
type Service struct {
	searcher Searcher
	cfg      Config
	logger   *zap.Logger
}

// New creates a knowledge search tool. An empty QueryPrefix selects DefaultQueryPrefix.
func New(searcher Searcher, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueryPrefix == "" {
		cfg.QueryPrefix = DefaultQueryPrefix
	}
	return &Service{searcher: searcher, cfg: cfg, logger: logger}
}

// Search runs one provider search. Provider failures become the error marker
// instead of an error return.
func (s *Service) Search(ctx context.Context, question string) domain.SearchResultSet {
	snippets, err := s.searcher.Search(ctx, s.cfg.QueryPrefix+question, s.cfg.Depth, s.cfg.MaxResults)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(s.cfg.Provider, "error").Inc()
		s.logger.Warn("Knowledge search failed", zap.String("provider", s.cfg.Provider), zap.Error(err))
		return domain.SearchFailure(err)
	}

	if s.cfg.MaxResults > 0 && len(snippets) > s.cfg.MaxResults {
		snippets = snippets[:s.cfg.MaxResults]
	}

	metrics.SearchRequestsTotal.WithLabelValues(s.cfg.Provider, "success").Inc()
	s.logger.Debug("Knowledge search completed",
		zap.String("provider", s.cfg.Provider),
		zap.Int("results", len(snippets)),
	)
	return domain.SearchResultSet{Snippets: snippets}
}
