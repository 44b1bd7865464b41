package knowledge

import (
	"context"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Searcher is the web-search provider contract.
type Searcher interface {
	Search(ctx context.Context, query, depth string, maxResults int) ([]domain.Snippet, error)
}
