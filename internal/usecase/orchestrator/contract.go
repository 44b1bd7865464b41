package orchestrator

import (
	"context"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// DataTool executes queries against one domain table.
type DataTool interface {
	Domain() domain.Domain
	Table() string
	Execute(ctx context.Context, query string) (domain.TabularResult, error)
	Schema(ctx context.Context) (domain.Schema, error)
}

// Synthesizer turns a question into a query for one table.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, d domain.Domain, table string) (string, error)
}

// KnowledgeSearcher runs the knowledge search. It reports provider failures
// through the error marker, never an error return.
type KnowledgeSearcher interface {
	Search(ctx context.Context, question string) domain.SearchResultSet
}

// Narrator turns a result into the final answer text.
type Narrator interface {
	Narrate(ctx context.Context, question string, result domain.Result) (string, error)
}
