package medagent

import (
	"context"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Completer produces one completion for one instructed input.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single role-instructed completion call.
// Empty Model selects the provider default.
type CompletionRequest struct {
	Model       string
	Instruction string
	Input       string
	Temperature float32
}

// CompletionResult carries the response text and token counts.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Searcher runs one web search.
type Searcher interface {
	Search(ctx context.Context, query, depth string, maxResults int) ([]Snippet, error)
}

// Snippet is one ranked search hit.
type Snippet struct {
	Title   string
	Content string
	Source  string
}

// completerAdapter bridges the public Completer to domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	res, err := a.inner.Complete(ctx, CompletionRequest{
		Model:       req.Model,
		Instruction: req.Instruction,
		Input:       req.Input,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CompletionResult{
		Text:             res.Text,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		TotalTokens:      res.TotalTokens,
	}, nil
}

// HealthCheck delegates when the inner completer can check itself.
func (a *completerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// searcherAdapter bridges the public Searcher to the knowledge search contract.
type searcherAdapter struct {
	inner Searcher
}

func (a *searcherAdapter) Search(ctx context.Context, query, depth string, maxResults int) ([]domain.Snippet, error) {
	hits, err := a.inner.Search(ctx, query, depth, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Snippet, len(hits))
	for i, h := range hits {
		out[i] = domain.Snippet{Title: h.Title, Content: h.Content, Source: h.Source}
	}
	return out, nil
}
