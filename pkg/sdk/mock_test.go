package medagent

import (
	"context"
	"strings"

	"github.com/kailas-cloud/medagent/internal/domain"
	healthuc "github.com/kailas-cloud/medagent/internal/usecase/health"
	usageuc "github.com/kailas-cloud/medagent/internal/usecase/usage"
)

// --- orchestratorUseCase mock ---

type mockOrchestrator struct {
	decideFn  func(question string) domain.Decision
	answerFn  func(ctx context.Context, question string) domain.Answer
	schemaFn  func(ctx context.Context, d domain.Domain) (domain.Schema, error)
	domainsFn func() []domain.Domain
}

func (m *mockOrchestrator) Decide(question string) domain.Decision {
	return m.decideFn(question)
}

func (m *mockOrchestrator) Answer(ctx context.Context, question string) domain.Answer {
	return m.answerFn(ctx, question)
}

func (m *mockOrchestrator) Schema(ctx context.Context, d domain.Domain) (domain.Schema, error) {
	return m.schemaFn(ctx, d)
}

func (m *mockOrchestrator) Domains() []domain.Domain {
	return m.domainsFn()
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	fn func(ctx context.Context, period usageuc.Period) usageuc.Report
}

func (m *mockUsageUC) GetReport(ctx context.Context, period usageuc.Period) usageuc.Report {
	return m.fn(ctx, period)
}

// --- public provider mocks ---

type mockCompleter struct {
	fn func(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return m.fn(ctx, req)
}

type mockSearcher struct {
	fn func(ctx context.Context, query, depth string, maxResults int) ([]Snippet, error)
}

func (m *mockSearcher) Search(ctx context.Context, query, depth string, maxResults int) ([]Snippet, error) {
	return m.fn(ctx, query, depth, maxResults)
}

// scriptedCompleter answers synthesis with a fixed query and echoes narration input.
func scriptedCompleter(query string, calls *int) *mockCompleter {
	return &mockCompleter{fn: func(_ context.Context, req CompletionRequest) (CompletionResult, error) {
		*calls++
		if strings.HasPrefix(req.Instruction, "You are a SQL query generator") {
			return CompletionResult{Text: query, TotalTokens: 10}, nil
		}
		return CompletionResult{Text: "Summary of findings:\n" + req.Input, TotalTokens: 20}, nil
	}}
}
