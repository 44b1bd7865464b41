package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// --- Mocks ---

type mockCompleter struct {
	text  string
	err   error
	calls int
	req   domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.calls++
	m.req = req
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Text: m.text, TotalTokens: 12}, nil
}

// --- Tests ---

func TestSynthesize_ReturnsTextVerbatim(t *testing.T) {
	raw := "```sql\nSELECT AVG(age) FROM heart_disease;\n```"
	llm := &mockCompleter{text: raw}
	svc := New(llm, Config{Model: "gpt-4o-mini", Temperature: 0.1}, nil)

	q, err := svc.Synthesize(context.Background(), "What is the average age?", domain.Heart, "heart_disease")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != raw {
		t.Errorf("query = %q, want verbatim %q", q, raw)
	}
	if llm.calls != 1 {
		t.Errorf("expected 1 completion call, got %d", llm.calls)
	}
}

func TestSynthesize_Request(t *testing.T) {
	llm := &mockCompleter{text: "SELECT 1"}
	svc := New(llm, Config{Model: "gpt-4o-mini", Temperature: 0.1}, nil)

	question := "How many cancer patients are over 60?"
	if _, err := svc.Synthesize(context.Background(), question, domain.Cancer, "cancer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "You are a SQL query generator. Generate a SQL query for the cancer table based on the user's question."
	if llm.req.Instruction != want {
		t.Errorf("instruction = %q", llm.req.Instruction)
	}
	if llm.req.Input != question {
		t.Errorf("input = %q, want raw question", llm.req.Input)
	}
	if llm.req.Model != "gpt-4o-mini" || llm.req.Temperature != 0.1 {
		t.Errorf("model/temperature = %q/%v", llm.req.Model, llm.req.Temperature)
	}
}

func TestSynthesize_EmptyOutputPassesThrough(t *testing.T) {
	svc := New(&mockCompleter{text: ""}, Config{}, nil)

	q, err := svc.Synthesize(context.Background(), "q", domain.Diabetes, "diabetes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "" {
		t.Errorf("query = %q", q)
	}
}

func TestSynthesize_ProviderError(t *testing.T) {
	svc := New(&mockCompleter{err: domain.ErrCompletionProvider}, Config{}, nil)

	_, err := svc.Synthesize(context.Background(), "q", domain.Heart, "heart_disease")
	if !errors.Is(err, domain.ErrSynthesis) {
		t.Errorf("expected ErrSynthesis, got %v", err)
	}
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) || execErr.Domain != domain.Heart {
		t.Errorf("expected ExecutionError for heart, got %v", err)
	}
	if !errors.Is(err, domain.ErrExecution) {
		t.Errorf("expected ErrExecution, got %v", err)
	}
}
