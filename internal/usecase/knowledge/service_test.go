package knowledge

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAgentMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockSearcher struct {
	snippets   []domain.Snippet
	err        error
	calls      int
	query      string
	depth      string
	maxResults int
}

func (m *mockSearcher) Search(_ context.Context, query, depth string, maxResults int) ([]domain.Snippet, error) {
	m.calls++
	m.query, m.depth, m.maxResults = query, depth, maxResults
	return m.snippets, m.err
}

var defaultCfg = Config{
	Provider:    "tavily",
	QueryPrefix: "medical information about ",
	Depth:       "advanced",
	MaxResults:  5,
}

// --- Tests ---

func TestSearch_WrapsQuestion(t *testing.T) {
	s := &mockSearcher{snippets: []domain.Snippet{{Title: "t", Content: "c", Source: "https://a"}}}
	svc := New(s, defaultCfg, nil)

	res := svc.Search(context.Background(), "early symptoms of heart disease")
	if res.Failed() {
		t.Fatalf("unexpected marker: %v", res.Err)
	}
	if len(res.Snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(res.Snippets))
	}
	if s.query != "medical information about early symptoms of heart disease" {
		t.Errorf("query = %q", s.query)
	}
	if s.depth != "advanced" || s.maxResults != 5 {
		t.Errorf("depth/max = %q/%d", s.depth, s.maxResults)
	}
}

func TestSearch_EmptyPrefixUsesDefault(t *testing.T) {
	s := &mockSearcher{}
	svc := New(s, Config{Provider: "test", Depth: "basic", MaxResults: 3}, nil)

	svc.Search(context.Background(), "what is angina")
	if s.query != DefaultQueryPrefix+"what is angina" {
		t.Errorf("query = %q", s.query)
	}
}

func TestSearch_CapsResults(t *testing.T) {
	snippets := make([]domain.Snippet, 8)
	svc := New(&mockSearcher{snippets: snippets}, defaultCfg, nil)

	res := svc.Search(context.Background(), "q")
	if len(res.Snippets) != 5 {
		t.Errorf("expected 5 snippets, got %d", len(res.Snippets))
	}
}

func TestSearch_ProviderErrorBecomesMarker(t *testing.T) {
	cause := errors.New("provider down")
	svc := New(&mockSearcher{err: cause}, Config{Provider: "test-fail"}, nil)

	res := svc.Search(context.Background(), "q")
	if !res.Failed() {
		t.Fatal("expected error marker")
	}
	if !errors.Is(res.Err, cause) {
		t.Errorf("marker err = %v", res.Err)
	}
	if len(res.Snippets) != 0 {
		t.Errorf("marker should carry no snippets")
	}

	if got := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("test-fail", "error")); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}
