package medagent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/medagent/internal/dataset"
	"github.com/kailas-cloud/medagent/internal/domain"
)

func noopSearcher() *mockSearcher {
	return &mockSearcher{fn: func(context.Context, string, string, int) ([]Snippet, error) { return nil, nil }}
}

// heartDB loads a three-patient heart table and returns the sqlite path.
func heartDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "heart.csv")
	if err := os.WriteFile(csvPath, []byte("age,sex,target\n50,1,1\n60,0,1\n70,1,0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "heart_disease.db")
	if _, err := dataset.NewLoader(nil).Load(context.Background(), dataset.Source{
		CSVPath: csvPath,
		DBPath:  dbPath,
		Table:   "heart_disease",
	}); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return dbPath
}

func TestNew_NoCompleter(t *testing.T) {
	_, err := New(context.Background(), WithSearcher(noopSearcher()), WithDatasetsDir(t.TempDir()))
	if err == nil {
		t.Fatal("expected error when no language model provided")
	}
}

func TestNew_NoSearcher(t *testing.T) {
	calls := 0
	_, err := New(context.Background(), WithCompleter(scriptedCompleter("", &calls)), WithDatasetsDir(t.TempDir()))
	if err == nil {
		t.Fatal("expected error when no search provider provided")
	}
}

func TestNew_NoDatasets(t *testing.T) {
	calls := 0
	_, err := New(context.Background(), WithCompleter(scriptedCompleter("", &calls)), WithSearcher(noopSearcher()))
	if err == nil {
		t.Fatal("expected error when no dataset provided")
	}
}

func TestNew_UnknownDatasetDomain(t *testing.T) {
	calls := 0
	_, err := New(context.Background(),
		WithCompleter(scriptedCompleter("", &calls)),
		WithSearcher(noopSearcher()),
		WithDataset("liver", heartDB(t), "liver"),
	)
	if !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("err = %v, want ErrUnknownDomain", err)
	}
}

func TestNew_MissingDatasetFile(t *testing.T) {
	calls := 0
	_, err := New(context.Background(),
		WithCompleter(scriptedCompleter("", &calls)),
		WithSearcher(noopSearcher()),
		WithDatasetsDir(t.TempDir()),
	)
	if err == nil {
		t.Fatal("expected error for missing dataset files")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := defaultClientConfig()
	if cfg.maxResults != 5 || cfg.searchDepth != "advanced" || cfg.queryTimeout != 30*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.queryPrefix != "medical information about " {
		t.Errorf("query prefix = %q", cfg.queryPrefix)
	}
	WithQueryPrefix("").apply(cfg)
	if cfg.queryPrefix != "medical information about " {
		t.Errorf("empty prefix replaced default: %q", cfg.queryPrefix)
	}
	WithQueryPrefix("clinical facts on ").apply(cfg)
	if cfg.queryPrefix != "clinical facts on " {
		t.Errorf("query prefix = %q", cfg.queryPrefix)
	}

	WithDatasetsDir("data").apply(cfg)
	if got := cfg.datasets["cancer"]; got.path != filepath.Join("data", "cancer.db") || got.table != "cancer" {
		t.Errorf("cancer dataset = %+v", got)
	}
	WithDataset("cancer", "/tmp/c.db", "cancer_v2").apply(cfg)
	if got := cfg.datasets["cancer"]; got.path != "/tmp/c.db" || got.table != "cancer_v2" {
		t.Errorf("override = %+v", got)
	}
	if len(cfg.datasets) != 3 {
		t.Errorf("datasets = %d, want 3", len(cfg.datasets))
	}

	WithModels("m1", "", "m3").apply(cfg)
	if cfg.synthesisModel != "m1" || cfg.narrationModel != "gpt-3.5-turbo" || cfg.knowledgeModel != "m3" {
		t.Errorf("models = %q %q %q", cfg.synthesisModel, cfg.narrationModel, cfg.knowledgeModel)
	}

	WithSearchDepth("basic", 3).apply(cfg)
	if cfg.searchDepth != "basic" || cfg.maxResults != 3 {
		t.Errorf("search = %q/%d", cfg.searchDepth, cfg.maxResults)
	}

	WithQueryLimits(time.Second, 10).apply(cfg)
	if cfg.queryTimeout != time.Second || cfg.maxRows != 10 {
		t.Errorf("limits = %v/%d", cfg.queryTimeout, cfg.maxRows)
	}

	WithBudget(100, 1000, true).apply(cfg)
	if cfg.dailyTokenLimit != 100 || cfg.monthlyTokenLimit != 1000 || !cfg.rejectOverBudget {
		t.Errorf("budget = %d/%d/%v", cfg.dailyTokenLimit, cfg.monthlyTokenLimit, cfg.rejectOverBudget)
	}

	WithOpenAI("sk-test", "http://localhost:1").apply(cfg)
	if cfg.llm == nil {
		t.Error("expected language model to be set")
	}
	WithTavily("tvly-test").apply(cfg)
	if cfg.searcher == nil {
		t.Error("expected searcher to be set")
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilRegistry(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestCompleterAdapter(t *testing.T) {
	mock := &mockCompleter{fn: func(_ context.Context, req CompletionRequest) (CompletionResult, error) {
		if req.Model != "gpt-4o-mini" || req.Temperature != 0.1 || req.Input != "q" {
			t.Errorf("request = %+v", req)
		}
		return CompletionResult{Text: "SELECT 1", PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, nil
	}}

	adapter := &completerAdapter{inner: mock}
	res, err := adapter.Complete(context.Background(), domain.CompletionRequest{
		Model: "gpt-4o-mini", Instruction: "i", Input: "q", Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "SELECT 1" || res.TotalTokens != 5 {
		t.Errorf("result = %+v", res)
	}
	if err := adapter.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck without inner support: %v", err)
	}
}

func TestCompleterAdapter_Error(t *testing.T) {
	mock := &mockCompleter{fn: func(context.Context, CompletionRequest) (CompletionResult, error) {
		return CompletionResult{}, errors.New("provider down")
	}}

	adapter := &completerAdapter{inner: mock}
	if _, err := adapter.Complete(context.Background(), domain.CompletionRequest{}); err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestSearcherAdapter(t *testing.T) {
	mock := &mockSearcher{fn: func(_ context.Context, q, depth string, n int) ([]Snippet, error) {
		if q != "flu" || depth != "basic" || n != 2 {
			t.Errorf("args = %q %q %d", q, depth, n)
		}
		return []Snippet{{Title: "Flu", Content: "Fever", Source: "https://example.org"}}, nil
	}}

	adapter := &searcherAdapter{inner: mock}
	hits, err := adapter.Search(context.Background(), "flu", "basic", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0] != (domain.Snippet{Title: "Flu", Content: "Fever", Source: "https://example.org"}) {
		t.Errorf("hits = %+v", hits)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observeAnswer(Answer{Path: "knowledge", Err: errors.New("err")}, time.Now())
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("schema", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("schema", time.Now(), errors.New("fail"))
	obs.observeAnswer(Answer{Path: "structured"}, time.Now())

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("schema", "error")); got != 1 {
		t.Errorf("schema errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("ask", "ok")); got != 1 {
		t.Errorf("ask ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.answers.WithLabelValues("structured", "ok")); got != 1 {
		t.Errorf("structured answers = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second newObserver: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered collector to be reused")
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("test.op", time.Now(), nil)
	obs.observe("test.op", time.Now(), errors.New("test error"))
	obs.observeAnswer(Answer{Path: "knowledge"}, time.Now())
}

func TestClient_EndToEnd(t *testing.T) {
	calls := 0
	llm := scriptedCompleter("SELECT AVG(age) AS average_age FROM heart_disease", &calls)
	var searched string
	searcher := &mockSearcher{fn: func(_ context.Context, q, _ string, _ int) ([]Snippet, error) {
		searched = q
		return []Snippet{{Title: "Signs", Content: "Chest discomfort", Source: "https://example.org"}}, nil
	}}
	reg := prometheus.NewRegistry()

	c, err := New(context.Background(),
		WithDataset("heart", heartDB(t), "heart_disease"),
		WithCompleter(llm),
		WithSearcher(searcher),
		WithBudget(1000, 0, false),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if got := c.Datasets(); len(got) != 1 || got[0] != "heart" {
		t.Errorf("Datasets = %v", got)
	}

	a := c.Ask(context.Background(), "What is the average age of heart disease patients?")
	if a.Err != nil {
		t.Fatalf("unexpected failure: %v", a.Err)
	}
	if a.Path != "structured" || a.Domain != "heart" {
		t.Errorf("route = %s/%s", a.Path, a.Domain)
	}
	if !strings.Contains(a.Text, "60") {
		t.Errorf("answer should contain 60:\n%s", a.Text)
	}
	if calls != 2 {
		t.Errorf("expected synthesis + narration, got %d calls", calls)
	}

	k := c.Ask(context.Background(), "What are the early symptoms of heart disease?")
	if k.Path != "knowledge" || !strings.Contains(k.Text, "Chest discomfort") {
		t.Errorf("knowledge answer = %+v", k)
	}
	if searched != "medical information about What are the early symptoms of heart disease?" {
		t.Errorf("searched = %q", searched)
	}

	s, err := c.Schema(context.Background(), "heart")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if s.Table != "heart_disease" || len(s.Columns) != 3 {
		t.Errorf("schema = %+v", s)
	}
	if _, err := c.Schema(context.Background(), "cancer"); !errors.Is(err, ErrDatasetNotConfigured) {
		t.Errorf("cancer schema err = %v, want ErrDatasetNotConfigured", err)
	}

	// 2 structured calls (10 + 20) and 1 narration call (20).
	if u := c.Usage(context.Background(), PeriodDay); u.TokensUsed != 50 || u.Remaining != 950 {
		t.Errorf("usage = %+v", u)
	}

	if h := c.Health(context.Background()); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}

	if got := testutil.ToFloat64(c.obs.metrics.answers.WithLabelValues("structured", "ok")); got != 1 {
		t.Errorf("structured answers = %v, want 1", got)
	}
}

func TestClient_BudgetRejects(t *testing.T) {
	calls := 0
	c, err := New(context.Background(),
		WithDataset("heart", heartDB(t), "heart_disease"),
		WithCompleter(scriptedCompleter("SELECT COUNT(*) AS n FROM heart_disease", &calls)),
		WithSearcher(noopSearcher()),
		WithBudget(25, 0, true),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	q := "How many heart disease patients are there?"
	if a := c.Ask(context.Background(), q); a.Err != nil {
		t.Fatalf("first answer failed: %v", a.Err)
	}
	a := c.Ask(context.Background(), q)
	if !errors.Is(a.Err, ErrCompletionQuotaExceeded) {
		t.Fatalf("err = %v, want ErrCompletionQuotaExceeded", a.Err)
	}
	if !strings.HasPrefix(a.Text, "Error processing query: ") {
		t.Errorf("text = %q", a.Text)
	}
	if calls != 2 {
		t.Errorf("provider calls = %d, want 2", calls)
	}
	if u := c.Usage(context.Background(), PeriodDay); !u.Exhausted {
		t.Errorf("usage = %+v, want exhausted", u)
	}
}
