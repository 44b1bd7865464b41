package medagent

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/medagent/internal/domain"
	openaiLLM "github.com/kailas-cloud/medagent/internal/transport/openai"
	"github.com/kailas-cloud/medagent/internal/transport/tavily"
	"github.com/kailas-cloud/medagent/internal/usecase/knowledge"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type datasetRef struct {
	path  string
	table string
}

type clientConfig struct {
	datasets map[string]datasetRef

	llm      domain.Completer
	searcher knowledge.Searcher

	synthesisModel string
	narrationModel string
	knowledgeModel string
	searchDepth    string
	queryPrefix    string
	maxResults     int
	queryTimeout   time.Duration
	maxRows        int

	dailyTokenLimit   int64
	monthlyTokenLimit int64
	rejectOverBudget  bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		datasets:       make(map[string]datasetRef),
		synthesisModel: "gpt-4o-mini",
		narrationModel: "gpt-3.5-turbo",
		knowledgeModel: "gpt-4o-mini",
		searchDepth:    "advanced",
		queryPrefix:    knowledge.DefaultQueryPrefix,
		maxResults:     5,
		queryTimeout:   30 * time.Second,
		maxRows:        500,
	}
}

// WithDataset binds a domain ("heart", "cancer" or "diabetes") to a sqlite file and table.
// A later call for the same domain replaces the earlier one.
func WithDataset(name, path, table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.datasets[name] = datasetRef{path: path, table: table}
	})
}

// WithDatasetsDir binds all three domains to the files written by `medagent load`
// (heart_disease.db, cancer.db, diabetes.db) under dir.
func WithDatasetsDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.datasets["heart"] = datasetRef{path: filepath.Join(dir, "heart_disease.db"), table: "heart_disease"}
		c.datasets["cancer"] = datasetRef{path: filepath.Join(dir, "cancer.db"), table: "cancer"}
		c.datasets["diabetes"] = datasetRef{path: filepath.Join(dir, "diabetes.db"), table: "diabetes"}
	})
}

// WithCompleter sets the language-model provider.
func WithCompleter(llm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.llm = &completerAdapter{inner: llm}
	})
}

// WithOpenAI uses an OpenAI-compatible chat completions API.
// Empty baseURL selects the public OpenAI endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llm = openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:       apiKey,
			BaseURL:      baseURL,
			DefaultModel: c.synthesisModel,
			Provider:     "openai",
			Timeout:      60 * time.Second,
		})
	})
}

// WithSearcher sets the web-search provider.
func WithSearcher(s Searcher) Option {
	return optionFunc(func(c *clientConfig) {
		c.searcher = &searcherAdapter{inner: s}
	})
}

// WithTavily uses the Tavily search API.
func WithTavily(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.searcher = tavily.New(tavily.Config{APIKey: apiKey, Timeout: 30 * time.Second})
	})
}

// WithModels overrides the model used for each stage. Empty values keep the default.
func WithModels(synthesis, narration, knowledgeModel string) Option {
	return optionFunc(func(c *clientConfig) {
		if synthesis != "" {
			c.synthesisModel = synthesis
		}
		if narration != "" {
			c.narrationModel = narration
		}
		if knowledgeModel != "" {
			c.knowledgeModel = knowledgeModel
		}
	})
}

// WithSearchDepth sets the search depth ("basic" or "advanced") and result count.
func WithSearchDepth(depth string, maxResults int) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchDepth = depth
		c.maxResults = maxResults
	})
}

// WithQueryPrefix sets the text prepended to questions sent to the search provider.
// Empty keeps "medical information about ".
func WithQueryPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		if prefix != "" {
			c.queryPrefix = prefix
		}
	})
}

// WithQueryLimits bounds each structured query by time and returned rows.
// Zero disables the bound.
func WithQueryLimits(timeout time.Duration, maxRows int) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = timeout
		c.maxRows = maxRows
	})
}

// WithBudget enables an in-memory token budget. With reject set, calls over
// budget fail instead of logging a warning. Zero limits are unlimited.
func WithBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokenLimit = daily
		c.monthlyTokenLimit = monthly
		c.rejectOverBudget = reject
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
