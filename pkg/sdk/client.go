package medagent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/db/sqlite"
	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/medagent/internal/usecase/health"
	"github.com/kailas-cloud/medagent/internal/usecase/knowledge"
	"github.com/kailas-cloud/medagent/internal/usecase/narrate"
	"github.com/kailas-cloud/medagent/internal/usecase/orchestrator"
	"github.com/kailas-cloud/medagent/internal/usecase/synth"
	usageuc "github.com/kailas-cloud/medagent/internal/usecase/usage"
)

// Internal interfaces for substitution in tests.
type orchestratorUseCase interface {
	Decide(question string) domain.Decision
	Answer(ctx context.Context, question string) domain.Answer
	Schema(ctx context.Context, d domain.Domain) (domain.Schema, error)
	Domains() []domain.Domain
}

// Client is the medagent SDK entry point.
type Client struct {
	registry  *sqlite.Registry
	orch      orchestratorUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
}

// New creates a Client and opens its datasets.
// The provided context is used for the initial dataset check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.llm == nil {
		return nil, errors.New("medagent: language model required (use WithOpenAI or WithCompleter)")
	}
	if cfg.searcher == nil {
		return nil, errors.New("medagent: search provider required (use WithTavily or WithSearcher)")
	}
	if len(cfg.datasets) == 0 {
		return nil, errors.New("medagent: at least one dataset required (use WithDatasetsDir or WithDataset)")
	}

	registry, err := openRegistry(cfg)
	if err != nil {
		return nil, err
	}

	if err := registry.Ping(ctx); err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("medagent: datasets not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		_ = registry.Close()
		return nil, err
	}
	return wireClient(registry, cfg, obs), nil
}

func openRegistry(cfg *clientConfig) (*sqlite.Registry, error) {
	for name := range cfg.datasets {
		if _, err := domain.ParseDomain(name); err != nil {
			return nil, fmt.Errorf("medagent: dataset %w", err)
		}
	}

	cfgs := make([]sqlite.Config, 0, len(cfg.datasets))
	for _, d := range domain.Domains() {
		ref, ok := cfg.datasets[d.String()]
		if !ok {
			continue
		}
		cfgs = append(cfgs, sqlite.Config{
			Domain:       d,
			Path:         ref.path,
			Table:        ref.table,
			QueryTimeout: cfg.queryTimeout,
			MaxRows:      cfg.maxRows,
		})
	}
	registry, err := sqlite.OpenRegistry(cfgs)
	if err != nil {
		return nil, fmt.Errorf("medagent: open datasets: %w", err)
	}
	return registry, nil
}

func wireClient(registry *sqlite.Registry, cfg *clientConfig, obs *observer) *Client {
	// Budget: nil interface (not typed nil pointer) when unlimited.
	var budget *completion.BudgetTracker
	var budgetChecker completion.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if cfg.dailyTokenLimit > 0 || cfg.monthlyTokenLimit > 0 {
		action := completion.BudgetActionWarn
		if cfg.rejectOverBudget {
			action = completion.BudgetActionReject
		}
		budget = completion.NewBudgetTracker("sdk", cfg.dailyTokenLimit, cfg.monthlyTokenLimit, action, zap.NewNop())
		budgetChecker = budget
		budgetReader = budget
	}

	llm := completion.NewInstrumentedCompleter(cfg.llm, "sdk", budgetChecker, nil)

	tools := make([]orchestrator.DataTool, 0, len(registry.Domains()))
	for _, d := range registry.Domains() {
		t, _ := registry.Get(d)
		tools = append(tools, t)
	}

	orch := orchestrator.New(
		orchestrator.NewLexiconClassifier(nil, nil),
		tools,
		synth.New(llm, synth.Config{Model: cfg.synthesisModel, Temperature: 0.1}, nil),
		knowledge.New(cfg.searcher, knowledge.Config{
			Provider:    "sdk",
			QueryPrefix: cfg.queryPrefix,
			Depth:       cfg.searchDepth,
			MaxResults:  cfg.maxResults,
		}, nil),
		narrate.New(llm, narrate.Config{
			DataModel:      cfg.narrationModel,
			KnowledgeModel: cfg.knowledgeModel,
			Temperature:    0.7,
		}, nil),
		nil,
	)

	return &Client{
		registry:  registry,
		orch:      orch,
		healthSvc: healthuc.New(registry, llm, nil),
		usageSvc:  usageuc.New(budgetReader),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.registry != nil {
		_ = c.registry.Close()
	}
}

// Answer is the single reply to one question.
type Answer struct {
	Text string
	// Path is "structured" or "knowledge".
	Path string
	// Domain is set on the structured path; "unknown" when no condition was named.
	Domain string
	// Err is set when Text is a diagnostic rather than an answer.
	Err error
}

// Decision is the routing choice for a question.
type Decision struct {
	Path   string
	Domain string
}

// Ask answers one question. It never fails: errors are reported in Answer.Err
// and rendered into Answer.Text.
func (c *Client) Ask(ctx context.Context, question string) Answer {
	start := time.Now()
	a := c.orch.Answer(ctx, question)

	answer := Answer{
		Text:   a.Text,
		Path:   string(a.Decision.Path),
		Domain: string(a.Decision.Domain),
		Err:    a.Err,
	}
	c.obs.observeAnswer(answer, start)
	return answer
}

// Decide classifies a question without calling any tool or provider.
func (c *Client) Decide(question string) Decision {
	d := c.orch.Decide(question)
	return Decision{Path: string(d.Path), Domain: string(d.Domain)}
}

// Column describes one column of a dataset table.
type Column struct {
	Name string
	Type string
}

// Schema describes the backing table of a dataset.
type Schema struct {
	Table   string
	Columns []Column
}

// Schema returns the table layout of a dataset.
func (c *Client) Schema(ctx context.Context, name string) (s Schema, err error) {
	start := time.Now()
	defer func() { c.obs.observe("schema", start, err) }()

	d, err := domain.ParseDomain(name)
	if err != nil {
		return Schema{}, err
	}
	ds, err := c.orch.Schema(ctx, d)
	if err != nil {
		return Schema{}, fmt.Errorf("schema %s: %w", d, err)
	}

	cols := make([]Column, len(ds.Columns))
	for i, col := range ds.Columns {
		cols[i] = Column{Name: col.Name, Type: col.Type}
	}
	return Schema{Table: ds.Table, Columns: cols}, nil
}

// Datasets lists the configured domains in routing priority order.
func (c *Client) Datasets() []string {
	ds := c.orch.Domains()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
