package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/config"
	dbRedis "github.com/kailas-cloud/medagent/internal/db/redis"
	"github.com/kailas-cloud/medagent/internal/db/sqlite"
	"github.com/kailas-cloud/medagent/internal/domain"
	logpkg "github.com/kailas-cloud/medagent/internal/logger"
	"github.com/kailas-cloud/medagent/internal/metrics"
	budgetrepo "github.com/kailas-cloud/medagent/internal/repository/budget"
	"github.com/kailas-cloud/medagent/internal/repository/searchcache"
	openaiLLM "github.com/kailas-cloud/medagent/internal/transport/openai"
	"github.com/kailas-cloud/medagent/internal/transport/tavily"
	completionuc "github.com/kailas-cloud/medagent/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/medagent/internal/usecase/health"
	knowledgeuc "github.com/kailas-cloud/medagent/internal/usecase/knowledge"
	narrateuc "github.com/kailas-cloud/medagent/internal/usecase/narrate"
	"github.com/kailas-cloud/medagent/internal/usecase/orchestrator"
	synthuc "github.com/kailas-cloud/medagent/internal/usecase/synth"
	usageuc "github.com/kailas-cloud/medagent/internal/usecase/usage"
)

// app is the composition root shared by the serve and ask commands.
type app struct {
	env          string
	cfg          config.Config
	logger       *zap.Logger
	registry     *sqlite.Registry
	kv           *dbRedis.Store
	orchestrator *orchestrator.Service
	usage        *usageuc.Service
	health       *healthuc.Service
}

// newLogged loads the config for env and builds its logger.
func newLogged(env string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, logger, err := newLogged(env)
	if err != nil {
		return nil, err
	}
	a := &app{env: env, cfg: cfg, logger: logger}

	metrics.RegisterAgentMetrics()

	a.registry, err = openDatasets(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Datasets opened", zap.Stringers("domains", a.registry.Domains()))

	if cfg.Redis.Enabled() {
		a.kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		if err := a.kv.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	// Single BudgetTracker shared by the completer chain and the usage service.
	var budget *completionuc.BudgetTracker
	budgetCfg := cfg.LLM.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := completionuc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = completionuc.BudgetActionReject
		}
		budget = completionuc.NewBudgetTracker(
			cfg.LLM.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		if a.kv != nil {
			budget.WithStore(ctx, budgetrepo.New(a.kv, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker completionuc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	llm := completionuc.NewInstrumentedCompleter(
		openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.SynthesisModel,
			Provider:     cfg.LLM.Provider,
			Timeout:      time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:       logger,
		}),
		cfg.LLM.Provider, budgetChecker, logger,
	)

	synth := synthuc.New(llm, synthuc.Config{
		Model:       cfg.LLM.SynthesisModel,
		Temperature: cfg.LLM.SynthesisTemperature,
	}, logger)

	var searcher knowledgeuc.Searcher = tavily.New(tavily.Config{
		APIKey:   cfg.Search.APIKey,
		Endpoint: cfg.Search.Endpoint,
		Timeout:  time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	if a.kv != nil && cfg.Search.CacheTTLSec > 0 {
		searcher = searchcache.New(
			searcher, a.kv, time.Duration(cfg.Search.CacheTTLSec)*time.Second,
			metrics.SearchCacheTotal, logger,
		)
	}
	search := knowledgeuc.New(searcher, knowledgeuc.Config{
		Provider:    cfg.Search.Provider,
		QueryPrefix: cfg.Search.QueryPrefix,
		Depth:       cfg.Search.Depth,
		MaxResults:  cfg.Search.MaxResults,
	}, logger)

	narrator := narrateuc.New(llm, narrateuc.Config{
		DataModel:      cfg.LLM.NarrationModel,
		KnowledgeModel: cfg.LLM.KnowledgeModel,
		Temperature:    cfg.LLM.NarrationTemperature,
	}, logger)

	cues, err := domainCues(cfg.Routing.DomainCues)
	if err != nil {
		a.Close()
		return nil, err
	}
	classifier := orchestrator.NewLexiconClassifier(cfg.Routing.DataTerms, cues)

	tools := make([]orchestrator.DataTool, 0, len(a.registry.Domains()))
	for _, d := range a.registry.Domains() {
		t, _ := a.registry.Get(d)
		tools = append(tools, t)
	}
	a.orchestrator = orchestrator.New(classifier, tools, synth, search, narrator, logger)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	a.usage = usageuc.New(budgetReader)

	var kvPinger healthuc.Pinger
	if a.kv != nil {
		kvPinger = a.kv
	}
	a.health = healthuc.New(a.registry, llm, kvPinger)

	return a, nil
}

// Close releases the datasets and the redis connection.
func (a *app) Close() {
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Warn("Failed to close datasets", zap.Error(err))
		}
	}
	if a.kv != nil {
		a.kv.Close()
	}
	_ = a.logger.Sync()
}

// openDatasets opens one read-only tool per configured domain.
func openDatasets(cfg config.Config, logger *zap.Logger) (*sqlite.Registry, error) {
	var cfgs []sqlite.Config
	for _, d := range domain.Domains() {
		ds, ok := cfg.Datasets.Store(d.String())
		if !ok {
			logger.Warn("Dataset not configured", zap.String("domain", d.String()))
			continue
		}
		cfgs = append(cfgs, sqlite.Config{
			Domain:       d,
			Path:         ds.Path,
			Table:        ds.Table,
			QueryTimeout: time.Duration(cfg.Datasets.QueryTimeoutSec) * time.Second,
			MaxRows:      cfg.Datasets.MaxRows,
			Logger:       logger,
		})
	}
	reg, err := sqlite.OpenRegistry(cfgs)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasets: %w", err)
	}
	return reg, nil
}

func domainCues(raw map[string][]string) (map[domain.Domain][]string, error) {
	cues := make(map[domain.Domain][]string, len(raw))
	for name, terms := range raw {
		d, err := domain.ParseDomain(name)
		if err != nil {
			return nil, fmt.Errorf("routing.domain_cues: %w", err)
		}
		cues[d] = terms
	}
	return cues, nil
}
