package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the medagent configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Datasets DatasetsConfig `yaml:"datasets"`
	Routing  RoutingConfig  `yaml:"routing"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LLMConfig holds language-model provider settings.
type LLMConfig struct {
	Provider             string       `yaml:"provider"`
	APIKey               string       `yaml:"api_key"`
	BaseURL              string       `yaml:"base_url"`
	SynthesisModel       string       `yaml:"synthesis_model"`
	NarrationModel       string       `yaml:"narration_model"`
	KnowledgeModel       string       `yaml:"knowledge_model"`
	SynthesisTemperature float32      `yaml:"synthesis_temperature"`
	NarrationTemperature float32      `yaml:"narration_temperature"`
	TimeoutSec           int          `yaml:"timeout_sec"`
	Budget               BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// SearchConfig holds web-search provider settings.
type SearchConfig struct {
	Provider    string `yaml:"provider"` // tavily (default)
	APIKey      string `yaml:"api_key"`
	Endpoint    string `yaml:"endpoint"`
	Depth       string `yaml:"depth"` // basic, advanced (default)
	MaxResults  int    `yaml:"max_results"`
	QueryPrefix string `yaml:"query_prefix"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	// CacheTTLSec caches hits in redis when redis is configured. 0 disables caching.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// DatasetConfig points a domain at its sqlite file and table.
type DatasetConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
	// Source is the CSV file the load command reads, relative to its --dir.
	Source string `yaml:"source"`
}

// DatasetsConfig holds the structured stores, keyed by domain name.
type DatasetsConfig struct {
	Dir             string                   `yaml:"dir"`
	Stores          map[string]DatasetConfig `yaml:"stores"`
	QueryTimeoutSec int                      `yaml:"query_timeout_sec"`
	MaxRows         int                      `yaml:"max_rows"`
}

// Store returns the dataset for a domain with its path resolved against Dir.
func (d DatasetsConfig) Store(name string) (DatasetConfig, bool) {
	ds, ok := d.Stores[name]
	if !ok {
		return DatasetConfig{}, false
	}
	if !filepath.IsAbs(ds.Path) {
		ds.Path = filepath.Join(d.Dir, ds.Path)
	}
	return ds, true
}

// RoutingConfig extends the built-in classification lexicon.
type RoutingConfig struct {
	DataTerms  []string            `yaml:"data_terms"`
	DomainCues map[string][]string `yaml:"domain_cues"`
}

// RedisConfig enables optional token budget persistence.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// defaultDatasets mirrors the layout produced by the load command.
var defaultDatasets = map[string]DatasetConfig{
	"heart":    {Path: "heart_disease.db", Table: "heart_disease", Source: "heart.csv"},
	"cancer":   {Path: "cancer.db", Table: "cancer", Source: "The_Cancer_data_1500_V2.csv"},
	"diabetes": {Path: "diabetes.db", Table: "diabetes", Source: "diabetes.csv"},
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.SynthesisModel == "" {
		c.LLM.SynthesisModel = "gpt-4o-mini"
	}
	if c.LLM.NarrationModel == "" {
		c.LLM.NarrationModel = "gpt-3.5-turbo"
	}
	if c.LLM.KnowledgeModel == "" {
		c.LLM.KnowledgeModel = "gpt-4o-mini"
	}
	if c.LLM.SynthesisTemperature <= 0 {
		c.LLM.SynthesisTemperature = 0.1
	}
	if c.LLM.NarrationTemperature <= 0 {
		c.LLM.NarrationTemperature = 0.7
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "tavily"
	}
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = "https://api.tavily.com/search"
	}
	if c.Search.Depth == "" {
		c.Search.Depth = "advanced"
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 5
	}
	if c.Search.QueryPrefix == "" {
		c.Search.QueryPrefix = "medical information about "
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Search.CacheTTLSec < 0 {
		c.Search.CacheTTLSec = 0
	}
	if c.Datasets.Dir == "" {
		c.Datasets.Dir = filepath.Join("data", "db")
	}
	if c.Datasets.Stores == nil {
		c.Datasets.Stores = make(map[string]DatasetConfig, len(defaultDatasets))
	}
	for name, def := range defaultDatasets {
		ds := c.Datasets.Stores[name]
		if ds.Path == "" {
			ds.Path = def.Path
		}
		if ds.Table == "" {
			ds.Table = def.Table
		}
		if ds.Source == "" {
			ds.Source = def.Source
		}
		c.Datasets.Stores[name] = ds
	}
	if c.Datasets.QueryTimeoutSec <= 0 {
		c.Datasets.QueryTimeoutSec = 30
	}
	if c.Datasets.MaxRows <= 0 {
		c.Datasets.MaxRows = 500
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
}

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.LLM.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("llm.budget.action must be \"warn\" or \"reject\", got %q", c.LLM.Budget.Action)
	}
	if c.LLM.Provider != "openai" {
		return fmt.Errorf("llm.provider must be \"openai\", got %q", c.LLM.Provider)
	}
	if c.Search.Provider != "tavily" {
		return fmt.Errorf("search.provider must be \"tavily\", got %q", c.Search.Provider)
	}
	switch c.Search.Depth {
	case "basic", "advanced":
		// ok
	default:
		return fmt.Errorf("search.depth must be \"basic\" or \"advanced\", got %q", c.Search.Depth)
	}
	for name, ds := range c.Datasets.Stores {
		switch name {
		case "heart", "cancer", "diabetes":
		default:
			return fmt.Errorf("datasets.stores.%s: unknown domain", name)
		}
		if !tableNameRegex.MatchString(ds.Table) {
			return fmt.Errorf("datasets.stores.%s.table %q is not a valid identifier", name, ds.Table)
		}
	}
	for name := range c.Routing.DomainCues {
		switch name {
		case "heart", "cancer", "diabetes":
		default:
			return fmt.Errorf("routing.domain_cues.%s: unknown domain", name)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
