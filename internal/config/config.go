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

// Config holds the ragcore service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Extract   ExtractConfig   `yaml:"extract"`
	Index     IndexConfig     `yaml:"index"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// EmbeddingConfig holds embedding provider and adapter settings.
type EmbeddingConfig struct {
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	Dimensions      int     `yaml:"dimensions"`
	BatchSize       int     `yaml:"batch_size"`        // chunks per API call
	BatchCharBudget int     `yaml:"batch_char_budget"` // characters per API call
	DeadlineMS      int     `yaml:"deadline_ms"`
	Retries         int     `yaml:"retries"`
	RetryBaseMS     int     `yaml:"retry_base_ms"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst  int     `yaml:"rate_limit_burst"`

	BudgetDailyTokens   int64  `yaml:"budget_daily_tokens"`   // 0 = unlimited
	BudgetMonthlyTokens int64  `yaml:"budget_monthly_tokens"` // 0 = unlimited
	BudgetAction        string `yaml:"budget_action"`         // warn, reject (default: warn)
}

// ChunkConfig holds chunking defaults applied to new collections.
type ChunkConfig struct {
	Size             int `yaml:"size"`
	Overlap          int `yaml:"overlap"`
	MinSentenceChars int `yaml:"min_sentence_chars"`
}

// RetrievalConfig holds query-time defaults and caps.
type RetrievalConfig struct {
	Alpha      float64 `yaml:"alpha"`
	MinScore   float64 `yaml:"min_score"`
	KDefault   int     `yaml:"k_default"`
	KMax       int     `yaml:"k_max"`
	MaxHops    int     `yaml:"max_hops"`
	TokenChars int     `yaml:"token_chars"` // token estimate: 1 token ~ N characters
	DeadlineMS int     `yaml:"deadline_ms"` // bound on a whole query
}

// IngestConfig holds ingestion worker pool settings.
type IngestConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// ExtractConfig holds text extraction settings.
type ExtractConfig struct {
	CSVSampleRows int `yaml:"csv_sample_rows"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.BatchCharBudget <= 0 {
		c.Embedding.BatchCharBudget = 100_000
	}
	if c.Embedding.DeadlineMS <= 0 {
		c.Embedding.DeadlineMS = 30_000
	}
	if c.Embedding.Retries <= 0 {
		c.Embedding.Retries = 6
	}
	if c.Embedding.RetryBaseMS <= 0 {
		c.Embedding.RetryBaseMS = 250
	}
	if c.Embedding.RateLimitBurst <= 0 {
		c.Embedding.RateLimitBurst = 1
	}
	if c.Embedding.BudgetAction == "" {
		c.Embedding.BudgetAction = "warn"
	}
	if c.Chunk.Size <= 0 {
		c.Chunk.Size = 1000
	}
	if c.Chunk.Overlap <= 0 {
		c.Chunk.Overlap = 200
	}
	if c.Chunk.MinSentenceChars <= 0 {
		c.Chunk.MinSentenceChars = 10
	}
	if c.Retrieval.Alpha <= 0 {
		c.Retrieval.Alpha = 0.7
	}
	if c.Retrieval.MinScore <= 0 {
		c.Retrieval.MinScore = 0.1
	}
	if c.Retrieval.KDefault <= 0 {
		c.Retrieval.KDefault = 5
	}
	if c.Retrieval.KMax <= 0 {
		c.Retrieval.KMax = 50
	}
	if c.Retrieval.MaxHops <= 0 {
		c.Retrieval.MaxHops = 3
	}
	if c.Retrieval.TokenChars <= 0 {
		c.Retrieval.TokenChars = 4
	}
	if c.Retrieval.DeadlineMS <= 0 {
		c.Retrieval.DeadlineMS = 10_000
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.QueueSize <= 0 {
		c.Ingest.QueueSize = 256
	}
	if c.Extract.CSVSampleRows <= 0 {
		c.Extract.CSVSampleRows = 5
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Embedding.BudgetAction {
	case "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget_action must be \"warn\" or \"reject\", got %q", c.Embedding.BudgetAction)
	}
	if c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap (%d) must be less than chunk.size (%d)", c.Chunk.Overlap, c.Chunk.Size)
	}
	if c.Retrieval.Alpha > 1 {
		return fmt.Errorf("retrieval.alpha must be in [0, 1], got %g", c.Retrieval.Alpha)
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
