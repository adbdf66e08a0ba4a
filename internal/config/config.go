package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/bizcheck/internal/engine/batch"
	"github.com/rshade/bizcheck/internal/engine/cache"
	"github.com/rshade/bizcheck/internal/logging"
)

// Default API endpoints.
const (
	DefaultBaseURL  = "https://aip.baidubce.com/rest/2.0/ocr/v1"
	DefaultTokenURL = "https://aip.baidubce.com/oauth/2.0/token"
)

// Environment variables that override file values.
const (
	EnvHome            = "BIZCHECK_HOME"
	EnvAPIKey          = "BIZCHECK_API_KEY"
	EnvSecretKey       = "BIZCHECK_SECRET_KEY"
	EnvBaseURL         = "BIZCHECK_BASE_URL"
	EnvRequestInterval = "BIZCHECK_REQUEST_INTERVAL_MS"
	EnvMaxConcurrent   = "BIZCHECK_MAX_CONCURRENT"
	EnvBatchSize       = "BIZCHECK_BATCH_SIZE"
	EnvLogLevel        = "BIZCHECK_LOG_LEVEL"
)

const (
	configFileName = "config.yaml"
	outputTypeFile = "file"
)

// Output formats for terminal results.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatText  = "text"
)

// ErrInvalidConfig is wrapped by Validate errors.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the bizcheck configuration file.
type Config struct {
	API     APIConfig     `yaml:"api"     json:"api"`
	Batch   BatchConfig   `yaml:"batch"   json:"batch"`
	Cache   CacheConfig   `yaml:"cache"   json:"cache"`
	Export  ExportConfig  `yaml:"export"  json:"export"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Output  OutputConfig  `yaml:"output"  json:"output"`

	configPath string
}

// APIConfig holds credentials and endpoints of the verification API.
type APIConfig struct {
	APIKey            string  `yaml:"api_key"             json:"api_key"`
	SecretKey         string  `yaml:"secret_key"          json:"secret_key"`
	BaseURL           string  `yaml:"base_url"            json:"base_url"`
	TokenURL          string  `yaml:"token_url"           json:"token_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"     json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst"               json:"burst"`
}

// BatchConfig holds batch pacing, concurrency and retry settings.
type BatchConfig struct {
	RequestIntervalMS  int `yaml:"request_interval_ms"  json:"request_interval_ms"`
	MaxConcurrent      int `yaml:"max_concurrent"       json:"max_concurrent"`
	BatchSize          int `yaml:"batch_size"           json:"batch_size"`
	MaxRetries         int `yaml:"max_retries"          json:"max_retries"`
	RetryDelayMS       int `yaml:"retry_delay_ms"       json:"retry_delay_ms"`
	ItemTimeoutSeconds int `yaml:"item_timeout_seconds" json:"item_timeout_seconds"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"        json:"enabled"`
	Backend       string `yaml:"backend"        json:"backend"`
	Directory     string `yaml:"directory"      json:"directory"`
	TTLSeconds    int    `yaml:"ttl_seconds"    json:"ttl_seconds"`
	RedisAddr     string `yaml:"redis_addr"     json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db"       json:"redis_db"`
}

// ExportConfig controls report files.
type ExportConfig struct {
	Directory      string   `yaml:"directory"        json:"directory"`
	Formats        []string `yaml:"formats"          json:"formats"`
	IncludeRawData bool     `yaml:"include_raw_data" json:"include_raw_data"`
}

// LoggingConfig controls diagnostics.
type LoggingConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file"   json:"file"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Progress      bool   `yaml:"progress"       json:"progress"`
}

// Default returns the built-in configuration rooted at the config directory.
// It never reads the filesystem.
func Default() *Config {
	dir, err := GetConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), ".bizcheck")
	}

	def := batch.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			TokenURL:          DefaultTokenURL,
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
			Burst:             1,
		},
		Batch: BatchConfig{
			RequestIntervalMS: int(def.RequestInterval / time.Millisecond),
			MaxConcurrent:     def.MaxConcurrent,
			BatchSize:         def.BatchSize,
			MaxRetries:        def.MaxRetries,
			RetryDelayMS:      int(def.InitialRetryDelay / time.Millisecond),
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    cache.BackendFile,
			Directory:  filepath.Join(dir, "cache"),
			TTLSeconds: cache.DefaultTTLSeconds,
		},
		Export: ExportConfig{
			Directory: filepath.Join(dir, "exports"),
			Formats:   []string{"markdown"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
			File:   filepath.Join(dir, "logs", "bizcheck.log"),
		},
		Output: OutputConfig{
			DefaultFormat: OutputFormatTable,
			Progress:      true,
		},
		configPath: filepath.Join(dir, configFileName),
	}
}

// New loads the configuration from the default path with environment
// overrides applied. A missing or unreadable file yields the defaults.
func New() *Config {
	cfg := Default()
	if err := cfg.loadFile(cfg.configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(context.Background()).Warn().Err(err).Msg("ignoring unreadable config file")
	}
	cfg.applyEnv()
	return cfg
}

// Stored loads the configuration file without environment overrides.
// Commands that write the file start from it so overrides are not persisted.
// A missing file yields the defaults.
func Stored() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(cfg.configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return cfg, nil
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.configPath = path
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.configPath
}

// SetPath changes the file Save writes to.
func (c *Config) SetPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	// The file holds API secrets.
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", c.configPath, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		c.API.SecretKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	envInt(EnvRequestInterval, &c.Batch.RequestIntervalMS)
	envInt(EnvMaxConcurrent, &c.Batch.MaxConcurrent)
	envInt(EnvBatchSize, &c.Batch.BatchSize)

	c.Cache.Enabled = cache.GetCacheEnabledFromEnv(c.Cache.Enabled)
	c.Cache.TTLSeconds = cache.GetTTLFromEnv(c.Cache.TTLSeconds)
	if dir := cache.GetCacheDirFromEnv(); dir != "" {
		c.Cache.Directory = dir
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

// Validate checks values that cannot be repaired with defaults. Batch values
// are repaired by BatchProcessorConfig instead.
func (c *Config) Validate() error {
	var errs []error

	switch c.Output.DefaultFormat {
	case OutputFormatTable, OutputFormatJSON, OutputFormatText:
	default:
		errs = append(errs, fmt.Errorf("%w: output.default_format %q must be table, json or text",
			ErrInvalidConfig, c.Output.DefaultFormat))
	}

	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("%w: cache.backend %q must be file or redis",
			ErrInvalidConfig, c.Cache.Backend))
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.Enabled && c.Cache.RedisAddr == "" {
		errs = append(errs, fmt.Errorf("%w: cache.redis_addr is required for the redis backend", ErrInvalidConfig))
	}
	if err := cache.ValidateTTL(c.Cache.TTLSeconds); err != nil {
		errs = append(errs, fmt.Errorf("%w: cache.ttl_seconds: %w", ErrInvalidConfig, err))
	}

	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%w: api.requests_per_second must not be negative", ErrInvalidConfig))
	}
	if c.API.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: api.timeout_seconds must not be negative", ErrInvalidConfig))
	}

	for _, f := range c.Export.Formats {
		switch f {
		case "markdown", "json", "csv":
		default:
			errs = append(errs, fmt.Errorf("%w: export format %q must be markdown, json or csv", ErrInvalidConfig, f))
		}
	}

	if _, replaced := c.batchConfig().Sanitize(); len(replaced) > 0 {
		errs = append(errs, fmt.Errorf("%w: batch fields %s are invalid and will fall back to defaults",
			ErrInvalidConfig, strings.Join(replaced, ", ")))
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether both API keys are set.
func (c *Config) HasCredentials() bool {
	return c.API.APIKey != "" && c.API.SecretKey != ""
}

func (c *Config) batchConfig() batch.Config {
	return batch.Config{
		RequestInterval:   time.Duration(c.Batch.RequestIntervalMS) * time.Millisecond,
		MaxConcurrent:     c.Batch.MaxConcurrent,
		BatchSize:         c.Batch.BatchSize,
		MaxRetries:        c.Batch.MaxRetries,
		InitialRetryDelay: time.Duration(c.Batch.RetryDelayMS) * time.Millisecond,
		ItemTimeout:       time.Duration(c.Batch.ItemTimeoutSeconds) * time.Second,
	}
}

// BatchProcessorConfig converts the batch section, replacing invalid values
// with defaults and logging a warning for each.
func (c *Config) BatchProcessorConfig(ctx context.Context) batch.Config {
	cfg, replaced := c.batchConfig().Sanitize()
	for _, field := range replaced {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "config").
			Str("field", field).
			Msg("invalid batch setting replaced by default")
	}
	return cfg
}

// CacheOptions converts the cache section.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Enabled:       c.Cache.Enabled,
		Backend:       c.Cache.Backend,
		Directory:     c.Cache.Directory,
		TTLSeconds:    c.Cache.TTLSeconds,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
	}
}
