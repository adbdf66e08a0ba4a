package batch

import "time"

// Default batch processing configuration.
const (
	// DefaultRequestInterval is the pause between consecutive batches.
	DefaultRequestInterval = time.Second

	// DefaultMaxConcurrent is the default number of outstanding worker calls.
	DefaultMaxConcurrent = 5

	// DefaultBatchSize is the default number of items per batch.
	DefaultBatchSize = 10

	// DefaultMaxRetries is the default number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultInitialRetryDelay is the base delay between attempts.
	DefaultInitialRetryDelay = time.Second
)

// Config controls batching, pacing, concurrency and retries.
type Config struct {
	// RequestInterval is the pause between consecutive batches. Zero disables pacing.
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`

	// MaxConcurrent caps the number of worker calls in flight.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// BatchSize is the number of items per batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// InitialRetryDelay is the delay before the first retry of a generic failure.
	InitialRetryDelay time.Duration `yaml:"initial_retry_delay" json:"initial_retry_delay"`

	// ItemTimeout bounds each worker attempt. Zero disables the timeout.
	ItemTimeout time.Duration `yaml:"item_timeout" json:"item_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RequestInterval:   DefaultRequestInterval,
		MaxConcurrent:     DefaultMaxConcurrent,
		BatchSize:         DefaultBatchSize,
		MaxRetries:        DefaultMaxRetries,
		InitialRetryDelay: DefaultInitialRetryDelay,
	}
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	for _, check := range c.checks() {
		if check.invalid {
			return &ConfigurationError{Field: check.field, Value: check.value, Reason: check.reason}
		}
	}
	return nil
}

// Sanitize returns a copy of c in which every invalid field is replaced by its
// default, together with the names of the replaced fields.
func (c Config) Sanitize() (Config, []string) {
	def := DefaultConfig()
	out := c
	var replaced []string

	for _, check := range c.checks() {
		if !check.invalid {
			continue
		}
		replaced = append(replaced, check.field)
		switch check.field {
		case "RequestInterval":
			out.RequestInterval = def.RequestInterval
		case "MaxConcurrent":
			out.MaxConcurrent = def.MaxConcurrent
		case "BatchSize":
			out.BatchSize = def.BatchSize
		case "MaxRetries":
			out.MaxRetries = def.MaxRetries
		case "InitialRetryDelay":
			out.InitialRetryDelay = def.InitialRetryDelay
		case "ItemTimeout":
			out.ItemTimeout = def.ItemTimeout
		}
	}
	return out, replaced
}

type fieldCheck struct {
	field   string
	value   any
	invalid bool
	reason  string
}

func (c Config) checks() []fieldCheck {
	return []fieldCheck{
		{"RequestInterval", c.RequestInterval, c.RequestInterval < 0, "must not be negative"},
		{"MaxConcurrent", c.MaxConcurrent, c.MaxConcurrent < 1, "must be at least 1"},
		{"BatchSize", c.BatchSize, c.BatchSize < 1, "must be at least 1"},
		{"MaxRetries", c.MaxRetries, c.MaxRetries < 0, "must not be negative"},
		{"InitialRetryDelay", c.InitialRetryDelay, c.InitialRetryDelay <= 0, "must be positive"},
		{"ItemTimeout", c.ItemTimeout, c.ItemTimeout < 0, "must not be negative"},
	}
}

// RetryPolicy derives the retry policy from c.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   c.MaxRetries,
		InitialDelay: c.InitialRetryDelay,
	}
}
