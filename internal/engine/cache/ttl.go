package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultTTLSeconds is the default cache TTL (1 day).
	DefaultTTLSeconds = 86400

	// MinTTLSeconds is the minimum allowed TTL (1 minute).
	MinTTLSeconds = 60

	// MaxTTLSeconds is the maximum allowed TTL (30 days).
	MaxTTLSeconds = 2592000

	minutesPerHour = 60
	hoursPerDay    = 24

	// EnvTTLSeconds overrides the TTL.
	EnvTTLSeconds = "BIZCHECK_CACHE_TTL_SECONDS"

	// EnvCacheEnabled enables or disables the cache.
	EnvCacheEnabled = "BIZCHECK_CACHE_ENABLED"

	// EnvCacheDir overrides the cache directory.
	EnvCacheDir = "BIZCHECK_CACHE_DIR"
)

// ErrInvalidTTL reports a TTL outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// ValidateTTL checks that seconds is within the allowed range.
func ValidateTTL(seconds int) error {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return nil
}

// GetTTLFromEnv returns the TTL from the environment, or fallback when the
// variable is unset or invalid.
func GetTTLFromEnv(fallback int) int {
	envVal := os.Getenv(EnvTTLSeconds)
	if envVal == "" {
		return fallback
	}

	ttl, err := strconv.Atoi(envVal)
	if err != nil || ValidateTTL(ttl) != nil {
		return fallback
	}
	return ttl
}

// GetCacheEnabledFromEnv returns the enabled flag from the environment, or
// fallback when unset or unparseable.
func GetCacheEnabledFromEnv(fallback bool) bool {
	envVal := os.Getenv(EnvCacheEnabled)
	if envVal == "" {
		return fallback
	}

	enabled, err := strconv.ParseBool(envVal)
	if err != nil {
		return fallback
	}
	return enabled
}

// GetCacheDirFromEnv returns the cache directory from the environment, or "".
func GetCacheDirFromEnv() string {
	return os.Getenv(EnvCacheDir)
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "45s", "30m", "5h30m", "2d", "1d6h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses integer seconds ("3600") or a Go duration ("12h").
func ParseTTL(s string) (int, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		duration, durErr := time.ParseDuration(s)
		if durErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", durErr)
		}
		seconds = int(duration.Seconds())
	}

	if err := ValidateTTL(seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}
