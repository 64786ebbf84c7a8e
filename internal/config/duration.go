package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Timeouts are the parsed http.* durations.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Timeouts parses the listener timeouts, filling defaults.
func (c HTTPConfig) Timeouts() (Timeouts, error) {
	var (
		t    Timeouts
		err  error
		errs []error
	)
	if t.Read, err = ParseDurationOrDefault("http.read_timeout", c.ReadTimeout, 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if t.Write, err = ParseDurationOrDefault("http.write_timeout", c.WriteTimeout, 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if t.Idle, err = ParseDurationOrDefault("http.idle_timeout", c.IdleTimeout, 60*time.Second); err != nil {
		errs = append(errs, err)
	}
	return t, errors.Join(errs...)
}

// Validate checks values that decoding alone cannot catch.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if _, err := c.HTTP.Timeouts(); err != nil {
		errs = append(errs, err)
	}
	if c.HTTP.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be >= 0"))
	}
	if c.HTTP.RatePerSec < 0 {
		errs = append(errs, errors.New("http.rate_per_sec must be >= 0"))
	}
	if c.HTTP.Burst < 0 {
		errs = append(errs, errors.New("http.burst must be >= 0"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.MetricsPath(), "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}
