package config

import "strings"

// Config is the service configuration file.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	HTTP    HTTPConfig    `json:"http"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
	Pprof   PprofConfig   `json:"pprof,omitempty"`
	Builder BuilderConfig `json:"builder"`
}

// HTTPConfig controls the API listener.
//
// Defaults (when fields are omitted/zero):
//   - addr: "127.0.0.1:8080"
//   - read_timeout: "10s", write_timeout: "15s", idle_timeout: "60s"
//   - max_body_bytes: 1 MiB
//   - rate_per_sec: 0 (unlimited), burst: rate_per_sec
type HTTPConfig struct {
	Addr         string `json:"addr,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`

	MaxBodyBytes int64   `json:"max_body_bytes,omitempty"`
	RatePerSec   float64 `json:"rate_per_sec,omitempty"`
	Burst        int     `json:"burst,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // default: "/metrics"
}

// PprofConfig mounts net/http/pprof on the API router.
//
// Security note:
//   - Without a token, profiles are served to loopback clients only.
//   - With a token, every request must carry "Authorization: Bearer <token>" (or ?token=).
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Prefix  string `json:"prefix,omitempty"` // default: "/debug/pprof/"
	Token   string `json:"token,omitempty"`  // do not log
}

// BuilderConfig tunes the generated DAG skeleton.
type BuilderConfig struct {
	DefaultOwner string `json:"default_owner,omitempty"`
}

const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultMaxBodyBytes = 1 << 20
	DefaultMetricsPath  = "/metrics"
	DefaultPprofPrefix  = "/debug/pprof/"
)

// Default is used when no config file is given.
func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Addr: DefaultAddr},
		Logging: LoggingConfig{Level: "info", Console: true},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// MetricsPath returns the configured path or the default.
func (c MetricsConfig) MetricsPath() string {
	if p := strings.TrimSpace(c.Path); p != "" {
		return p
	}
	return DefaultMetricsPath
}

// PrefixOrDefault returns a prefix that starts and ends with a slash.
func (c PprofConfig) PrefixOrDefault() string {
	p := strings.TrimSpace(c.Prefix)
	if p == "" {
		return DefaultPprofPrefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// AddrOrDefault returns the listener address.
func (c HTTPConfig) AddrOrDefault() string {
	if a := strings.TrimSpace(c.Addr); a != "" {
		return a
	}
	return DefaultAddr
}

// BodyLimit returns the request body cap in bytes.
func (c HTTPConfig) BodyLimit() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}
