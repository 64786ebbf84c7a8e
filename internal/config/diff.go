package config

import (
	"strings"

	logx "dagforge/pkg/logx"
)

// Change summarizes the difference between two configs.
type Change struct {
	// Sections lists changed top-level sections in declaration order.
	Sections []string
	// Attrs are safe structured fields for logging (never includes tokens).
	Attrs []logx.Field
	// RestartRequired is set when a value only takes effect on restart
	// (listener address and timeouts).
	RestartRequired bool
}

// Changed reports whether section is part of the change.
func (c Change) Changed(section string) bool {
	for _, s := range c.Sections {
		if s == section {
			return true
		}
	}
	return false
}

// SummarizeConfigChange compares oldCfg and newCfg. Nil configs compare as zero values.
func SummarizeConfigChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var ch Change

	oh, nh := oldCfg.HTTP, newCfg.HTTP
	if oh != nh {
		ch.Sections = append(ch.Sections, "http")
		ch.Attrs = append(ch.Attrs,
			logx.String("http.addr", nh.AddrOrDefault()),
			logx.Int64("http.max_body_bytes", nh.BodyLimit()),
			logx.Any("http.rate_per_sec", nh.RatePerSec),
			logx.Int("http.burst", nh.Burst),
		)
		if oh.AddrOrDefault() != nh.AddrOrDefault() ||
			strings.TrimSpace(oh.ReadTimeout) != strings.TrimSpace(nh.ReadTimeout) ||
			strings.TrimSpace(oh.WriteTimeout) != strings.TrimSpace(nh.WriteTimeout) ||
			strings.TrimSpace(oh.IdleTimeout) != strings.TrimSpace(nh.IdleTimeout) {
			ch.RestartRequired = true
		}
	}

	if oldCfg.Logging != newCfg.Logging {
		ch.Sections = append(ch.Sections, "logging")
		ch.Attrs = append(ch.Attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Metrics != newCfg.Metrics {
		ch.Sections = append(ch.Sections, "metrics")
		ch.Attrs = append(ch.Attrs,
			logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
			logx.String("metrics.path", newCfg.Metrics.MetricsPath()),
		)
	}

	op, np := oldCfg.Pprof, newCfg.Pprof
	if op.Enabled != np.Enabled || op.PrefixOrDefault() != np.PrefixOrDefault() ||
		strings.TrimSpace(op.Token) != strings.TrimSpace(np.Token) {
		ch.Sections = append(ch.Sections, "pprof")
		ch.Attrs = append(ch.Attrs,
			logx.Bool("pprof.enabled", np.Enabled),
			logx.String("pprof.prefix", np.PrefixOrDefault()),
			logx.Bool("pprof.token_set", strings.TrimSpace(np.Token) != ""),
		)
	}

	if strings.TrimSpace(oldCfg.Builder.DefaultOwner) != strings.TrimSpace(newCfg.Builder.DefaultOwner) {
		ch.Sections = append(ch.Sections, "builder")
		ch.Attrs = append(ch.Attrs, logx.String("builder.default_owner", strings.TrimSpace(newCfg.Builder.DefaultOwner)))
	}

	return ch
}
