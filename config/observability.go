package config

import "strings"

// ObservabilityConfig controls metric emission to a StatsD agent.
type ObservabilityConfig struct {
	MetricsEnabled bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress  string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix         string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"gameup"`
}

// Sanitize disables metrics when no agent address is configured.
func (c *ObservabilityConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.TrimSpace(c.Prefix)
	if c.StatsdAddress == "" {
		c.MetricsEnabled = false
	}
}

// MetricsAddress returns the agent address, or "" when metrics are off.
func (c *ObservabilityConfig) MetricsAddress() string {
	if !c.MetricsEnabled {
		return ""
	}
	return c.StatsdAddress
}
