package bootstrap

import (
	"context"
	"log/slog"

	"github.com/gameup/gameup-web/config"
	"github.com/gameup/gameup-web/internal/observability/statsd"
)

// BuildMetrics dials the StatsD agent when metrics are enabled. A dial failure
// is logged and metrics stay off; the gateway does not depend on them.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	addr := cfg.MetricsAddress()
	if addr == "" {
		return nil
	}
	client, err := statsd.NewClient(ctx, statsd.Config{
		Address: addr,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.WarnContext(ctx, "metrics disabled", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "statsd metrics enabled", "addr", addr, "prefix", cfg.Prefix)
	return client
}
