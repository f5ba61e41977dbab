// Package metrics shapes gateway events into StatsD metrics.
package metrics

import (
	"time"

	"github.com/gameup/gameup-web/internal/observability/statsd"
)

// Metric names.
const (
	NavigationCount    = "guard.navigation"
	NavigationDuration = "guard.duration"
)

// NavigationMetric describes one evaluated navigation.
type NavigationMetric struct {
	State    string
	Role     string // empty while unauthenticated or unresolved
	Duration time.Duration
	// ErrorClass tags Loading and Denied outcomes caused by an error.
	ErrorClass string
}

// EmitNavigation counts the outcome and records how long the guard took.
func EmitNavigation(sink statsd.Sink, in NavigationMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"state": in.State}
	if in.Role != "" {
		tags["role"] = in.Role
	}
	if in.ErrorClass != "" {
		tags["error_class"] = in.ErrorClass
	}

	sink.Count(NavigationCount, 1, tags)
	if in.Duration > 0 {
		sink.Timing(NavigationDuration, in.Duration, map[string]string{"state": in.State})
	}
}
