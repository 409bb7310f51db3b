package parse

import (
	"log/slog"
	"time"
)

// TelemetryMode controls telemetry collection, mirroring the
// production-safe / zero-overhead-by-default telemetry tiers this
// module's front-end packages use elsewhere.
type TelemetryMode int

const (
	TelemetryOff   TelemetryMode = iota // zero overhead (default)
	TelemetryBasic                      // rule-invocation and backtrack counts only
	TelemetryFull                       // counts plus per-parse timing
)

// Telemetry holds parse performance metrics, populated only when
// enabled via WithTelemetry. TotalTime is only measured at
// TelemetryFull — at TelemetryBasic it is left zero, since
// time.Now()/time.Since() is exactly the overhead TelemetryBasic is
// meant to avoid.
type Telemetry struct {
	RuleInvocations int
	BacktrackCount  int
	MaxDepthSeen    int
	TotalTime       time.Duration
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	logger    *slog.Logger
	telemetry TelemetryMode
	maxDepth  int
}

// WithLogger attaches a structured logger. Nil is treated as
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// WithTelemetry enables telemetry collection at the given tier.
func WithTelemetry(mode TelemetryMode) Option {
	return func(c *engineConfig) { c.telemetry = mode }
}

// WithMaxDepth bounds recursive-descent depth; exceeding it is a
// fatal error rather than a stack overflow. Zero (the default) means
// unbounded — the core contract leaves cancellation and depth limits
// to the host, per spec, but a host that wants one can opt in here.
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) { c.maxDepth = depth }
}
