package devicesim

// Option configures a System at construction time.
type Option func(*System)

// WithDebugLogging sets the System's log level to debug.
func WithDebugLogging() Option {
	return func(s *System) {
		s.debug = true
	}
}

// WithMaxMatches overrides the MonitorEngine's per-notification match
// cap (default 32). Implementations may raise it but the engine always
// enforces some bound.
func WithMaxMatches(n int) Option {
	return func(s *System) {
		s.maxMatches = n
	}
}

// WithMetricsAddr enables a background Prometheus /metrics endpoint on
// addr (e.g. ":2112"), started during Init.
func WithMetricsAddr(addr string) Option {
	return func(s *System) {
		s.metricsAddr = addr
	}
}
