package duet

import "github.com/duet-go/duet/metrics"

// RunOption configures a single call to Run.
type RunOption func(*runConfig)

type runConfig struct {
	metrics metrics.Provider
}

func defaultRunConfig() runConfig {
	return runConfig{metrics: metrics.NewNoopProvider()}
}

// WithMetrics attaches a metrics.Provider that Run's scheduler reports
// scheduling activity to: tasks spawned and finished, how many are active,
// and how long each Tick takes to drain. Pass metrics.NewBasicProvider()
// for an in-memory provider, or an adapter over a real backend.
func WithMetrics(p metrics.Provider) RunOption {
	return func(c *runConfig) { c.metrics = p }
}
