package workload

import "context"

// PersonMetrics are the per-person figures the workspace database does not store.
type PersonMetrics struct {
	BurnoutRisk  float64
	Productivity int
}

// MetricProvider fills the figures the source data cannot provide. The
// implementations in use are placeholders; keeping them behind this
// interface makes that visible and swappable.
type MetricProvider interface {
	Name() string
	PersonMetrics(ctx context.Context, person Person) (PersonMetrics, error)
	ItemComplexity(ctx context.Context, item WorkItem) (float64, error)
}
