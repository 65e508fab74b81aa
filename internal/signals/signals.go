// Package signals provides the metric sources behind workload.MetricProvider.
// None of them observe real workload; they stand in for figures the
// workspace database does not record.
package signals

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/spigell/workload-radar/internal/ai"
	"github.com/spigell/workload-radar/internal/workload"
)

const (
	ProviderRandom = "random"
	ProviderStatic = "static"
	ProviderGemini = "gemini"

	minProductivity = 70
	maxProductivity = 100
)

// Random draws burnout risk and complexity uniformly from [0,1) and
// productivity uniformly from [70,100].
type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom seeds the generator; a zero seed uses the current time.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rnd: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return ProviderRandom }

func (r *Random) PersonMetrics(context.Context, workload.Person) (workload.PersonMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return workload.PersonMetrics{
		BurnoutRisk:  r.rnd.Float64(),
		Productivity: minProductivity + r.rnd.Intn(maxProductivity-minProductivity+1),
	}, nil
}

func (r *Random) ItemComplexity(context.Context, workload.WorkItem) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rnd.Float64(), nil
}

// Static returns the same configured figures for everyone.
type Static struct {
	BurnoutRisk  float64 `mapstructure:"burnout-risk"`
	Productivity int     `mapstructure:"productivity"`
	Complexity   float64 `mapstructure:"complexity"`
}

func (s Static) Name() string { return ProviderStatic }

func (s Static) PersonMetrics(context.Context, workload.Person) (workload.PersonMetrics, error) {
	return workload.PersonMetrics{BurnoutRisk: s.BurnoutRisk, Productivity: s.Productivity}, nil
}

func (s Static) ItemComplexity(context.Context, workload.WorkItem) (float64, error) {
	return s.Complexity, nil
}

func (s Static) Validate() error {
	if s.BurnoutRisk < 0 || s.BurnoutRisk > 1 {
		return fmt.Errorf("static burnout-risk must be within [0,1], got %v", s.BurnoutRisk)
	}
	if s.Productivity < 0 || s.Productivity > 100 {
		return fmt.Errorf("static productivity must be within [0,100], got %d", s.Productivity)
	}
	if s.Complexity < 0 || s.Complexity > 1 {
		return fmt.Errorf("static complexity must be within [0,1], got %v", s.Complexity)
	}
	return nil
}

// Estimated asks a language model for every figure.
type Estimated struct {
	estimator ai.Estimator
}

func NewEstimated(estimator ai.Estimator) *Estimated {
	return &Estimated{estimator: estimator}
}

func (e *Estimated) Name() string { return ProviderGemini }

func (e *Estimated) PersonMetrics(ctx context.Context, person workload.Person) (workload.PersonMetrics, error) {
	assessment, err := e.estimator.EstimatePerson(ctx, person)
	if err != nil {
		return workload.PersonMetrics{}, err
	}
	return workload.PersonMetrics{
		BurnoutRisk:  assessment.BurnoutRisk,
		Productivity: assessment.Productivity,
	}, nil
}

func (e *Estimated) ItemComplexity(ctx context.Context, item workload.WorkItem) (float64, error) {
	assessment, err := e.estimator.EstimateItem(ctx, item)
	if err != nil {
		return 0, err
	}
	return assessment.Complexity, nil
}
