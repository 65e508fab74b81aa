package ai

import (
	"context"

	"github.com/spigell/workload-radar/internal/workload"
)

// Assessment is a model's estimate of the figures the workspace database
// does not store. Fields the model was not asked for are zero.
type Assessment struct {
	BurnoutRisk  float64
	Productivity int
	Complexity   float64
	Reason       string
	Raw          string
}

type Estimator interface {
	EstimatePerson(ctx context.Context, person workload.Person) (*Assessment, error)
	EstimateItem(ctx context.Context, item workload.WorkItem) (*Assessment, error)
	Model() string
}
