package recommend

import (
	"fmt"

	"github.com/spigell/workload-radar/internal/workload"
)

// Query is a staffing request. Hours is carried through to the result for
// display and does not take part in scoring.
type Query struct {
	Skills []string `json:"skills"`
	Hours  float64  `json:"hours,omitempty"`
	TopK   int      `json:"top"`
}

type Result struct {
	Query      Query       `json:"query"`
	Candidates []Candidate `json:"candidates"`
}

func (q Query) Validate() error {
	if q.Hours < 0 {
		return fmt.Errorf("hours must not be negative, got %v", q.Hours)
	}
	if q.TopK < 0 {
		return fmt.Errorf("top must not be negative, got %d", q.TopK)
	}
	return nil
}

// Recommend ranks people for q and echoes the effective query back.
func Recommend(q Query, people []workload.Person) Result {
	q.Skills = cleanSkills(q.Skills)
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}

	return Result{
		Query:      q,
		Candidates: Rank(q.Skills, people, q.TopK),
	}
}
