// Package recommend ranks people for a requested skill set.
package recommend

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/spigell/workload-radar/internal/workload"
)

const DefaultTopK = 3

// Candidate is a ranked person with the factors its score is built from.
type Candidate struct {
	Person             workload.Person `json:"person"`
	Score              float64         `json:"score"`
	Similarity         float64         `json:"similarity"`
	Availability       float64         `json:"availability"`
	BurnoutSafety      float64         `json:"burnout_safety"`
	ProductivityFactor float64         `json:"productivity_factor"`
}

// Rank scores every person against the requested skills and returns the
// best topK, highest score first. Equal scores keep input order.
// A non-positive topK means DefaultTopK.
//
// The score is the cosine similarity of the binary skill vectors multiplied
// by (1 - FTE), (1 - burnout risk) and productivity/100. Inputs are not
// clamped.
func Rank(requested []string, people []workload.Person, topK int) []Candidate {
	requested = cleanSkills(requested)
	if len(requested) == 0 || len(people) == 0 {
		return []Candidate{}
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	universe := skillUniverse(requested, people)
	want := vector(universe, requested)

	candidates := make([]Candidate, 0, len(people))
	for _, person := range people {
		c := Candidate{
			Person:             person,
			Similarity:         cosine(vector(universe, person.Skills), want),
			Availability:       1 - person.FTE,
			BurnoutSafety:      1 - person.BurnoutRisk,
			ProductivityFactor: float64(person.Productivity) / 100,
		}
		c.Score = c.Similarity * c.Availability * c.BurnoutSafety * c.ProductivityFactor
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return candidates
}

// skillUniverse returns every skill seen in the request or on a person, sorted.
func skillUniverse(requested []string, people []workload.Person) map[string]int {
	seen := make(map[string]bool)
	for _, s := range requested {
		seen[s] = true
	}
	for _, p := range people {
		for _, s := range p.Skills {
			seen[s] = true
		}
	}

	names := make([]string, 0, len(seen))
	for s := range seen {
		names = append(names, s)
	}
	sort.Strings(names)

	index := make(map[string]int, len(names))
	for i, s := range names {
		index[s] = i
	}
	return index
}

func vector(universe map[string]int, skills []string) []float64 {
	v := make([]float64, len(universe))
	for _, s := range skills {
		if i, ok := universe[s]; ok {
			v[i] = 1
		}
	}
	return v
}

// cosine is 0 when either vector is all zeros.
func cosine(a, b []float64) float64 {
	norms := floats.Dot(a, a) * floats.Dot(b, b)
	if norms == 0 {
		return 0
	}
	return floats.Dot(a, b) / math.Sqrt(norms)
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
