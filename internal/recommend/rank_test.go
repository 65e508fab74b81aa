package recommend

import (
	"math"
	"reflect"
	"testing"

	"github.com/spigell/workload-radar/internal/workload"
)

func person(name string, fte, burnout float64, productivity int, skills ...string) workload.Person {
	return workload.Person{
		Name:         name,
		Skills:       skills,
		FTE:          fte,
		BurnoutRisk:  burnout,
		Productivity: productivity,
	}
}

func names(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Person.Name)
	}
	return out
}

func TestRankPrefersAvailableMatchingPerson(t *testing.T) {
	people := []workload.Person{
		person("B", 0.9, 0.8, 60, "sql"),
		person("A", 0.5, 0.2, 90, "python", "sql"),
	}

	got := Rank([]string{"python", "sql"}, people, 2)

	if !reflect.DeepEqual(names(got), []string{"A", "B"}) {
		t.Fatalf("unexpected order: %v", names(got))
	}
	if !(got[0].Score > got[1].Score) {
		t.Fatalf("expected A to score strictly above B: %v vs %v", got[0].Score, got[1].Score)
	}
	if math.Abs(got[0].Score-0.36) > 1e-9 {
		t.Fatalf("unexpected score for A: %v", got[0].Score)
	}
	if math.Abs(got[1].Similarity-1/math.Sqrt2) > 1e-9 {
		t.Fatalf("unexpected similarity for B: %v", got[1].Similarity)
	}
}

func TestRankIdenticalSkillsHaveFullSimilarity(t *testing.T) {
	tests := [][]string{
		{"go"},
		{"python", "sql"},
		{"go", "k8s", "sql", "terraform"},
	}

	for _, skills := range tests {
		got := Rank(skills, []workload.Person{person("A", 0, 0, 100, skills...)}, 1)
		if len(got) != 1 {
			t.Fatalf("expected one candidate, got %d", len(got))
		}
		if got[0].Similarity != 1.0 {
			t.Fatalf("similarity for %v = %v, want 1.0", skills, got[0].Similarity)
		}
		if got[0].Score != 1.0 {
			t.Fatalf("score for %v = %v, want 1.0", skills, got[0].Score)
		}
	}
}

func TestRankDisjointSkillsKeepInputOrder(t *testing.T) {
	people := []workload.Person{
		person("C", 0.1, 0.1, 90, "java"),
		person("A", 0.2, 0.1, 80, "rust"),
		person("B", 0.3, 0.1, 70),
	}

	got := Rank([]string{"python"}, people, 5)

	if !reflect.DeepEqual(names(got), []string{"C", "A", "B"}) {
		t.Fatalf("unexpected order: %v", names(got))
	}
	for _, c := range got {
		if c.Score != 0 || c.Similarity != 0 {
			t.Fatalf("expected zero score for %s, got %v", c.Person.Name, c.Score)
		}
	}
}

func TestRankBounds(t *testing.T) {
	people := []workload.Person{
		person("A", 0, 0, 100, "go"),
		person("B", 0, 0, 90, "go"),
		person("C", 0, 0, 80, "go"),
		person("D", 0, 0, 70, "go"),
	}

	tests := []struct {
		name   string
		people []workload.Person
		topK   int
		want   int
	}{
		{name: "explicit top", people: people, topK: 2, want: 2},
		{name: "default top", people: people, topK: 0, want: DefaultTopK},
		{name: "negative top", people: people, topK: -1, want: DefaultTopK},
		{name: "fewer people than top", people: people[:1], topK: 3, want: 1},
		{name: "top above input", people: people, topK: 10, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rank([]string{"go"}, tt.people, tt.topK); len(got) != tt.want {
				t.Fatalf("expected %d candidates, got %d", tt.want, len(got))
			}
		})
	}
}

func TestRankEmptyInput(t *testing.T) {
	people := []workload.Person{person("A", 0, 0, 100, "go")}

	if got := Rank(nil, people, 3); got == nil || len(got) != 0 {
		t.Fatalf("expected empty result for no skills, got %v", got)
	}
	if got := Rank([]string{" ", ""}, people, 3); len(got) != 0 {
		t.Fatalf("expected empty result for blank skills, got %v", got)
	}
	if got := Rank([]string{"go"}, nil, 3); got == nil || len(got) != 0 {
		t.Fatalf("expected empty result for no people, got %v", got)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	people := []workload.Person{
		person("A", 0.4, 0.3, 75, "go", "sql"),
		person("B", 0.4, 0.3, 75, "sql", "go"),
		person("C", 0.1, 0.5, 95, "python"),
		person("D", 0.0, 0.0, 50, "go", "python", "sql"),
	}

	first := Rank([]string{"go", "python"}, people, 4)
	for i := 0; i < 20; i++ {
		if got := Rank([]string{"python", "go"}, people, 4); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n got %+v\nwant %+v", i, got, first)
		}
	}

	// A and B tie and must stay in input order.
	order := names(first)
	if indexOf(order, "A") > indexOf(order, "B") {
		t.Fatalf("tie broken against input order: %v", order)
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestRankDoesNotClampInputs(t *testing.T) {
	got := Rank([]string{"go"}, []workload.Person{person("A", 1.5, 0, 100, "go")}, 1)

	if got[0].Availability != -0.5 || got[0].Score != -0.5 {
		t.Fatalf("expected unclamped negative score, got %+v", got[0])
	}
}

func TestRecommendEchoesQuery(t *testing.T) {
	people := []workload.Person{person("A", 0, 0, 100, "go")}

	res := Recommend(Query{Skills: []string{"go", " go", ""}, Hours: 40}, people)

	if !reflect.DeepEqual(res.Query.Skills, []string{"go"}) {
		t.Fatalf("unexpected cleaned skills: %v", res.Query.Skills)
	}
	if res.Query.Hours != 40 || res.Query.TopK != DefaultTopK {
		t.Fatalf("unexpected echoed query: %+v", res.Query)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(res.Candidates))
	}
}

func TestQueryValidate(t *testing.T) {
	if err := (Query{Hours: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative hours")
	}
	if err := (Query{TopK: -2}).Validate(); err == nil {
		t.Fatal("expected error for negative top")
	}
	if err := (Query{Skills: []string{"go"}, Hours: 10, TopK: 2}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
