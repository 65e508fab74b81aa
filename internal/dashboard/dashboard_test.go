package dashboard

import (
	"context"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/workload-radar/internal/workload"
)

func sampleDataset() *workload.Dataset {
	ds := workload.Empty()
	ds.People = []workload.Person{
		{Name: "Ana", Skills: []string{"python", "sql"}, FTE: 0.9, BurnoutRisk: 0.2, CurrentProject: "ERP", Productivity: 90},
		{Name: "Luis", Skills: []string{"go"}, FTE: 0.5, BurnoutRisk: 0.8, CurrentProject: "CRM", Productivity: 70},
		{Name: "Eva", Skills: []string{"sql", "go"}, FTE: 0.4, BurnoutRisk: 0.1, CurrentProject: "ERP", Productivity: 80},
		{Name: "Noa", FTE: 0.2},
	}
	ds.Items = []workload.WorkItem{
		{Title: "Migrate ERP", ActualProgress: 0.25, PlannedProgress: 0.5},
		{Title: "CRM rollout", ActualProgress: 0.75, PlannedProgress: 0.5},
	}
	ds.Defaulted = map[string]int{workload.FieldSkills: 1}
	return ds
}

func names(people []workload.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.Name)
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDataset())

	if s.ActivePeople != 4 || s.Items != 2 || s.BehindItems != 1 || s.DefaultedFields != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if math.Abs(s.MeanFTE-0.5) > 1e-9 {
		t.Fatalf("unexpected mean FTE: %v", s.MeanFTE)
	}
	if s.MeanActualProgress != 0.5 || s.MeanPlannedProgress != 0.5 {
		t.Fatalf("unexpected mean progress: %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(workload.Empty())

	if s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestAlerts(t *testing.T) {
	alerts := Alerts(sampleDataset(), Thresholds{})

	want := []struct {
		kind    AlertKind
		subject string
	}{
		{AlertOverloaded, "Ana"},
		{AlertBurnout, "Luis"},
		{AlertBehind, "Migrate ERP"},
	}

	if len(alerts) != len(want) {
		t.Fatalf("expected %d alerts, got %+v", len(want), alerts)
	}
	for i, w := range want {
		if alerts[i].Kind != w.kind || alerts[i].Subject != w.subject {
			t.Fatalf("alert %d = %+v, want %s/%s", i, alerts[i], w.kind, w.subject)
		}
	}
	if alerts[2].Message != "Migrate ERP is behind schedule (25% of 50% planned)" {
		t.Fatalf("unexpected message: %q", alerts[2].Message)
	}
}

func TestAlertsThresholdsAreExclusive(t *testing.T) {
	ds := workload.Empty()
	ds.People = []workload.Person{{Name: "Edge", FTE: 0.8, BurnoutRisk: 0.7}}

	if alerts := Alerts(ds, DefaultThresholds()); len(alerts) != 0 {
		t.Fatalf("expected no alerts at the threshold, got %+v", alerts)
	}

	if alerts := Alerts(ds, Thresholds{FTE: 0.5, Burnout: 0.5}); len(alerts) != 2 {
		t.Fatalf("expected custom thresholds to fire, got %+v", alerts)
	}
}

func TestRunFilters(t *testing.T) {
	people := sampleDataset().People

	tests := []struct {
		name    string
		project string
		skills  []string
		want    []string
	}{
		{name: "no filters", want: []string{"Ana", "Luis", "Eva", "Noa"}},
		{name: "project", project: "ERP", want: []string{"Ana", "Eva"}},
		{name: "skills any", skills: []string{"go", "python"}, want: []string{"Ana", "Luis", "Eva"}},
		{name: "project and skill", project: "ERP", skills: []string{"go"}, want: []string{"Eva"}},
		{name: "unknown project", project: "HR", want: []string{}},
		{name: "blank values disable", project: " ", skills: []string{""}, want: []string{"Ana", "Luis", "Eva", "Noa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Run(context.Background(), nil, []Filter{NewProject(tt.project), NewSkills(tt.skills)}, people)
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Fatalf("got %v, want %v", names(got), tt.want)
			}
		})
	}

	if !reflect.DeepEqual(names(people), []string{"Ana", "Luis", "Eva", "Noa"}) {
		t.Fatalf("input was modified: %v", names(people))
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	people := sampleDataset().People

	got, step := NewProject("CRM").Apply(context.Background(), people)
	if !reflect.DeepEqual(names(got), []string{"Luis"}) || step.Dropped != 3 {
		t.Fatalf("unexpected result %v, %+v", names(got), step)
	}

	got, _ = NewSkills([]string{"sql"}).Apply(context.Background(), people)
	if !reflect.DeepEqual(names(got), []string{"Ana", "Eva"}) {
		t.Fatalf("unexpected result %v", names(got))
	}

	if !reflect.DeepEqual(names(people), []string{"Ana", "Luis", "Eva", "Noa"}) {
		t.Fatalf("input was modified: %v", names(people))
	}
}

func TestRunLogsSteps(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	Run(context.Background(), zap.New(core), []Filter{NewProject("CRM"), NewSkills(nil)}, sampleDataset().People)

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 1 {
		t.Fatalf("expected one step log, got %d", len(steps))
	}
	fields := steps[0].ContextMap()
	if fields["name"] != "project" || fields["dropped"] != int64(3) || fields["left"] != int64(1) {
		t.Fatalf("unexpected step fields: %v", fields)
	}

	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatal("expected disabled skills filter to be logged")
	}
}

func TestSkillsAndProjects(t *testing.T) {
	people := sampleDataset().People

	if got := Skills(people); !reflect.DeepEqual(got, []string{"go", "python", "sql"}) {
		t.Fatalf("unexpected skills: %v", got)
	}
	if got := Projects(people); !reflect.DeepEqual(got, []string{"CRM", "ERP"}) {
		t.Fatalf("unexpected projects: %v", got)
	}
	if got := Skills(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty, non-nil skills, got %v", got)
	}
}
