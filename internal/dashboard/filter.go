package dashboard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/workload"
)

// Filter represents a single filtering step applied to people.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ctx context.Context, people []workload.Person) ([]workload.Person, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the enabled filters in order. The input slice is not modified.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, people []workload.Person) []workload.Person {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := append([]workload.Person{}, people...)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info := step.Apply(ctx, out)
		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		out = next
	}

	return out
}

type projectFilter struct {
	project string
}

// NewProject keeps people whose current project equals project.
// An empty project disables the filter.
func NewProject(project string) Filter {
	return &projectFilter{project: strings.TrimSpace(project)}
}

func (f *projectFilter) Name() string { return "project" }

func (f *projectFilter) IsEnabled() bool { return f.project != "" }

func (f *projectFilter) Apply(_ context.Context, people []workload.Person) ([]workload.Person, Step) {
	return keep(people, func(p workload.Person) bool {
		return p.CurrentProject == f.project
	})
}

type skillsFilter struct {
	skills []string
}

// NewSkills keeps people holding at least one of skills.
// No skills disables the filter.
func NewSkills(skills []string) Filter {
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return &skillsFilter{skills: cleaned}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) IsEnabled() bool { return len(f.skills) > 0 }

func (f *skillsFilter) Apply(_ context.Context, people []workload.Person) ([]workload.Person, Step) {
	return keep(people, func(p workload.Person) bool {
		for _, s := range f.skills {
			if p.HasSkill(s) {
				return true
			}
		}
		return false
	})
}

func keep(people []workload.Person, pred func(workload.Person) bool) ([]workload.Person, Step) {
	initial := len(people)
	out := make([]workload.Person, 0, len(people))
	for _, p := range people {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out, Step{Initial: initial, Dropped: initial - len(out), Left: len(out)}
}
