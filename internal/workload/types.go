// Package workload turns workspace database pages into the people and work
// item tables the dashboard is built from.
package workload

import "time"

// Person is one assignee of one source page. A page with several assignees
// yields several people sharing the page's skills, allocation and project.
type Person struct {
	Name           string   `json:"name"`
	Skills         []string `json:"skills"`
	FTE            float64  `json:"fte"`
	BurnoutRisk    float64  `json:"burnout_risk"`
	CurrentProject string   `json:"current_project,omitempty"`
	Productivity   int      `json:"productivity"`
}

// HasSkill reports whether the person carries the exact skill tag.
func (p Person) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// WorkItem is a trackable unit of project work. Progress values are fractions.
type WorkItem struct {
	Title           string  `json:"title"`
	ActualProgress  float64 `json:"actual_progress"`
	PlannedProgress float64 `json:"planned_progress"`
	Start           *string `json:"start"`
	End             *string `json:"end"`
	Complexity      float64 `json:"complexity"`
}

// Behind reports whether actual progress lags the plan.
func (w WorkItem) Behind() bool {
	return w.ActualProgress < w.PlannedProgress
}

// Dataset is the result of one full fetch. It is rebuilt on every fetch.
type Dataset struct {
	People []Person   `json:"people"`
	Items  []WorkItem `json:"items"`

	// Defaulted counts substituted values per internal field name.
	Defaulted map[string]int `json:"defaulted"`
	// Unassigned counts pages without the assignee property.
	Unassigned int `json:"unassigned"`
	// DroppedItems counts pages without a usable title.
	DroppedItems int `json:"dropped_items"`

	Pages     int       `json:"pages"`
	Requests  int       `json:"requests"`
	Truncated bool      `json:"truncated,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Empty returns a dataset with no rows. It is what callers render after a failed fetch.
func Empty() *Dataset {
	return &Dataset{
		People:    []Person{},
		Items:     []WorkItem{},
		Defaulted: map[string]int{},
	}
}

// DefaultedTotal sums Defaulted across fields.
func (d *Dataset) DefaultedTotal() int {
	total := 0
	for _, n := range d.Defaulted {
		total += n
	}
	return total
}

func (d *Dataset) markDefault(field string) {
	if d.Defaulted == nil {
		d.Defaulted = make(map[string]int)
	}
	d.Defaulted[field]++
}
