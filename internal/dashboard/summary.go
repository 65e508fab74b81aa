// Package dashboard derives the headline figures, alerts and filtered views
// shown on top of a workload dataset.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/spigell/workload-radar/internal/workload"
)

const (
	DefaultFTEThreshold     = 0.8
	DefaultBurnoutThreshold = 0.7
)

type Summary struct {
	ActivePeople        int       `json:"active_people"`
	MeanFTE             float64   `json:"mean_fte"`
	MeanActualProgress  float64   `json:"mean_actual_progress"`
	MeanPlannedProgress float64   `json:"mean_planned_progress"`
	Items               int       `json:"items"`
	BehindItems         int       `json:"behind_items"`
	DefaultedFields     int       `json:"defaulted_fields"`
	FetchedAt           time.Time `json:"fetched_at"`
}

// Summarize computes the headline figures. Means of empty tables are 0.
func Summarize(ds *workload.Dataset) Summary {
	fte := make([]float64, 0, len(ds.People))
	for _, p := range ds.People {
		fte = append(fte, p.FTE)
	}

	actual := make([]float64, 0, len(ds.Items))
	planned := make([]float64, 0, len(ds.Items))
	behind := 0
	for _, item := range ds.Items {
		actual = append(actual, item.ActualProgress)
		planned = append(planned, item.PlannedProgress)
		if item.Behind() {
			behind++
		}
	}

	return Summary{
		ActivePeople:        len(ds.People),
		MeanFTE:             mean(fte),
		MeanActualProgress:  mean(actual),
		MeanPlannedProgress: mean(planned),
		Items:               len(ds.Items),
		BehindItems:         behind,
		DefaultedFields:     ds.DefaultedTotal(),
		FetchedAt:           ds.FetchedAt,
	}
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}

type AlertKind string

const (
	AlertOverloaded AlertKind = "overloaded"
	AlertBurnout    AlertKind = "burnout_risk"
	AlertBehind     AlertKind = "behind_schedule"
)

type Alert struct {
	Kind    AlertKind `json:"kind"`
	Subject string    `json:"subject"`
	Value   float64   `json:"value"`
	Message string    `json:"message"`
}

// Thresholds are exclusive lower bounds.
type Thresholds struct {
	FTE     float64 `mapstructure:"fte"`
	Burnout float64 `mapstructure:"burnout"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{FTE: DefaultFTEThreshold, Burnout: DefaultBurnoutThreshold}
}

func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.FTE <= 0 {
		t.FTE = d.FTE
	}
	if t.Burnout <= 0 {
		t.Burnout = d.Burnout
	}
	return t
}

// Alerts lists overloaded people, people at burnout risk and items behind
// plan, in that order and in dataset order within each group.
func Alerts(ds *workload.Dataset, t Thresholds) []Alert {
	t = t.WithDefaults()
	alerts := make([]Alert, 0)

	for _, p := range ds.People {
		if p.FTE > t.FTE {
			alerts = append(alerts, Alert{
				Kind:    AlertOverloaded,
				Subject: p.Name,
				Value:   p.FTE,
				Message: fmt.Sprintf("%s is overloaded (FTE: %.2f)", p.Name, p.FTE),
			})
		}
	}

	for _, p := range ds.People {
		if p.BurnoutRisk > t.Burnout {
			alerts = append(alerts, Alert{
				Kind:    AlertBurnout,
				Subject: p.Name,
				Value:   p.BurnoutRisk,
				Message: fmt.Sprintf("%s has a high burnout risk (%.2f)", p.Name, p.BurnoutRisk),
			})
		}
	}

	for _, item := range ds.Items {
		if item.Behind() {
			alerts = append(alerts, Alert{
				Kind:    AlertBehind,
				Subject: item.Title,
				Value:   item.PlannedProgress - item.ActualProgress,
				Message: fmt.Sprintf("%s is behind schedule (%.0f%% of %.0f%% planned)",
					item.Title, item.ActualProgress*100, item.PlannedProgress*100),
			})
		}
	}

	return alerts
}

// Skills returns every skill tag carried by someone, sorted.
func Skills(people []workload.Person) []string {
	return distinct(people, func(p workload.Person) []string { return p.Skills })
}

// Projects returns every non-empty current project, sorted.
func Projects(people []workload.Person) []string {
	return distinct(people, func(p workload.Person) []string {
		if p.CurrentProject == "" {
			return nil
		}
		return []string{p.CurrentProject}
	})
}

func distinct(people []workload.Person, values func(workload.Person) []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range people {
		for _, v := range values(p) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}
