package workload

import (
	"fmt"
	"strings"
)

// Internal field names. They key Dataset.Defaulted.
const (
	FieldAssignees       = "assignees"
	FieldSkills          = "skills"
	FieldFTE             = "fte"
	FieldProject         = "project"
	FieldTitle           = "title"
	FieldActualProgress  = "actual_progress"
	FieldPlannedProgress = "planned_progress"
	FieldStart           = "start"
	FieldEnd             = "end"
	FieldBurnoutRisk     = "burnout_risk"
	FieldProductivity    = "productivity"
	FieldComplexity      = "complexity"
)

// FieldMapping maps internal attributes to property names of the workspace database.
type FieldMapping struct {
	Assignees       string `mapstructure:"assignees" json:"assignees"`
	Skills          string `mapstructure:"skills" json:"skills"`
	FTE             string `mapstructure:"fte" json:"fte"`
	Project         string `mapstructure:"project" json:"project"`
	Title           string `mapstructure:"title" json:"title"`
	ActualProgress  string `mapstructure:"actual-progress" json:"actual_progress"`
	PlannedProgress string `mapstructure:"planned-progress" json:"planned_progress"`
	Schedule        string `mapstructure:"schedule" json:"schedule"`
}

// DefaultFieldMapping returns the property names of the workload database template.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Assignees:       "Responsable",
		Skills:          "Skills",
		FTE:             "FTE Real",
		Project:         "Proyecto",
		Title:           "Actividad",
		ActualProgress:  "Progreso Subitems",
		PlannedProgress: "Progreso Proyecto",
		Schedule:        "Fecha Estimada",
	}
}

// WithDefaults fills every empty property name from DefaultFieldMapping.
func (m FieldMapping) WithDefaults() FieldMapping {
	d := DefaultFieldMapping()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}

	fill(&m.Assignees, d.Assignees)
	fill(&m.Skills, d.Skills)
	fill(&m.FTE, d.FTE)
	fill(&m.Project, d.Project)
	fill(&m.Title, d.Title)
	fill(&m.ActualProgress, d.ActualProgress)
	fill(&m.PlannedProgress, d.PlannedProgress)
	fill(&m.Schedule, d.Schedule)

	return m
}

// String is stable and used as part of cache keys.
func (m FieldMapping) String() string {
	return strings.Join([]string{
		m.Assignees, m.Skills, m.FTE, m.Project,
		m.Title, m.ActualProgress, m.PlannedProgress, m.Schedule,
	}, "|")
}

// ProgressUnit is the convention a progress property is stored in upstream.
type ProgressUnit string

const (
	UnitFraction ProgressUnit = "fraction"
	UnitPercent  ProgressUnit = "percent"
)

// ToFraction converts a raw upstream value to a fraction.
func (u ProgressUnit) ToFraction(v float64) float64 {
	if u == UnitPercent {
		return v / 100
	}
	return v
}

// ProgressUnits selects the unit of each progress property.
type ProgressUnits struct {
	Actual  ProgressUnit `mapstructure:"actual" json:"actual"`
	Planned ProgressUnit `mapstructure:"planned" json:"planned"`
}

// DefaultProgressUnits matches the template: a subitem rollup stored as a
// fraction and a project formula stored as a percentage.
func DefaultProgressUnits() ProgressUnits {
	return ProgressUnits{
		Actual:  UnitFraction,
		Planned: UnitPercent,
	}
}

func (u ProgressUnits) WithDefaults() ProgressUnits {
	d := DefaultProgressUnits()
	if u.Actual == "" {
		u.Actual = d.Actual
	}
	if u.Planned == "" {
		u.Planned = d.Planned
	}
	return u
}

func (u ProgressUnits) Validate() error {
	if err := validateUnit("actual", u.Actual); err != nil {
		return err
	}
	return validateUnit("planned", u.Planned)
}

func validateUnit(name string, unit ProgressUnit) error {
	switch unit {
	case UnitFraction, UnitPercent:
		return nil
	default:
		return fmt.Errorf("invalid %s progress unit %q: must be %q or %q", name, unit, UnitFraction, UnitPercent)
	}
}
