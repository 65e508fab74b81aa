package workload

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/notion"
)

const skillSeparator = ","

type Normalizer struct {
	mapping  FieldMapping
	units    ProgressUnits
	provider MetricProvider
	logger   *zap.Logger
}

func NewNormalizer(mapping FieldMapping, units ProgressUnits, provider MetricProvider, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Normalizer{
		mapping:  mapping.WithDefaults(),
		units:    units.WithDefaults(),
		provider: provider,
		logger:   logger,
	}
}

func (n *Normalizer) Mapping() FieldMapping {
	return n.mapping
}

// Normalize flattens pages into people and work items. Missing properties
// are replaced with zero values and counted, never failing the batch.
func (n *Normalizer) Normalize(ctx context.Context, pages []*notion.Page) *Dataset {
	ds := Empty()
	ds.Pages = len(pages)

	for _, page := range pages {
		ds.People = append(ds.People, n.people(ctx, ds, page)...)

		if item, ok := n.item(ctx, ds, page); ok {
			ds.Items = append(ds.Items, item)
		}
	}

	if total := ds.DefaultedTotal(); total > 0 {
		n.logger.Info("substituted defaults for missing fields",
			zap.Int("total", total),
			zap.Any("by_field", ds.Defaulted),
		)
	}

	return ds
}

func (n *Normalizer) people(ctx context.Context, ds *Dataset, page *notion.Page) []Person {
	users, ok := page.People(n.mapping.Assignees)
	if !ok {
		ds.Unassigned++
		n.logger.Debug("page has no assignees property", zap.String("page_id", page.ID))
		return nil
	}

	if len(users) == 0 {
		return nil
	}

	people := make([]Person, 0, len(users))
	for _, user := range users {
		person := Person{Name: user.Name}

		if text, ok := page.Text(n.mapping.Skills); ok {
			person.Skills = SplitSkills(text)
		} else {
			person.Skills = []string{}
			n.defaulted(ds, page, FieldSkills)
		}

		if fte, ok := numeric(page, n.mapping.FTE); ok {
			person.FTE = fte
		} else {
			n.defaulted(ds, page, FieldFTE)
		}

		if project, ok := page.SelectName(n.mapping.Project); ok {
			person.CurrentProject = project
		} else {
			n.defaulted(ds, page, FieldProject)
		}

		n.fillPersonMetrics(ctx, ds, page, &person)

		people = append(people, person)
	}

	return people
}

func (n *Normalizer) item(ctx context.Context, ds *Dataset, page *notion.Page) (WorkItem, bool) {
	title, ok := page.Title(n.mapping.Title)
	if !ok || strings.TrimSpace(title) == "" {
		ds.DroppedItems++
		n.logger.Debug("page has no title", zap.String("page_id", page.ID))
		return WorkItem{}, false
	}

	item := WorkItem{Title: title}

	if actual, ok := numeric(page, n.mapping.ActualProgress); ok {
		item.ActualProgress = n.units.Actual.ToFraction(actual)
	} else {
		n.defaulted(ds, page, FieldActualProgress)
	}

	if planned, ok := numeric(page, n.mapping.PlannedProgress); ok {
		item.PlannedProgress = n.units.Planned.ToFraction(planned)
	} else {
		n.defaulted(ds, page, FieldPlannedProgress)
	}

	date, ok := page.Date(n.mapping.Schedule)
	switch {
	case !ok:
		n.defaulted(ds, page, FieldStart)
		n.defaulted(ds, page, FieldEnd)
	default:
		item.Start = date.Start
		item.End = date.End
		if date.Start == nil {
			n.defaulted(ds, page, FieldStart)
		}
		if date.End == nil {
			n.defaulted(ds, page, FieldEnd)
		}
	}

	if n.provider != nil {
		complexity, err := n.provider.ItemComplexity(ctx, item)
		if err != nil {
			n.logger.Warn("metric provider failed",
				zap.String("item", item.Title),
				zap.String("field", FieldComplexity),
				zap.Error(err),
			)
			n.defaulted(ds, page, FieldComplexity)
		} else {
			item.Complexity = complexity
		}
	}

	return item, true
}

func (n *Normalizer) fillPersonMetrics(ctx context.Context, ds *Dataset, page *notion.Page, person *Person) {
	if n.provider == nil {
		return
	}

	metrics, err := n.provider.PersonMetrics(ctx, *person)
	if err != nil {
		n.logger.Warn("metric provider failed",
			zap.String("person", person.Name),
			zap.Error(err),
		)
		n.defaulted(ds, page, FieldBurnoutRisk)
		n.defaulted(ds, page, FieldProductivity)
		return
	}

	person.BurnoutRisk = metrics.BurnoutRisk
	person.Productivity = metrics.Productivity
}

func (n *Normalizer) defaulted(ds *Dataset, page *notion.Page, field string) {
	ds.markDefault(field)
	n.logger.Debug("field defaulted", zap.String("page_id", page.ID), zap.String("field", field))
}

// numeric reads a plain number property or the number result of a formula.
func numeric(page *notion.Page, name string) (float64, bool) {
	if v, ok := page.Number(name); ok {
		return v, true
	}
	return page.FormulaNumber(name)
}

// SplitSkills splits a comma-delimited skills text into trimmed, unique tags.
func SplitSkills(text string) []string {
	parts := strings.Split(text, skillSeparator)
	skills := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if skill == "" || seen[skill] {
			continue
		}
		seen[skill] = true
		skills = append(skills, skill)
	}

	return skills
}
