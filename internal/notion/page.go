package notion

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

type Page struct {
	ID         string
	Properties map[string]*Property
}

// Property is the union of the property shapes the dashboard reads.
// Only the member matching Type is populated by the API.
type Property struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Title    []RichText    `json:"title"`
	RichText []RichText    `json:"rich_text"`
	Number   *float64      `json:"number"`
	Select   *SelectOption `json:"select"`
	People   []User        `json:"people"`
	Date     *DateRange    `json:"date"`
	Formula  *Formula      `json:"formula"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

type Formula struct {
	Type   string   `json:"type"`
	Number *float64 `json:"number"`
	String *string  `json:"string"`
}

// decodePages turns raw query results into pages. A property with an
// unexpected shape is skipped so one odd field never fails the batch.
func decodePages(items []Item, logger *zap.Logger) []*Page {
	pages := make([]*Page, 0, len(items))

	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			logger.Debug("skipping result", zap.String("reason", "result is not an object"))
			continue
		}

		page := &Page{Properties: make(map[string]*Property)}
		if id, ok := raw["id"].(string); ok {
			page.ID = id
		}

		props, _ := raw["properties"].(map[string]any)
		for name, value := range props {
			prop, err := decodeProperty(value)
			if err != nil {
				logger.Debug("skipping property",
					zap.String("page_id", page.ID),
					zap.String("property", name),
					zap.Error(err),
				)
				continue
			}
			page.Properties[name] = prop
		}

		pages = append(pages, page)
	}

	return pages
}

func decodeProperty(value any) (*Property, error) {
	var prop Property

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &prop,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(value); err != nil {
		return nil, err
	}

	return &prop, nil
}

// Title returns the concatenated plain text of a title property.
func (p *Page) Title(name string) (string, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || len(prop.Title) == 0 {
		return "", false
	}
	return joinPlainText(prop.Title), true
}

// Text returns the concatenated plain text of a rich_text property.
func (p *Page) Text(name string) (string, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || len(prop.RichText) == 0 {
		return "", false
	}
	return joinPlainText(prop.RichText), true
}

func (p *Page) Number(name string) (float64, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || prop.Number == nil {
		return 0, false
	}
	return *prop.Number, true
}

// FormulaNumber returns the number result of a formula property.
func (p *Page) FormulaNumber(name string) (float64, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || prop.Formula == nil || prop.Formula.Number == nil {
		return 0, false
	}
	return *prop.Formula.Number, true
}

func (p *Page) SelectName(name string) (string, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || prop.Select == nil {
		return "", false
	}
	return prop.Select.Name, true
}

// People reports whether the property exists at all, separately from
// whether it holds any users.
func (p *Page) People(name string) ([]User, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil {
		return nil, false
	}
	return prop.People, true
}

func (p *Page) Date(name string) (*DateRange, bool) {
	prop, ok := p.Properties[name]
	if !ok || prop == nil || prop.Date == nil {
		return nil, false
	}
	return prop.Date, true
}

func joinPlainText(parts []RichText) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.PlainText)
	}
	return b.String()
}
