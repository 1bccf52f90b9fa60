// Package catalog loads the static indicator catalog that drives the
// reporting form. The document is read once at startup and treated as
// immutable for the process lifetime.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// UnitText marks an indicator as free-text entry rather than numeric.
const UnitText = "Text"

// Indicator is one measurable field of the reporting form.
type Indicator struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Derived bool   `json:"derived"`
}

// FreeText reports whether the indicator takes arbitrary text input.
func (i Indicator) FreeText() bool {
	return i.Unit == UnitText
}

// Section is an ordered group of indicators shown as one page of the form.
// Declaration order is meaningful: it defines rendering and review order.
type Section struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Indicators  []Indicator `json:"indicators"`
}

// Catalog is the full configuration document.
type Catalog struct {
	AppTitle    string    `json:"app_title"`
	ActiveYear  string    `json:"active_year"`
	Communities []string  `json:"communities"`
	Years       []string  `json:"years"`
	Periods     []string  `json:"periods"`
	Sections    []Section `json:"sections"`

	indicators map[string]Indicator
	sections   map[string]int
}

// Load reads and validates the catalog document at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.AppTitle) == "" {
		return fmt.Errorf("catalog: app_title is required")
	}
	if strings.TrimSpace(c.ActiveYear) == "" {
		return fmt.Errorf("catalog: active_year is required")
	}
	if len(c.Communities) == 0 {
		return fmt.Errorf("catalog: at least one community is required")
	}
	if len(c.Periods) == 0 {
		return fmt.Errorf("catalog: at least one period is required")
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("catalog: at least one section is required")
	}
	if !contains(c.Years, c.ActiveYear) {
		return fmt.Errorf("catalog: active_year %q is not listed in years", c.ActiveYear)
	}

	seenSections := make(map[string]struct{}, len(c.Sections))
	seenIndicators := make(map[string]struct{})
	for _, s := range c.Sections {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("catalog: section id and name are required")
		}
		if _, dup := seenSections[s.ID]; dup {
			return fmt.Errorf("catalog: duplicate section id %q", s.ID)
		}
		seenSections[s.ID] = struct{}{}
		for _, ind := range s.Indicators {
			if strings.TrimSpace(ind.ID) == "" || strings.TrimSpace(ind.Name) == "" {
				return fmt.Errorf("catalog: indicator id and name are required in section %q", s.ID)
			}
			if _, dup := seenIndicators[ind.ID]; dup {
				return fmt.Errorf("catalog: duplicate indicator id %q", ind.ID)
			}
			seenIndicators[ind.ID] = struct{}{}
		}
	}
	return nil
}

func (c *Catalog) index() {
	c.indicators = make(map[string]Indicator)
	c.sections = make(map[string]int, len(c.Sections))
	for i, s := range c.Sections {
		c.sections[s.ID] = i
		for _, ind := range s.Indicators {
			c.indicators[ind.ID] = ind
		}
	}
}

// Section returns the section with the given id.
func (c *Catalog) Section(id string) (Section, bool) {
	i, ok := c.sections[id]
	if !ok {
		return Section{}, false
	}
	return c.Sections[i], true
}

// SectionOrDefault returns the named section, falling back to the first
// configured section when the id is unknown.
func (c *Catalog) SectionOrDefault(id string) Section {
	if s, ok := c.Section(id); ok {
		return s
	}
	return c.Sections[0]
}

// FirstSection returns the first configured section.
func (c *Catalog) FirstSection() Section {
	return c.Sections[0]
}

// Indicator returns the indicator definition for the given id.
func (c *Catalog) Indicator(id string) (Indicator, bool) {
	ind, ok := c.indicators[id]
	return ind, ok
}

// IndicatorNames maps indicator id to display name across all sections.
func (c *Catalog) IndicatorNames() map[string]string {
	names := make(map[string]string, len(c.indicators))
	for id, ind := range c.indicators {
		names[id] = ind.Name
	}
	return names
}

// IsActiveYear reports whether year is the single year open for edits.
func (c *Catalog) IsActiveYear(year string) bool {
	return year == c.ActiveYear
}

// HasCommunity reports whether name is a configured community.
func (c *Catalog) HasCommunity(name string) bool { return contains(c.Communities, name) }

// HasYear reports whether year is a configured year.
func (c *Catalog) HasYear(year string) bool { return contains(c.Years, year) }

// HasPeriod reports whether period is a configured period.
func (c *Catalog) HasPeriod(period string) bool { return contains(c.Periods, period) }

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
