package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCatalog = `{
	"app_title": "Tally",
	"active_year": "2024",
	"communities": ["Acme", "Borealis"],
	"years": ["2023", "2024"],
	"periods": ["Annual Total", "Q1"],
	"sections": [
		{
			"id": "population",
			"name": "Population",
			"description": "Headline population counts",
			"indicators": [
				{"id": "pop_male", "name": "Population (male)", "unit": "count"},
				{"id": "pop_female", "name": "Population (female)", "unit": "count"},
				{"id": "pop_nb", "name": "Population (non-binary)", "unit": "count"},
				{"id": "pop_total", "name": "Population (total)", "unit": "count", "derived": true}
			]
		},
		{
			"id": "notes",
			"name": "Notes",
			"description": "",
			"indicators": [
				{"id": "narrative", "name": "Narrative", "unit": "Text"}
			]
		}
	]
}`

func TestLoadValidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(validCatalog), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.AppTitle != "Tally" {
		t.Errorf("expected app title Tally, got %q", c.AppTitle)
	}
	if !c.IsActiveYear("2024") {
		t.Errorf("expected 2024 to be active")
	}
	if c.IsActiveYear("2023") {
		t.Errorf("expected 2023 to be inactive")
	}
	if c.FirstSection().ID != "population" {
		t.Errorf("expected first section population, got %q", c.FirstSection().ID)
	}
}

func TestIndicatorLookup(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ind, ok := c.Indicator("pop_total")
	if !ok {
		t.Fatalf("expected pop_total to exist")
	}
	if !ind.Derived {
		t.Errorf("expected pop_total to be derived")
	}

	if _, ok := c.Indicator("missing"); ok {
		t.Errorf("expected missing indicator lookup to fail")
	}

	narrative, _ := c.Indicator("narrative")
	if !narrative.FreeText() {
		t.Errorf("expected narrative to be free text")
	}

	names := c.IndicatorNames()
	if names["pop_male"] != "Population (male)" {
		t.Errorf("unexpected name map entry: %q", names["pop_male"])
	}
}

func TestSectionOrDefault(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s := c.SectionOrDefault("notes"); s.ID != "notes" {
		t.Errorf("expected notes section, got %q", s.ID)
	}
	if s := c.SectionOrDefault("bogus"); s.ID != "population" {
		t.Errorf("expected fallback to first section, got %q", s.ID)
	}
}

func TestMembershipChecks(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !c.HasCommunity("Acme") || c.HasCommunity("Nowhere") {
		t.Errorf("community membership check failed")
	}
	if !c.HasYear("2023") || c.HasYear("1999") {
		t.Errorf("year membership check failed")
	}
	if !c.HasPeriod("Q1") || c.HasPeriod("Q5") {
		t.Errorf("period membership check failed")
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "missing title",
			mutate:  func(s string) string { return strings.Replace(s, `"Tally"`, `""`, 1) },
			wantErr: "app_title",
		},
		{
			name:    "active year not listed",
			mutate:  func(s string) string { return strings.Replace(s, `"active_year": "2024"`, `"active_year": "2030"`, 1) },
			wantErr: "active_year",
		},
		{
			name:    "duplicate indicator id",
			mutate:  func(s string) string { return strings.Replace(s, `"id": "narrative"`, `"id": "pop_male"`, 1) },
			wantErr: "duplicate indicator",
		},
		{
			name:    "not json",
			mutate:  func(string) string { return "{" },
			wantErr: "decode catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(validCatalog)))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
