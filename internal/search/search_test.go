package search

import (
	"testing"

	"tally/api/internal/catalog"
)

const testCatalog = `{
	"app_title": "Tally",
	"active_year": "2024",
	"communities": ["Acme"],
	"years": ["2024"],
	"periods": ["Annual Total"],
	"sections": [
		{
			"id": "population",
			"name": "Population",
			"indicators": [
				{"id": "pop_male", "name": "Population (male)", "unit": "count"},
				{"id": "pop_female", "name": "Population (female)", "unit": "count"},
				{"id": "pop_total", "name": "Population (total)", "unit": "count", "derived": true}
			]
		},
		{
			"id": "employment",
			"name": "Employment",
			"indicators": [
				{"id": "jobs_created", "name": "Jobs created", "unit": "count"}
			]
		}
	]
}`

func testScan(t *testing.T) *CatalogScan {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return NewCatalogScan(cat)
}

func TestCatalogScanMatchesNameAndID(t *testing.T) {
	scan := testScan(t)

	results := scan.Search("population", 20)
	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(results))
	}
	if results[0].ID != "pop_male" {
		t.Errorf("results must follow catalog order, got %s first", results[0].ID)
	}
	if results[0].SectionName != "Population" {
		t.Errorf("result missing section context: %+v", results[0])
	}

	byID := scan.Search("jobs_", 20)
	if len(byID) != 1 || byID[0].ID != "jobs_created" {
		t.Errorf("expected id substring match, got %v", byID)
	}
}

func TestCatalogScanCaseInsensitive(t *testing.T) {
	scan := testScan(t)
	if got := scan.Search("POPULATION (MALE)", 20); len(got) != 1 {
		t.Errorf("expected case-insensitive match, got %v", got)
	}
}

func TestCatalogScanLimit(t *testing.T) {
	scan := testScan(t)
	if got := scan.Search("pop", 2); len(got) != 2 {
		t.Errorf("expected limit to cap results, got %d", len(got))
	}
}

func TestCatalogScanBlankQuery(t *testing.T) {
	scan := testScan(t)
	if got := scan.Search("   ", 20); len(got) != 0 {
		t.Errorf("blank query must match nothing, got %v", got)
	}
}

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	svc := NewService(nil, testScan(t))

	results := svc.Search("employment", 0)
	if len(results) != 1 || results[0].ID != "jobs_created" {
		t.Errorf("expected fallback scan result, got %v", results)
	}

	// No matches must still yield an empty slice, not nil.
	if got := svc.Search("zzz", 5); got == nil {
		t.Errorf("expected non-nil empty result set")
	}
}
