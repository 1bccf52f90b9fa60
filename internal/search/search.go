// Package search finds indicators in the catalog by name, so users of
// large catalogs can jump to the right section and field.
package search

import "log"

// Result is one indicator match.
type Result struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	SectionID   string `json:"sectionId"`
	SectionName string `json:"sectionName"`
}

// Service is the facade that tries Meilisearch first and falls back to an
// in-memory scan of the catalog.
type Service struct {
	meili *Meili
	scan  *CatalogScan
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, scan *CatalogScan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search returns up to limit indicators matching q.
func (s *Service) Search(q string, limit int) []Result {
	if limit <= 0 {
		limit = 20
	}

	if s.meili != nil && s.meili.Healthy() {
		results, err := s.meili.Search(q, limit)
		if err == nil {
			return nonNil(results)
		}
		log.Printf("search: meilisearch error, falling back to catalog scan: %v", err)
	}

	return nonNil(s.scan.Search(q, limit))
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
