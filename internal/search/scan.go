package search

import (
	"strings"

	"tally/api/internal/catalog"
)

// CatalogScan is the fallback searcher: a case-insensitive substring scan
// over the in-memory catalog, in declaration order. The catalog is static
// and small, so no index is needed.
type CatalogScan struct {
	records []Result
}

func NewCatalogScan(cat *catalog.Catalog) *CatalogScan {
	return &CatalogScan{records: catalogRecords(cat)}
}

func (c *CatalogScan) Search(q string, limit int) []Result {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	var results []Result
	for _, r := range c.records {
		if len(results) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.ID), q) {
			results = append(results, r)
		}
	}
	return results
}

func catalogRecords(cat *catalog.Catalog) []Result {
	var records []Result
	for _, s := range cat.Sections {
		for _, ind := range s.Indicators {
			records = append(records, Result{
				ID:          ind.ID,
				Name:        ind.Name,
				Unit:        ind.Unit,
				SectionID:   s.ID,
				SectionName: s.Name,
			})
		}
	}
	return records
}
