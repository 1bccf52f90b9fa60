// Package web renders the server-side HTML for the reporting UI: the full
// page, the section-body fragment swapped on section switch, the single-row
// fragment returned after a save, and the standalone review page.
package web

import "tally/api/internal/catalog"

// Row is one indicator line of the entry form.
type Row struct {
	Indicator catalog.Indicator
	Value     string
	Community string
	Year      string
	Period    string
	SectionID string
	Editable  bool
	Saved     bool
	// SumPrefix is set on the male/female/non-binary siblings of a derived
	// total so the client recomputes <prefix>_total on input.
	SumPrefix string
}

// InputType picks the HTML input type for the row.
func (r Row) InputType() string {
	if r.Indicator.FreeText() {
		return "text"
	}
	return "number"
}

// Disabled reports whether the input must not accept user entry.
func (r Row) Disabled() bool {
	return !r.Editable || r.Indicator.Derived
}

// SectionView is the section-body fragment: section nav plus the rows of
// the selected section.
type SectionView struct {
	Section   catalog.Section
	Sections  []catalog.Section
	Community string
	Year      string
	Period    string
	Editable  bool
	Rows      []Row
}

// PageView is the full page. Section is nil in the landing state.
type PageView struct {
	Title       string
	Communities []string
	Years       []string
	Periods     []string
	Community   string
	Year        string
	Period      string
	Editable    bool
	Landing     bool
	Section     *SectionView
}

// ReviewRow is one line of the review summary, already filtered and ordered.
type ReviewRow struct {
	Name  string
	Value string
	Unit  string
}

// ReviewView is the standalone review page.
type ReviewView struct {
	Community string
	Year      string
	Period    string
	Generated string
	Rows      []ReviewRow
}
