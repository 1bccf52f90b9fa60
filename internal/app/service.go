package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"tally/api/internal/catalog"
	"tally/api/internal/export"
	"tally/api/internal/history"
	"tally/api/internal/mirror"
	"tally/api/internal/search"
	"tally/api/internal/store"
	"tally/api/internal/web"
)

// placeholderCommunity is the selector default. While it is selected the
// page stays in the landing state and nothing is read from the store.
const placeholderCommunity = "Select Community"

type dataStore interface {
	GetValue(ctx context.Context, community, year, period, indicatorID string) (string, error)
	UpsertEntry(ctx context.Context, community, year, period, indicatorID, value, unit string) error
	ListEntries(ctx context.Context, community, year, period string) ([]store.ReportEntry, error)
	Ping(ctx context.Context) error
}

type Service struct {
	catalog      *catalog.Catalog
	store        dataStore
	notifier     *mirror.Notifier
	search       *search.Service
	history      *history.Service
	reportPrefix string
}

// New wires the service. notifier, searchSvc and hist are optional.
func New(cat *catalog.Catalog, st dataStore, notifier *mirror.Notifier, searchSvc *search.Service, hist *history.Service, reportPrefix string) *Service {
	return &Service{
		catalog:      cat,
		store:        st,
		notifier:     notifier,
		search:       searchSvc,
		history:      hist,
		reportPrefix: reportPrefix,
	}
}

// SaveInput carries one submitted indicator value.
type SaveInput struct {
	Community   string
	Year        string
	Period      string
	SectionID   string
	IndicatorID string
	Value       string
}

// Page builds the full page view. Missing parameters fall back to the
// placeholder community, the active year, and the first configured period.
func (s *Service) Page(ctx context.Context, community, year, period, sectionID string) (web.PageView, error) {
	if community == "" {
		community = placeholderCommunity
	}
	if year == "" {
		year = s.catalog.ActiveYear
	}
	if period == "" {
		period = s.catalog.Periods[0]
	}

	view := web.PageView{
		Title:       s.catalog.AppTitle,
		Communities: append([]string{placeholderCommunity}, s.catalog.Communities...),
		Years:       s.catalog.Years,
		Periods:     s.catalog.Periods,
		Community:   community,
		Year:        year,
		Period:      period,
		Editable:    s.catalog.IsActiveYear(year),
		Landing:     community == placeholderCommunity,
	}
	if view.Landing {
		return view, nil
	}

	if err := s.validateScope(community, year, period); err != nil {
		return web.PageView{}, err
	}
	section, err := s.sectionView(ctx, community, year, period, sectionID)
	if err != nil {
		return web.PageView{}, err
	}
	view.Section = &section
	return view, nil
}

// SectionFragment builds the section-body fragment swapped in on a section
// switch. The rest of the page is untouched.
func (s *Service) SectionFragment(ctx context.Context, community, year, period, sectionID string) (web.SectionView, error) {
	if err := s.validateScope(community, year, period); err != nil {
		return web.SectionView{}, err
	}
	return s.sectionView(ctx, community, year, period, sectionID)
}

// Save stores one submitted value and returns the row fragment to swap in.
// Writes against any year other than the active one are dropped without
// error; the caller still gets the row back exactly as submitted. The unit
// always comes from the catalog, never from the form.
func (s *Service) Save(ctx context.Context, in SaveInput) (web.Row, error) {
	if err := s.validateScope(in.Community, in.Year, in.Period); err != nil {
		return web.Row{}, err
	}
	indicator, ok := s.catalog.Indicator(in.IndicatorID)
	if !ok {
		return web.Row{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("unknown indicator %q", in.IndicatorID), nil)
	}

	if s.catalog.IsActiveYear(in.Year) {
		if err := s.store.UpsertEntry(ctx, in.Community, in.Year, in.Period, in.IndicatorID, in.Value, indicator.Unit); err != nil {
			return web.Row{}, err
		}
		if s.notifier != nil {
			s.notifier.Trigger()
		}
	}

	section := s.catalog.SectionOrDefault(in.SectionID)
	row := web.Row{
		Indicator: indicator,
		Value:     in.Value,
		Community: in.Community,
		Year:      in.Year,
		Period:    in.Period,
		SectionID: section.ID,
		Editable:  true,
		Saved:     true,
	}
	if !indicator.Derived {
		row.SumPrefix = sumPrefix(section, indicator)
	}
	return row, nil
}

// Review builds the review page: every non-empty value of the period, in
// catalog order.
func (s *Service) Review(ctx context.Context, community, year, period string) (web.ReviewView, error) {
	if err := s.validateScope(community, year, period); err != nil {
		return web.ReviewView{}, err
	}

	entries, err := s.store.ListEntries(ctx, community, year, period)
	if err != nil {
		return web.ReviewView{}, fmt.Errorf("load review entries: %w", err)
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.IndicatorID] = e.Value
	}

	view := web.ReviewView{
		Community: community,
		Year:      year,
		Period:    period,
		Generated: time.Now().Format("2006-01-02"),
	}
	for _, sec := range s.catalog.Sections {
		for _, ind := range sec.Indicators {
			if v := values[ind.ID]; v != "" {
				view.Rows = append(view.Rows, web.ReviewRow{Name: ind.Name, Value: v, Unit: ind.Unit})
			}
		}
	}
	return view, nil
}

// DownloadCSV builds the raw period export. Unlike the review page it keeps
// empty values: the download is a complete dump of what was stored.
func (s *Service) DownloadCSV(ctx context.Context, community, year, period string) (*export.Result, error) {
	if err := s.validateScope(community, year, period); err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntries(ctx, community, year, period)
	if err != nil {
		return nil, fmt.Errorf("load export entries: %w", err)
	}
	s.orderByCatalog(entries)

	result, err := export.BuildCSV(entries, s.catalog.IndicatorNames())
	if err != nil {
		return nil, err
	}
	result.Filename = export.CSVFilename(s.reportPrefix, community, year, period)
	return result, nil
}

// DownloadPDF renders the review page and prints it to PDF.
func (s *Service) DownloadPDF(ctx context.Context, community, year, period string) (*export.Result, error) {
	view, err := s.Review(ctx, community, year, period)
	if err != nil {
		return nil, err
	}
	html, err := web.RenderReview(view)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("%s_%s_%s_%s", s.reportPrefix, community, year, period)
	return export.PDF(html, title)
}

// SearchIndicators finds catalog indicators by name or id.
func (s *Service) SearchIndicators(q string, limit int) []search.Result {
	if s.search == nil {
		return []search.Result{}
	}
	return s.search.Search(q, limit)
}

// CatalogHistory lists the recorded catalog revisions, newest first.
func (s *Service) CatalogHistory(limit int) ([]history.CommitInfo, error) {
	if s.history == nil {
		return []history.CommitInfo{}, nil
	}
	return s.history.History(limit)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) validateScope(community, year, period string) error {
	if !s.catalog.HasCommunity(community) {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("unknown community %q", community), nil)
	}
	if !s.catalog.HasYear(year) {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("unknown year %q", year), nil)
	}
	if !s.catalog.HasPeriod(period) {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("unknown period %q", period), nil)
	}
	return nil
}

func (s *Service) sectionView(ctx context.Context, community, year, period, sectionID string) (web.SectionView, error) {
	section := s.catalog.SectionOrDefault(sectionID)

	entries, err := s.store.ListEntries(ctx, community, year, period)
	if err != nil {
		return web.SectionView{}, fmt.Errorf("load section values: %w", err)
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.IndicatorID] = e.Value
	}

	editable := s.catalog.IsActiveYear(year)
	rows := make([]web.Row, 0, len(section.Indicators))
	for _, ind := range section.Indicators {
		row := web.Row{
			Indicator: ind,
			Value:     values[ind.ID],
			Community: community,
			Year:      year,
			Period:    period,
			SectionID: section.ID,
			Editable:  editable,
		}
		if editable && !ind.Derived {
			row.SumPrefix = sumPrefix(section, ind)
		}
		rows = append(rows, row)
	}

	return web.SectionView{
		Section:   section,
		Sections:  s.catalog.Sections,
		Community: community,
		Year:      year,
		Period:    period,
		Editable:  editable,
		Rows:      rows,
	}, nil
}

// orderByCatalog sorts entries into catalog declaration order; ids no longer
// in the catalog sink to the end in their stored order.
func (s *Service) orderByCatalog(entries []store.ReportEntry) {
	pos := make(map[string]int)
	i := 0
	for _, sec := range s.catalog.Sections {
		for _, ind := range sec.Indicators {
			pos[ind.ID] = i
			i++
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		pa, okA := pos[entries[a].IndicatorID]
		pb, okB := pos[entries[b].IndicatorID]
		if !okA {
			pa = i
		}
		if !okB {
			pb = i
		}
		return pa < pb
	})
}

// sumPrefix returns the id prefix shared with a derived total in the same
// section, or "" when the indicator is not part of such a group. The client
// uses it to recompute <prefix>_total as the sibling fields change.
func sumPrefix(section catalog.Section, ind catalog.Indicator) string {
	var prefix string
	for _, suffix := range []string{"_male", "_female", "_nb"} {
		if strings.HasSuffix(ind.ID, suffix) {
			prefix = strings.TrimSuffix(ind.ID, suffix)
			break
		}
	}
	if prefix == "" {
		return ""
	}
	for _, sibling := range section.Indicators {
		if sibling.ID == prefix+"_total" && sibling.Derived {
			return prefix
		}
	}
	return ""
}
