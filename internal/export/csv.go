package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"tally/api/internal/store"
)

// csvHeader is the fixed column order of the report download.
var csvHeader = []string{"community", "year", "period", "indicator_id", "indicator_name", "value", "unit"}

// BuildCSV renders one row per stored entry, header first. Indicator names
// come from the catalog; ids no longer present in the catalog get an empty
// name. Empty stored values are included — unlike the review page, the
// download is an unfiltered dump of the period.
func BuildCSV(entries []store.ReportEntry, names map[string]string) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{e.Community, e.Year, e.Period, e.IndicatorID, names[e.IndicatorID], e.Value, e.Unit}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		MimeType: "text/csv",
	}, nil
}

// CSVFilename builds the attachment name for a period download.
func CSVFilename(prefix, community, year, period string) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv", prefix, community, year, period)
}
