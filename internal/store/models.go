package store

// ReportEntry is one persisted indicator value, keyed by
// (community, year, period, indicator_id). Value and unit are stored as
// text regardless of the indicator's declared unit; the stored unit is a
// snapshot taken at write time, not a live view of the catalog.
type ReportEntry struct {
	Community   string
	Year        string
	Period      string
	IndicatorID string
	Value       string
	Unit        string
	LastUpdated string
}

// TimestampLayout is the wall-clock format written to last_updated.
const TimestampLayout = "2006-01-02 15:04:05"
