package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// GetValue returns the stored value for the fully qualified key, or the
// empty string when no entry exists. Absent and empty are indistinguishable
// to callers.
func (s *PostgresStore) GetValue(ctx context.Context, community, year, period, indicatorID string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM reports
		WHERE community=$1 AND year=$2 AND period=$3 AND indicator_id=$4
	`, community, year, period, indicatorID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get value: %w", err)
	}
	return value, nil
}

// UpsertEntry inserts or overwrites the entry at its key. The upsert is a
// single atomic statement; same key overwrites value, unit and timestamp,
// all other keys are untouched. last_updated is set here, at write time.
func (s *PostgresStore) UpsertEntry(ctx context.Context, community, year, period, indicatorID, value, unit string) error {
	now := time.Now().Format(TimestampLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (community, year, period, indicator_id, value, unit, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (community, year, period, indicator_id)
		DO UPDATE SET value=EXCLUDED.value, unit=EXCLUDED.unit, last_updated=EXCLUDED.last_updated
	`, community, year, period, indicatorID, value, unit, now)
	if err != nil {
		return fmt.Errorf("upsert report entry: %w", err)
	}
	return nil
}

// ListEntries returns every entry under the (community, year, period)
// prefix. Order is unspecified; callers re-impose catalog order.
func (s *PostgresStore) ListEntries(ctx context.Context, community, year, period string) ([]ReportEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT community, year, period, indicator_id, value, unit, last_updated
		FROM reports
		WHERE community=$1 AND year=$2 AND period=$3
	`, community, year, period)
	if err != nil {
		return nil, fmt.Errorf("list report entries: %w", err)
	}
	return collectEntries(rows)
}

// ListAllEntries returns the entire reports table, used by the mirror to
// publish a full snapshot.
func (s *PostgresStore) ListAllEntries(ctx context.Context) ([]ReportEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT community, year, period, indicator_id, value, unit, last_updated
		FROM reports
		ORDER BY community, year, period, indicator_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list all report entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]ReportEntry, error) {
	defer rows.Close()

	items := make([]ReportEntry, 0)
	for rows.Next() {
		var e ReportEntry
		if err := rows.Scan(&e.Community, &e.Year, &e.Period, &e.IndicatorID, &e.Value, &e.Unit, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
