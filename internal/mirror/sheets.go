package mirror

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink mirrors the snapshot into a Google spreadsheet. Every publish
// clears the target range and rewrites it in full.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
}

func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, writeRange string) (*SheetsSink, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Publish(ctx context.Context, rows [][]string) error {
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.writeRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	update := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: values})
	if _, err := update.ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}
