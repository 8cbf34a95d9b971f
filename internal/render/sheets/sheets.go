// Package sheets publishes report documents to a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"sumator/internal/report"
)

// Credentials selects the service account used to reach the Sheets API.
// JSON wins over File; File falls back to GOOGLE_APPLICATION_CREDENTIALS.
type Credentials struct {
	JSON string
	File string
}

// NewService initializes a Sheets service using service account credentials.
func NewService(ctx context.Context, creds Credentials, opts ...goption.ClientOption) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(creds.JSON)
	serviceAccountFile := strings.TrimSpace(creds.File)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetName returns "<year> <base>" unless base already starts with a 4-digit year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// The tab is managed up to column Z.
const (
	lastColumn  = "Z"
	columnCount = 26
)

// Renderer replaces the content of one sheet tab with the report. Pages are a
// print concept, so separators and footers are dropped and page breaks become
// a single blank row.
type Renderer struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	rows          [][]any
}

func New(svc *gsheet.Service, spreadsheetID, sheet string) *Renderer {
	return &Renderer{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (r *Renderer) Name() string { return "sheets" }

func (r *Renderer) StartPage(n int) error {
	if n > 1 {
		r.rows = append(r.rows, []any{})
	}
	return nil
}

func (r *Renderer) WriteLine(line report.Line) error {
	switch line.Kind {
	case report.KindSeparator, report.KindFooter:
		return nil
	case report.KindHeader, report.KindRow:
		row := make([]any, len(line.Cells))
		for i, c := range line.Cells {
			row[i] = c
		}
		r.rows = append(r.rows, row)
	default:
		r.rows = append(r.rows, []any{line.Text})
	}
	return nil
}

// Rows returns the buffered rows.
func (r *Renderer) Rows() [][]any {
	return r.rows
}

// Finish overwrites the tab from A1 and then clears whatever the previous
// report left below it. Rows are padded to the last column so shorter lines
// blank out stale cells. A failed update leaves the old report in place.
func (r *Renderer) Finish(ctx context.Context, _ int) error {
	if r.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(r.rows) > 0 {
		rng := fmt.Sprintf("%s!A1:%s%d", r.sheet, lastColumn, len(r.rows))
		vr := &gsheet.ValueRange{Values: padRows(r.rows, columnCount)}
		if _, err := r.svc.Spreadsheets.Values.Update(r.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
	}

	tail := fmt.Sprintf("%s!A%d:%s", r.sheet, len(r.rows)+1, lastColumn)
	if _, err := r.svc.Spreadsheets.Values.Clear(r.spreadsheetID, tail, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tail, err)
	}
	return nil
}

func padRows(rows [][]any, width int) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		padded := make([]any, width)
		for j := range padded {
			padded[j] = ""
		}
		copy(padded, row)
		out[i] = padded
	}
	return out
}
