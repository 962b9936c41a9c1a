// Package google mirrors transactions into a Google Sheet, one row per
// transaction keyed by the id in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/cache"
	"tracker/internal/log"
	"tracker/internal/sheets"
)

var _ sheets.Mirror = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Service account key, inline or as a file path. Inline wins.
	CredentialsJSON string
	CredentialsFile string
}

// valuesAPI is the slice of the Sheets values API the mirror needs.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, values [][]any) error
	Append(ctx context.Context, rng string, values [][]any) error
	Clear(ctx context.Context, rng string) error
}

type Client struct {
	values valuesAPI
	sheet  string
	// Column A snapshot keyed by sheet name.
	rows *cache.LRU[[]string]
}

const rowCacheTTL = 5 * time.Minute

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetName), nil
}

func newClient(values valuesAPI, sheet string) *Client {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Transactions"
	}
	return &Client{
		values: values,
		sheet:  sheet,
		rows:   cache.NewLRU[[]string](1, rowCacheTTL),
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		log.FieldComponent, log.ComponentSheets,
		"credentials_size", len(credentialsJSON))
	return service, nil
}

// Upsert overwrites the row holding the transaction id, or appends one.
// The header is written first when the sheet is empty.
func (c *Client) Upsert(ctx context.Context, row sheets.Row) error {
	ids, err := c.ids(ctx)
	if err != nil {
		return err
	}

	if n := findRow(ids, row.Key()); n > 0 {
		if err := c.values.Update(ctx, c.rowRange(n), [][]any{row.Values()}); err != nil {
			c.InvalidateRowCache()
			return fmt.Errorf("update row %d in sheet %s: %w", n, c.sheet, err)
		}
		return nil
	}

	values := [][]any{row.Values()}
	if len(ids) == 0 {
		values = append([][]any{headerValues()}, values...)
	}
	err = c.values.Append(ctx, fmt.Sprintf("%s!A:%s", c.sheet, lastColumn()), values)
	c.InvalidateRowCache()
	if err != nil {
		return fmt.Errorf("append row to sheet %s: %w", c.sheet, err)
	}
	return nil
}

// Remove clears the row holding the transaction id. Rows are cleared, not
// deleted, so the numbering of the other rows stays stable.
func (c *Client) Remove(ctx context.Context, transactionID int64) error {
	ids, err := c.ids(ctx)
	if err != nil {
		return err
	}
	n := findRow(ids, sheets.Row{TransactionID: transactionID}.Key())
	if n == 0 {
		return nil
	}
	err = c.values.Clear(ctx, c.rowRange(n))
	c.InvalidateRowCache()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", n, c.sheet, err)
	}
	return nil
}

// InvalidateRowCache forces the next call to re-read column A.
func (c *Client) InvalidateRowCache() {
	c.rows.Delete(c.sheet)
}

func (c *Client) ids(ctx context.Context) ([]string, error) {
	if ids, ok := c.rows.Get(c.sheet); ok {
		return ids, nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheet)
	rows, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}

	c.rows.Set(c.sheet, ids)
	return ids, nil
}

func (c *Client) rowRange(n int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, n, lastColumn(), n)
}

// findRow returns the 1-based row number whose id cell equals key, or 0.
// The header row never matches because ids are numeric.
func findRow(ids []string, key string) int {
	for i, id := range ids {
		if id == key {
			return i + 1
		}
	}
	return 0
}

func headerValues() []any {
	out := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

func lastColumn() string {
	return string(rune('A' + len(sheets.Header) - 1))
}

// serviceValues adapts the generated Sheets service to valuesAPI.
type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) Append(ctx context.Context, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
