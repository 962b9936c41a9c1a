package google

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/sheets"
)

// fakeGrid emulates the values API over a single sheet.
type fakeGrid struct {
	rows  [][]any
	gets  int
	fail  error
	calls []string
}

func (g *fakeGrid) Get(_ context.Context, rng string) ([][]any, error) {
	g.gets++
	g.calls = append(g.calls, "get "+rng)
	if g.fail != nil {
		return nil, g.fail
	}
	out := make([][]any, len(g.rows))
	for i, row := range g.rows {
		if len(row) > 0 {
			out[i] = []any{row[0]}
		}
	}
	return out, nil
}

func (g *fakeGrid) Update(_ context.Context, rng string, values [][]any) error {
	g.calls = append(g.calls, "update "+rng)
	n, err := rowNumber(rng)
	if err != nil {
		return err
	}
	g.rows[n-1] = values[0]
	return nil
}

func (g *fakeGrid) Append(_ context.Context, rng string, values [][]any) error {
	g.calls = append(g.calls, "append "+rng)
	last := len(g.rows)
	for last > 0 && len(g.rows[last-1]) == 0 {
		last--
	}
	g.rows = append(g.rows[:last], values...)
	return nil
}

func (g *fakeGrid) Clear(_ context.Context, rng string) error {
	g.calls = append(g.calls, "clear "+rng)
	n, err := rowNumber(rng)
	if err != nil {
		return err
	}
	g.rows[n-1] = nil
	return nil
}

// rowNumber extracts n from "Sheet!An:Gn".
func rowNumber(rng string) (int, error) {
	cells := rng[strings.Index(rng, "!")+2:]
	return strconv.Atoi(cells[:strings.Index(cells, ":")])
}

func row(id int64, note string) sheets.Row {
	return sheets.Row{
		TransactionID: id,
		Date:          core.NewDate(2024, time.March, 5),
		Kind:          core.KindExpense,
		Category:      "Food",
		Amount:        core.MoneyFromCents(1250),
		Note:          note,
		Owner:         "alice",
	}
}

func TestUpsertWritesHeaderOnEmptySheet(t *testing.T) {
	grid := &fakeGrid{}
	c := newClient(grid, "Transactions")

	if err := c.Upsert(context.Background(), row(7, "lunch")); err != nil {
		t.Fatal(err)
	}
	if len(grid.rows) != 2 {
		t.Fatalf("rows = %v", grid.rows)
	}
	if grid.rows[0][0] != "ID" || grid.rows[1][0] != "7" {
		t.Errorf("rows = %v", grid.rows)
	}
	if got := grid.calls[len(grid.calls)-1]; got != "append Transactions!A:G" {
		t.Errorf("last call = %q", got)
	}
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	ctx := context.Background()
	grid := &fakeGrid{}
	c := newClient(grid, "Transactions")

	for _, r := range []sheets.Row{row(1, "a"), row(2, "b"), row(1, "a2")} {
		if err := c.Upsert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if len(grid.rows) != 3 {
		t.Fatalf("rows = %v", grid.rows)
	}
	if grid.rows[1][5] != "a2" {
		t.Errorf("row 2 note = %v, want a2", grid.rows[1][5])
	}
	if got := grid.calls[len(grid.calls)-1]; got != "update Transactions!A2:G2" {
		t.Errorf("last call = %q", got)
	}
}

func TestRemoveClearsRow(t *testing.T) {
	ctx := context.Background()
	grid := &fakeGrid{}
	c := newClient(grid, "")

	_ = c.Upsert(ctx, row(1, "a"))
	_ = c.Upsert(ctx, row(2, "b"))
	if err := c.Remove(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if len(grid.rows[1]) != 0 {
		t.Errorf("row 2 not cleared: %v", grid.rows[1])
	}
	if grid.rows[2][0] != "2" {
		t.Errorf("row 3 moved: %v", grid.rows[2])
	}

	calls := len(grid.calls)
	if err := c.Remove(ctx, 99); err != nil {
		t.Errorf("Remove missing = %v", err)
	}
	for _, call := range grid.calls[calls:] {
		if strings.HasPrefix(call, "clear") {
			t.Errorf("unexpected %s", call)
		}
	}
}

func TestRowCacheAvoidsRereads(t *testing.T) {
	ctx := context.Background()
	grid := &fakeGrid{rows: [][]any{headerValues(), row(1, "a").Values()}}
	c := newClient(grid, "Transactions")

	for i := 0; i < 3; i++ {
		if err := c.Upsert(ctx, row(1, fmt.Sprint(i))); err != nil {
			t.Fatal(err)
		}
	}
	if grid.gets != 1 {
		t.Errorf("gets = %d, want 1", grid.gets)
	}

	c.InvalidateRowCache()
	_ = c.Upsert(ctx, row(1, "x"))
	if grid.gets != 2 {
		t.Errorf("gets after invalidation = %d, want 2", grid.gets)
	}
}

func TestRowCacheExpiration(t *testing.T) {
	ctx := context.Background()
	grid := &fakeGrid{rows: [][]any{headerValues()}}
	c := newClient(grid, "Transactions")
	c.rows = cache.NewLRU[[]string](1, 0)

	_ = c.Remove(ctx, 1)
	_ = c.Remove(ctx, 1)
	if grid.gets != 2 {
		t.Errorf("gets = %d, want 2 with expired cache", grid.gets)
	}
}

func TestReadErrorIsWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := newClient(&fakeGrid{fail: boom}, "Transactions")
	err := c.Upsert(context.Background(), row(1, "a"))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestFindRow(t *testing.T) {
	ids := []string{"ID", "3", "", "12"}
	cases := map[string]int{"3": 2, "12": 4, "1": 0, "ID": 1}
	for key, want := range cases {
		if got := findRow(ids, key); got != want {
			t.Errorf("findRow(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestNewRequiresSettings(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing spreadsheet", Config{CredentialsJSON: "{}"}, "missing spreadsheet id"},
		{"missing credentials", Config{SpreadsheetID: "id"}, "missing service account credentials"},
		{"unreadable file", Config{SpreadsheetID: "id", CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}, "read service account file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, tc.cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestLastColumn(t *testing.T) {
	if got := lastColumn(); got != "G" {
		t.Errorf("lastColumn() = %q, want G", got)
	}
}
