package memory

import (
	"context"
	"testing"

	"tracker/internal/sheets"
)

func TestStoreUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.Upsert(ctx, sheets.Row{TransactionID: 2, Note: "b"})
	_ = s.Upsert(ctx, sheets.Row{TransactionID: 1, Note: "a"})
	_ = s.Upsert(ctx, sheets.Row{TransactionID: 2, Note: "b2"})

	rows := s.Rows()
	if len(rows) != 2 || rows[0].TransactionID != 1 || rows[1].Note != "b2" {
		t.Fatalf("Rows() = %+v", rows)
	}

	if err := s.Remove(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, 99); err != nil {
		t.Errorf("Remove missing row: %v", err)
	}
	if _, ok := s.Row(2); ok {
		t.Error("row 2 still present")
	}
}
