package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/sheets"
	sheetsmem "tracker/internal/sheets/memory"
	"tracker/internal/storage/memory"
)

type failingMirror struct{ err error }

func (f failingMirror) Upsert(context.Context, sheets.Row) error { return f.err }
func (f failingMirror) Remove(context.Context, int64) error       { return f.err }

func seed(t *testing.T) (*memory.Store, core.User, core.Transaction) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	u, err := store.CreateUser(ctx, core.User{Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := store.CreateCategory(ctx, core.Category{OwnerID: u.ID, Name: "Food", Kind: core.KindExpense})
	if err != nil {
		t.Fatal(err)
	}
	tx, err := store.CreateTransaction(ctx, core.Transaction{
		OwnerID:    u.ID,
		Kind:       core.KindExpense,
		CategoryID: &c.ID,
		Amount:     core.MoneyFromCents(1250),
		Date:       core.NewDate(2024, time.March, 5),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, u, tx
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	store, u, tx := seed(t)
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror)

	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx.ID, u.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	row, ok := mirror.Row(tx.ID)
	if !ok {
		t.Fatal("row not written")
	}
	if row.Category != "Food" || row.Owner != "alice" || row.Amount.Cents != 1250 {
		t.Errorf("row = %+v", row)
	}

	tx.Note = "groceries"
	if _, err := store.UpdateTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, tx.ID, u.ID)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if row, _ := mirror.Row(tx.ID); row.Note != "groceries" {
		t.Errorf("Note = %q", row.Note)
	}

	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, tx.ID, u.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if _, ok := mirror.Row(tx.ID); ok {
		t.Error("row still present after delete")
	}
}

func TestHandleEventForVanishedTransaction(t *testing.T) {
	ctx := context.Background()
	store, u, tx := seed(t)
	mirror := sheetsmem.New()
	_ = mirror.Upsert(ctx, sheets.Row{TransactionID: tx.ID})
	if err := store.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}

	w := NewSyncWorker(store, mirror)
	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, tx.ID, u.ID)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if _, ok := mirror.Row(tx.ID); ok {
		t.Error("stale row kept")
	}
}

func TestHandleEventMirrorFailureIsReturned(t *testing.T) {
	store, u, tx := seed(t)
	boom := errors.New("sheets unavailable")
	w := NewSyncWorker(store, failingMirror{err: boom})

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx.ID, u.ID))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestHandleEventUnknownType(t *testing.T) {
	store, _, _ := seed(t)
	w := NewSyncWorker(store, sheetsmem.New())
	if err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{Type: "transaction.archived", TransactionID: 1}); err == nil {
		t.Error("expected error")
	}
}

func TestStartupSync(t *testing.T) {
	ctx := context.Background()
	store, u, tx := seed(t)
	second, err := store.CreateTransaction(ctx, core.Transaction{
		OwnerID: u.ID,
		Kind:    core.KindIncome,
		Amount:  core.MoneyFromCents(500),
		Date:    core.NewDate(2024, time.March, 6),
	})
	if err != nil {
		t.Fatal(err)
	}

	mirror := sheetsmem.New()
	if err := NewSyncWorker(store, mirror).StartupSync(ctx); err != nil {
		t.Fatal(err)
	}
	rows := mirror.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].TransactionID != tx.ID || rows[1].TransactionID != second.ID {
		t.Errorf("rows = %+v", rows)
	}
	if rows[1].Category != core.UncategorizedLabel {
		t.Errorf("Category = %q", rows[1].Category)
	}
}
