package storage

import (
	"path/filepath"
	"testing"

	"tracker/internal/core"
	"tracker/internal/ports"
	"tracker/internal/storage/storetest"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store { return newTestRepository(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestWhereClauseScopesOwner(t *testing.T) {
	where, args := whereClause(7, core.TransactionQuery{})
	if where != "t.user_id = ?" {
		t.Fatalf("unexpected where clause %q", where)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestWhereClauseAddsPredicates(t *testing.T) {
	from := core.NewDate(2024, 1, 1)
	where, args := whereClause(7, core.TransactionQuery{Kind: core.KindIncome, From: &from, CategoryName: "Rent"})
	want := "t.user_id = ? AND t.kind = ? AND t.date >= ? AND c.name = ? COLLATE NOCASE"
	if where != want {
		t.Fatalf("got %q want %q", where, want)
	}
	if len(args) != 4 || args[2] != "2024-01-01" {
		t.Fatalf("unexpected args %v", args)
	}
}
