// Package storetest holds behaviour checks shared by every ports.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/core"
	"tracker/internal/ports"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) ports.Store

// Run exercises the store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("category uniqueness", func(t *testing.T) { testCategoryUniqueness(t, newStore(t)) })
	t.Run("category ordering", func(t *testing.T) { testCategoryOrdering(t, newStore(t)) })
	t.Run("category delete clears references", func(t *testing.T) { testCategoryDelete(t, newStore(t)) })
	t.Run("transaction listing", func(t *testing.T) { testTransactionListing(t, newStore(t)) })
	t.Run("budget uniqueness", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("grouped sums", func(t *testing.T) { testSums(t, newStore(t)) })
	t.Run("missing records", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

func mustUser(t *testing.T, s ports.Store, name string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Username: name, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mustCategory(t *testing.T, s ports.Store, owner int64, name string, kind core.Kind) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{OwnerID: owner, Name: name, Kind: kind})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func mustTxn(t *testing.T, s ports.Store, owner int64, kind core.Kind, cat *core.Category, cents int64, date string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	tx := core.Transaction{OwnerID: owner, Kind: kind, Amount: core.MoneyFromCents(cents), Date: d}
	if cat != nil {
		id := cat.ID
		tx.CategoryID = &id
	}
	out, err := s.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return out
}

func testUsers(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	if u.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if _, err := s.CreateUser(ctx, core.User{Username: "alice", PasswordHash: "y"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup by username: %+v %v", got, err)
	}
	mustUser(t, s, "bob")
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("list users: %d %v", len(users), err)
	}
}

func testCategoryUniqueness(t *testing.T, s ports.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	mustCategory(t, s, alice.ID, "Rent", core.KindExpense)

	if _, err := s.CreateCategory(ctx, core.Category{OwnerID: alice.ID, Name: "rent", Kind: core.KindExpense}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("case-insensitive duplicate accepted: %v", err)
	}
	// Same name with another kind or another owner is fine.
	mustCategory(t, s, alice.ID, "Rent", core.KindIncome)
	mustCategory(t, s, bob.ID, "Rent", core.KindExpense)

	found, err := s.FindCategory(ctx, alice.ID, "RENT", core.KindExpense)
	if err != nil || found.Name != "Rent" {
		t.Fatalf("find category: %+v %v", found, err)
	}
}

func testCategoryOrdering(t *testing.T, s ports.Store) {
	u := mustUser(t, s, "alice")
	mustCategory(t, s, u.ID, "Salary", core.KindIncome)
	mustCategory(t, s, u.ID, "Rent", core.KindExpense)
	mustCategory(t, s, u.ID, "Bonus", core.KindIncome)
	mustCategory(t, s, u.ID, "Debt", core.KindExpense)

	cats, err := s.ListCategories(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Debt", "Rent", "Bonus", "Salary"}
	if len(cats) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(cats))
	}
	for i, name := range want {
		if cats[i].Name != name {
			t.Fatalf("position %d: got %s want %s", i, cats[i].Name, name)
		}
	}
}

func testCategoryDelete(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	rent := mustCategory(t, s, u.ID, "Rent", core.KindExpense)
	tx := mustTxn(t, s, u.ID, core.KindExpense, &rent, 1000, "2024-01-05")
	if _, err := s.CreateBudget(ctx, core.Budget{OwnerID: u.ID, CategoryID: rent.ID, Amount: core.MoneyFromCents(5000), Month: core.NewDate(2024, time.January, 1)}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if err := s.DeleteCategory(ctx, rent.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("transaction must survive category deletion: %v", err)
	}
	if got.CategoryID != nil || got.CategoryName != "" {
		t.Fatalf("category reference not cleared: %+v", got)
	}
	budgets, err := s.ListBudgets(ctx, u.ID, nil)
	if err != nil || len(budgets) != 0 {
		t.Fatalf("budgets of deleted category remain: %d %v", len(budgets), err)
	}
}

func testTransactionListing(t *testing.T, s ports.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	rent := mustCategory(t, s, alice.ID, "Rent", core.KindExpense)
	salary := mustCategory(t, s, alice.ID, "Salary", core.KindIncome)

	first := mustTxn(t, s, alice.ID, core.KindExpense, &rent, 1000, "2024-01-05")
	second := mustTxn(t, s, alice.ID, core.KindExpense, &rent, 200, "2024-02-10")
	third := mustTxn(t, s, alice.ID, core.KindIncome, &salary, 3000, "2024-01-05")
	mustTxn(t, s, bob.ID, core.KindExpense, nil, 999, "2024-01-05")

	all, err := s.ListTransactions(ctx, alice.ID, core.TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{second.ID, third.ID, first.ID}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d transactions, got %d", len(wantOrder), len(all))
	}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("position %d: got id %d want %d", i, all[i].ID, id)
		}
	}
	if all[0].CategoryName != "Rent" || all[0].CategoryKind != core.KindExpense {
		t.Fatalf("category fields not populated: %+v", all[0])
	}

	from := core.NewDate(2024, time.January, 1)
	to := core.NewDate(2024, time.January, 31)
	filtered, err := s.ListTransactions(ctx, alice.ID, core.TransactionQuery{
		Kind:         core.KindExpense,
		From:         &from,
		To:           &to,
		CategoryName: "rent",
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != first.ID {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}

	updated := first
	updated.Amount = core.MoneyFromCents(1500)
	updated.Note = "adjusted"
	got, err := s.UpdateTransaction(ctx, updated)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount.Cents != 1500 || got.Note != "adjusted" || !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("update not applied correctly: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, second.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func testBudgets(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	rent := mustCategory(t, s, u.ID, "Rent", core.KindExpense)

	b, err := s.CreateBudget(ctx, core.Budget{OwnerID: u.ID, CategoryID: rent.ID, Amount: core.MoneyFromCents(50000), Month: core.NewDate(2024, time.March, 17)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Month.String() != "2024-03-01" {
		t.Fatalf("month not normalised: %s", b.Month)
	}
	if b.CategoryName != "Rent" {
		t.Fatalf("category name not populated: %+v", b)
	}
	_, err = s.CreateBudget(ctx, core.Budget{OwnerID: u.ID, CategoryID: rent.ID, Amount: core.MoneyFromCents(100), Month: core.NewDate(2024, time.March, 1)})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{OwnerID: u.ID, CategoryID: rent.ID, Amount: core.MoneyFromCents(100), Month: core.NewDate(2024, time.April, 1)}); err != nil {
		t.Fatalf("other month rejected: %v", err)
	}

	march := core.NewDate(2024, time.March, 1)
	only, err := s.ListBudgets(ctx, u.ID, &march)
	if err != nil || len(only) != 1 || only[0].ID != b.ID {
		t.Fatalf("month filter: %+v %v", only, err)
	}

	b.Amount = core.MoneyFromCents(60000)
	updated, err := s.UpdateBudget(ctx, b)
	if err != nil || updated.Amount.Cents != 60000 {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if err := s.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func testSums(t *testing.T, s ports.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	rent := mustCategory(t, s, alice.ID, "Rent", core.KindExpense)
	salary := mustCategory(t, s, alice.ID, "Salary", core.KindIncome)

	mustTxn(t, s, alice.ID, core.KindExpense, &rent, 100000, "2024-01-05")
	mustTxn(t, s, alice.ID, core.KindExpense, &rent, 20000, "2024-02-10")
	mustTxn(t, s, alice.ID, core.KindIncome, &salary, 300000, "2024-01-01")
	mustTxn(t, s, alice.ID, core.KindExpense, nil, 5, "2024-02-11")
	mustTxn(t, s, bob.ID, core.KindExpense, nil, 777, "2024-01-05")

	total, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{})
	if err != nil {
		t.Fatalf("ungrouped: %v", err)
	}
	if len(total) != 1 || total[0].Total.Cents != 420005 || total[0].Count != 4 {
		t.Fatalf("ungrouped sum: %+v", total)
	}

	empty, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{Kind: core.KindIncome, CategoryID: &rent.ID})
	if err != nil || len(empty) != 1 || !empty[0].Total.IsZero() || empty[0].Count != 0 {
		t.Fatalf("empty ungrouped sum must be one zero row: %+v %v", empty, err)
	}

	byKind, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{}, core.GroupKind)
	if err != nil {
		t.Fatalf("by kind: %v", err)
	}
	if len(byKind) != 2 || byKind[0].Kind != core.KindExpense || byKind[0].Total.Cents != 120005 ||
		byKind[1].Kind != core.KindIncome || byKind[1].Total.Cents != 300000 {
		t.Fatalf("by kind: %+v", byKind)
	}

	byCat, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{Kind: core.KindExpense}, core.GroupCategory)
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(byCat) != 2 {
		t.Fatalf("by category: %+v", byCat)
	}
	if byCat[0].CategoryID != nil || byCat[0].Label() != core.UncategorizedLabel || byCat[0].Total.Cents != 5 {
		t.Fatalf("uncategorized bucket first: %+v", byCat[0])
	}
	if byCat[1].CategoryID == nil || *byCat[1].CategoryID != rent.ID || byCat[1].CategoryName != "Rent" || byCat[1].Total.Cents != 120000 {
		t.Fatalf("rent bucket: %+v", byCat[1])
	}

	byMonthKind, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{}, core.GroupMonth, core.GroupKind)
	if err != nil {
		t.Fatalf("by month and kind: %v", err)
	}
	want := []struct {
		month string
		kind  core.Kind
		cents int64
	}{
		{"2024-01", core.KindExpense, 100000},
		{"2024-01", core.KindIncome, 300000},
		{"2024-02", core.KindExpense, 20005},
	}
	if len(byMonthKind) != len(want) {
		t.Fatalf("by month and kind: %+v", byMonthKind)
	}
	for i, w := range want {
		g := byMonthKind[i]
		if g.Month != w.month || g.Kind != w.kind || g.Total.Cents != w.cents {
			t.Fatalf("row %d: got %+v want %+v", i, g, w)
		}
	}

	if _, err := s.SumTransactions(ctx, alice.ID, core.TransactionQuery{}, core.GroupKind, core.GroupKind); err == nil {
		t.Fatal("duplicate group key accepted")
	}
}

func testNotFound(t *testing.T, s ports.Store) {
	ctx := context.Background()
	if _, err := s.GetUser(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("user: %v", err)
	}
	if _, err := s.GetCategory(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("category: %v", err)
	}
	if _, err := s.GetTransaction(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("transaction: %v", err)
	}
	if _, err := s.GetBudget(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("budget: %v", err)
	}
	if err := s.DeleteCategory(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete category: %v", err)
	}
	if err := s.DeleteTransaction(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete transaction: %v", err)
	}
}
