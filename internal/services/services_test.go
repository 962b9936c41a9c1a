package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeReceipts struct {
	saved   map[string][]byte
	deleted []string
	next    int
}

func (f *fakeReceipts) Save(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty")
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.next++
	ref := "receipts/" + strings.Repeat("r", f.next) + ".png"
	f.saved[ref] = data
	return ref, nil
}

func (f *fakeReceipts) Delete(_ context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	delete(f.saved, ref)
	return nil
}

func mustCategory(t *testing.T, s *memory.Store, owner int64, name string, kind core.Kind) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{OwnerID: owner, Name: name, Kind: kind})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func mustUser(t *testing.T, s *memory.Store, name string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Username: name})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func ptr(v int64) *int64 { return &v }

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	svc := NewCategoryService(store)

	food, err := svc.Create(ctx, alice.ID, CategoryInput{Name: " Food ", Kind: core.KindExpense})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if food.Name != "Food" || food.OwnerID != alice.ID {
		t.Errorf("Create = %+v", food)
	}

	t.Run("duplicate name is case insensitive", func(t *testing.T) {
		_, err := svc.Create(ctx, alice.ID, CategoryInput{Name: "food", Kind: core.KindExpense})
		if !errors.Is(err, core.ErrValidation) || core.Detail(err) != "Category already exists." {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("same name with other kind is allowed", func(t *testing.T) {
		if _, err := svc.Create(ctx, alice.ID, CategoryInput{Name: "Food", Kind: core.KindIncome}); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("other users may reuse the name", func(t *testing.T) {
		if _, err := svc.Create(ctx, bob.ID, CategoryInput{Name: "Food", Kind: core.KindExpense}); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("foreign read is not found", func(t *testing.T) {
		_, err := svc.Get(ctx, bob.ID, food.ID)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("foreign write is forbidden", func(t *testing.T) {
		_, err := svc.Update(ctx, bob.ID, food.ID, CategoryInput{Name: "Mine", Kind: core.KindExpense})
		if !errors.Is(err, core.ErrForbidden) {
			t.Errorf("Update err = %v", err)
		}
		if err := svc.Delete(ctx, bob.ID, food.ID); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("Delete err = %v", err)
		}
	})

	t.Run("anonymous caller", func(t *testing.T) {
		if _, err := svc.List(ctx, 0); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("rename keeps its own name", func(t *testing.T) {
		got, err := svc.Update(ctx, alice.ID, food.ID, CategoryInput{Name: "FOOD", Kind: core.KindExpense})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Name != "FOOD" {
			t.Errorf("Name = %q", got.Name)
		}
	})

	t.Run("list is scoped to owner", func(t *testing.T) {
		list, err := svc.List(ctx, bob.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 {
			t.Errorf("len = %d, want 1", len(list))
		}
	})
}

func TestCategoryKindChangeWithTransactions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	food := mustCategory(t, store, alice.ID, "Food", core.KindExpense)
	gifts := mustCategory(t, store, alice.ID, "Gifts", core.KindExpense)
	svc := NewCategoryService(store)
	txns := NewTransactionService(store, nil, nil, nil)

	if _, err := txns.Create(ctx, alice.ID, TransactionInput{
		Kind:       core.KindExpense,
		CategoryID: ptr(food.ID),
		Amount:     core.MoneyFromCents(500),
		Date:       core.NewDate(2024, time.March, 5),
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	_, err := svc.Update(ctx, alice.ID, food.ID, CategoryInput{Name: "Food", Kind: core.KindIncome})
	if !errors.Is(err, core.ErrValidation) || core.Detail(err) != "Transaction type must match category type." {
		t.Fatalf("Update err = %v", err)
	}
	got, err := svc.Get(ctx, alice.ID, food.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != core.KindExpense {
		t.Errorf("kind = %s, want expense", got.Kind)
	}

	t.Run("rename with same kind is allowed", func(t *testing.T) {
		if _, err := svc.Update(ctx, alice.ID, food.ID, CategoryInput{Name: "Groceries", Kind: core.KindExpense}); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("unreferenced category may change kind", func(t *testing.T) {
		got, err := svc.Update(ctx, alice.ID, gifts.ID, CategoryInput{Name: "Gifts", Kind: core.KindIncome})
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if got.Kind != core.KindIncome {
			t.Errorf("kind = %s", got.Kind)
		}
	})
}

func TestSeedDefaultCategoriesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := mustUser(t, store, "alice")
	mustCategory(t, store, u.ID, "rent", core.KindExpense)

	n, err := SeedDefaultCategories(ctx, store, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := len(core.DefaultExpenseCategories) + len(core.DefaultIncomeCategories) - 1
	if n != want {
		t.Errorf("first seed created %d, want %d", n, want)
	}
	n, err = SeedDefaultCategories(ctx, store, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second seed created %d, want 0", n)
	}
}

func TestTransactionService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	food := mustCategory(t, store, alice.ID, "Food", core.KindExpense)
	salary := mustCategory(t, store, alice.ID, "Salary", core.KindIncome)
	bobs := mustCategory(t, store, bob.ID, "Food", core.KindExpense)

	events := &recordingPublisher{}
	receipts := &fakeReceipts{}
	svc := NewTransactionService(store, receipts, events, nil)

	day := core.NewDate(2024, time.March, 5)
	input := TransactionInput{Kind: core.KindExpense, CategoryID: ptr(food.ID), Amount: core.MoneyFromCents(1250), Date: day, Note: " lunch "}

	tx, err := svc.Create(ctx, alice.ID, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.Note != "lunch" || tx.OwnerID != alice.ID {
		t.Errorf("Create = %+v", tx)
	}

	cases := []struct {
		name   string
		input  TransactionInput
		detail string
	}{
		{
			name:   "kind mismatch",
			input:  TransactionInput{Kind: core.KindExpense, CategoryID: ptr(salary.ID), Amount: core.MoneyFromCents(100), Date: day},
			detail: "Transaction type must match category type.",
		},
		{
			name:   "non positive amount",
			input:  TransactionInput{Kind: core.KindExpense, Amount: core.MoneyFromCents(0), Date: day},
			detail: "Amount must be positive.",
		},
		{
			name:   "foreign category",
			input:  TransactionInput{Kind: core.KindExpense, CategoryID: ptr(bobs.ID), Amount: core.MoneyFromCents(100), Date: day},
			detail: `Invalid pk "` + itoa(bobs.ID) + `" - object does not exist.`,
		},
		{
			name:   "missing category",
			input:  TransactionInput{Kind: core.KindExpense, CategoryID: ptr(999), Amount: core.MoneyFromCents(100), Date: day},
			detail: `Invalid pk "999" - object does not exist.`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice.ID, tc.input)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if got := core.Detail(err); got != tc.detail {
				t.Errorf("detail = %q, want %q", got, tc.detail)
			}
		})
	}

	t.Run("uncategorized transaction", func(t *testing.T) {
		got, err := svc.Create(ctx, alice.ID, TransactionInput{Kind: core.KindIncome, Amount: core.MoneyFromCents(500), Date: day})
		if err != nil {
			t.Fatal(err)
		}
		if got.CategoryID != nil {
			t.Errorf("CategoryID = %v", *got.CategoryID)
		}
	})

	t.Run("update", func(t *testing.T) {
		in := input
		in.Amount = core.MoneyFromCents(2000)
		got, err := svc.Update(ctx, alice.ID, tx.ID, in)
		if err != nil {
			t.Fatal(err)
		}
		if got.Amount.Cents != 2000 {
			t.Errorf("Amount = %v", got.Amount)
		}
		if _, err := svc.Update(ctx, bob.ID, tx.ID, in); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("foreign update err = %v", err)
		}
	})

	t.Run("foreign read", func(t *testing.T) {
		if _, err := svc.Get(ctx, bob.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("receipt replaces previous file", func(t *testing.T) {
		first, err := svc.AttachReceipt(ctx, alice.ID, tx.ID, bytes.NewReader([]byte("one")))
		if err != nil {
			t.Fatal(err)
		}
		second, err := svc.AttachReceipt(ctx, alice.ID, tx.ID, bytes.NewReader([]byte("two")))
		if err != nil {
			t.Fatal(err)
		}
		if first.Receipt == second.Receipt {
			t.Fatalf("receipt not replaced: %q", second.Receipt)
		}
		if len(receipts.deleted) != 1 || receipts.deleted[0] != first.Receipt {
			t.Errorf("deleted = %v, want [%s]", receipts.deleted, first.Receipt)
		}
	})

	t.Run("delete removes receipt", func(t *testing.T) {
		if err := svc.Delete(ctx, bob.ID, tx.ID); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("foreign delete err = %v", err)
		}
		if err := svc.Delete(ctx, alice.ID, tx.ID); err != nil {
			t.Fatal(err)
		}
		if len(receipts.saved) != 0 {
			t.Errorf("receipts left: %v", receipts.saved)
		}
		if _, err := svc.Get(ctx, alice.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})

	want := []amqp.EventType{
		amqp.EventTransactionCreated,
		amqp.EventTransactionCreated,
		amqp.EventTransactionUpdated,
		amqp.EventTransactionUpdated,
		amqp.EventTransactionUpdated,
		amqp.EventTransactionDeleted,
	}
	got := events.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTransactionServicePublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	svc := NewTransactionService(store, nil, &recordingPublisher{err: errors.New("broker down")}, nil)

	_, err := svc.Create(ctx, alice.ID, TransactionInput{Kind: core.KindIncome, Amount: core.MoneyFromCents(100), Date: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestTransactionServiceWithoutReceiptStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	svc := NewTransactionService(store, nil, nil, nil)
	tx, err := svc.Create(ctx, alice.ID, TransactionInput{Kind: core.KindIncome, Amount: core.MoneyFromCents(100), Date: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AttachReceipt(ctx, alice.ID, tx.ID, strings.NewReader("x")); err == nil {
		t.Error("expected error without receipt storage")
	}
}

func TestBudgetService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	food := mustCategory(t, store, alice.ID, "Food", core.KindExpense)
	bobs := mustCategory(t, store, bob.ID, "Food", core.KindExpense)
	svc := NewBudgetService(store, nil)

	b, err := svc.Create(ctx, alice.ID, BudgetInput{CategoryID: food.ID, Amount: core.MoneyFromCents(30000), Month: core.NewDate(2024, time.March, 17)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Month.String() != "2024-03-01" {
		t.Errorf("Month = %s, want 2024-03-01", b.Month)
	}

	t.Run("duplicate month", func(t *testing.T) {
		_, err := svc.Create(ctx, alice.ID, BudgetInput{CategoryID: food.ID, Amount: core.MoneyFromCents(100), Month: core.NewDate(2024, time.March, 1)})
		if !errors.Is(err, core.ErrValidation) || core.Detail(err) != msgBudgetExists {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("foreign category", func(t *testing.T) {
		_, err := svc.Create(ctx, alice.ID, BudgetInput{CategoryID: bobs.ID, Amount: core.MoneyFromCents(100), Month: core.NewDate(2024, time.April, 1)})
		if !errors.Is(err, core.ErrValidation) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("list by month", func(t *testing.T) {
		march := core.NewDate(2024, time.March, 1)
		april := core.NewDate(2024, time.April, 1)
		if got, _ := svc.List(ctx, alice.ID, &march); len(got) != 1 {
			t.Errorf("march = %d budgets", len(got))
		}
		if got, _ := svc.List(ctx, alice.ID, &april); len(got) != 0 {
			t.Errorf("april = %d budgets", len(got))
		}
	})

	t.Run("ownership", func(t *testing.T) {
		if _, err := svc.Get(ctx, bob.ID, b.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get err = %v", err)
		}
		if err := svc.Delete(ctx, bob.ID, b.ID); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("Delete err = %v", err)
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		got, err := svc.Update(ctx, alice.ID, b.ID, BudgetInput{CategoryID: food.ID, Amount: core.MoneyFromCents(100), Month: b.Month})
		if err != nil {
			t.Fatal(err)
		}
		if got.Amount.Cents != 100 {
			t.Errorf("Amount = %v", got.Amount)
		}
		if err := svc.Delete(ctx, alice.ID, b.ID); err != nil {
			t.Fatal(err)
		}
	})
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewAccountService(store, nil)

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Password2: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret-pass" {
		t.Error("password was not hashed")
	}
	cats, err := store.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want := len(core.DefaultExpenseCategories) + len(core.DefaultIncomeCategories); len(cats) != want {
		t.Errorf("seeded %d categories, want %d", len(cats), want)
	}

	invalid := []struct {
		name   string
		input  RegisterInput
		detail string
	}{
		{"mismatch", RegisterInput{Username: "bob", Password: "password1", Password2: "password2"}, "Passwords do not match."},
		{"short", RegisterInput{Username: "bob", Password: "short", Password2: "short"}, "This password is too short. It must contain at least 8 characters."},
		{"taken", RegisterInput{Username: "alice", Password: "password1", Password2: "password1"}, "A user with that username already exists."},
		{"bad username", RegisterInput{Username: "bob smith", Password: "password1", Password2: "password1"}, ""},
		{"bad email", RegisterInput{Username: "bob", Email: "nope", Password: "password1", Password2: "password1"}, "Enter a valid email address."},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if tc.detail != "" && core.Detail(err) != tc.detail {
				t.Errorf("detail = %q, want %q", core.Detail(err), tc.detail)
			}
		})
	}

	t.Run("authenticate", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "alice", "s3cret-pass")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != u.ID {
			t.Errorf("ID = %d, want %d", got.ID, u.ID)
		}
		for _, creds := range [][2]string{{"alice", "wrong-pass"}, {"nobody", "s3cret-pass"}} {
			_, err := svc.Authenticate(ctx, creds[0], creds[1])
			if !errors.Is(err, core.ErrUnauthorized) {
				t.Errorf("Authenticate(%s) err = %v", creds[0], err)
			}
		}
	})
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
