package analytics

import (
	"context"
	"errors"
	"testing"

	"tracker/internal/core"
)

func TestBudgetVsExpense(t *testing.T) {
	f := newFixture(t)
	rent := f.category("Rent", core.KindExpense)
	food := f.category("Food", core.KindExpense)
	salary := f.category("Salary", core.KindIncome)
	f.txn(core.KindExpense, &rent, "1000", "2024-01-01")
	f.txn(core.KindExpense, &food, "40", "2024-01-31")
	f.txn(core.KindExpense, &food, "99", "2024-02-01")
	f.txn(core.KindIncome, &salary, "3000", "2024-01-15")

	month := core.NewDate(2024, 1, 1)
	if _, err := f.store.CreateBudget(context.Background(), core.Budget{
		OwnerID: f.owner, CategoryID: rent.ID, Amount: cents(1100), Month: month,
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	rows, err := NewEngine(f.store).BudgetVsExpense(context.Background(), f.owner, 2024, 1)
	if err != nil {
		t.Fatalf("BudgetVsExpense: %v", err)
	}
	want := []BudgetRow{
		{Category: "Food", Budget: core.Money{}, Spent: cents(40)},
		{Category: "Rent", Budget: cents(1100), Spent: cents(1000)},
		{Category: "Salary", Budget: core.Money{}, Spent: core.Money{}},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("rows[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestBudgetVsExpenseRejectsBadMonth(t *testing.T) {
	f := newFixture(t)
	_, err := NewEngine(f.store).BudgetVsExpense(context.Background(), f.owner, 2024, 13)
	if !errors.Is(err, core.ErrInvalidFilter) {
		t.Fatalf("err = %v, want ErrInvalidFilter", err)
	}
}
