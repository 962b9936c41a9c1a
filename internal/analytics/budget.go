package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/core"
)

// BudgetRow compares one category's budget with its actual spend.
type BudgetRow struct {
	Category string     `json:"category"`
	Budget   core.Money `json:"budget"`
	Spent    core.Money `json:"spent"`
}

// BudgetVsExpense reports, for every category the user owns (income ones
// included), the budget set for the month and the expenses booked against
// the category between the first and last day of the month. Missing budgets
// and sums are zero. Rows follow the store's category order.
func (e *Engine) BudgetVsExpense(ctx context.Context, ownerID int64, year, month int) ([]BudgetRow, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: Invalid year/month", core.ErrInvalidFilter)
	}
	start := core.NewDate(year, timeMonth(month), 1)
	end := start.MonthEnd()

	var (
		categories []core.Category
		budgets    []core.Budget
		spent      []core.GroupSum
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = e.store.ListCategories(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = e.store.ListBudgets(gctx, ownerID, &start)
		return err
	})
	g.Go(func() error {
		var err error
		spent, err = e.store.SumTransactions(gctx, ownerID, core.TransactionQuery{
			Kind: core.KindExpense,
			From: &start,
			To:   &end,
		}, core.GroupCategory)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("budget vs expense: %w", err)
	}

	budgetByCategory := make(map[int64]core.Money, len(budgets))
	for _, b := range budgets {
		budgetByCategory[b.CategoryID] = b.Amount
	}
	spentByCategory := make(map[int64]core.Money, len(spent))
	for _, s := range spent {
		if s.CategoryID != nil {
			spentByCategory[*s.CategoryID] = s.Total
		}
	}

	rows := make([]BudgetRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, BudgetRow{
			Category: c.Name,
			Budget:   budgetByCategory[c.ID],
			Spent:    spentByCategory[c.ID],
		})
	}
	return rows, nil
}

func timeMonth(m int) time.Month { return time.Month(m) }
