// Package analytics aggregates a user's transactions into the summary shapes
// served by the analytics endpoints. Every result is computed eagerly from
// the store on each call.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/core"
)

// Reader is the subset of the domain store the engine needs.
type Reader interface {
	SumTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery, keys ...core.GroupKey) ([]core.GroupSum, error)
	ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
	ListBudgets(ctx context.Context, ownerID int64, month *core.Date) ([]core.Budget, error)
}

type Engine struct {
	store Reader
	now   func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock used to find the current month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Reader, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type (
	Totals struct {
		IncomeTotal  core.Money `json:"income_total"`
		ExpenseTotal core.Money `json:"expense_total"`
		Net          core.Money `json:"net"`
	}

	MonthlyTotals struct {
		Totals
		TransactionCount int64 `json:"transaction_count"`
	}

	CategoryTotal struct {
		Category string     `json:"category"`
		Total    core.Money `json:"total"`
	}

	MonthFlow struct {
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
	}

	MonthlySummary struct {
		Totals
		ExpenseByCategory []CategoryTotal    `json:"expense_by_category"`
		MonthlySeries     map[string]MonthFlow `json:"monthly_series"`
	}

	CategoryTotals struct {
		Results []CategoryTotal `json:"results"`
	}

	// MatrixRow holds one month of the monthly-by-category matrix. Totals
	// has an entry for every category of the matrix.
	MatrixRow struct {
		Month  string
		Totals map[string]core.Money
	}

	MonthlyCategoryMatrix struct {
		Categories []string    `json:"categories"`
		Results    []MatrixRow `json:"results"`
	}
)

func newTotals(income, expense core.Money) Totals {
	return Totals{IncomeTotal: income, ExpenseTotal: expense, Net: income.Sub(expense)}
}

// totalsByKind folds kind-grouped rows into income and expense sums.
func totalsByKind(rows []core.GroupSum) (Totals, int64) {
	var income, expense core.Money
	var count int64
	for _, r := range rows {
		switch r.Kind {
		case core.KindIncome:
			income = income.Add(r.Total)
		case core.KindExpense:
			expense = expense.Add(r.Total)
		}
		count += r.Count
	}
	return newTotals(income, expense), count
}

// MonthlyTotals sums income and expense for the current calendar month.
// Explicit filters do not apply.
func (e *Engine) MonthlyTotals(ctx context.Context, ownerID int64) (MonthlyTotals, error) {
	today := core.DateOf(e.now())
	start, end := today.MonthStart(), today.MonthEnd()
	rows, err := e.store.SumTransactions(ctx, ownerID, core.TransactionQuery{From: &start, To: &end}, core.GroupKind)
	if err != nil {
		return MonthlyTotals{}, fmt.Errorf("monthly totals: %w", err)
	}
	totals, count := totalsByKind(rows)
	return MonthlyTotals{Totals: totals, TransactionCount: count}, nil
}

// MonthlySummary computes totals, the expense breakdown by category and,
// unless a single month was requested, the per-month income/expense series.
// The independent store queries run concurrently.
func (e *Engine) MonthlySummary(ctx context.Context, ownerID int64, f Filter) (MonthlySummary, error) {
	q := f.Query(true)
	var (
		kindRows, categoryRows, seriesRows []core.GroupSum
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.store.SumTransactions(gctx, ownerID, q, core.GroupKind)
		if err != nil {
			return fmt.Errorf("sum by kind: %w", err)
		}
		kindRows = rows
		return nil
	})
	if q.Kind != core.KindIncome {
		g.Go(func() error {
			eq := q
			eq.Kind = core.KindExpense
			rows, err := e.store.SumTransactions(gctx, ownerID, eq, core.GroupCategory)
			if err != nil {
				return fmt.Errorf("sum expenses by category: %w", err)
			}
			categoryRows = rows
			return nil
		})
	}
	if !f.HasPeriod() {
		g.Go(func() error {
			rows, err := e.store.SumTransactions(gctx, ownerID, q, core.GroupMonth, core.GroupKind)
			if err != nil {
				return fmt.Errorf("sum by month: %w", err)
			}
			seriesRows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	totals, _ := totalsByKind(kindRows)
	series := make(map[string]MonthFlow)
	for _, r := range seriesRows {
		flow := series[r.Month]
		switch r.Kind {
		case core.KindIncome:
			flow.Income = flow.Income.Add(r.Total)
		case core.KindExpense:
			flow.Expense = flow.Expense.Add(r.Total)
		}
		series[r.Month] = flow
	}

	return MonthlySummary{
		Totals:            totals,
		ExpenseByCategory: rankByCategory(categoryRows),
		MonthlySeries:     series,
	}, nil
}

// CategoryTotals groups the filtered transactions by category name. Year
// and month are not applied.
func (e *Engine) CategoryTotals(ctx context.Context, ownerID int64, f Filter) (CategoryTotals, error) {
	rows, err := e.store.SumTransactions(ctx, ownerID, f.Query(false), core.GroupCategory)
	if err != nil {
		return CategoryTotals{}, fmt.Errorf("category totals: %w", err)
	}
	return CategoryTotals{Results: rankByCategory(rows)}, nil
}

// MonthlyByCategory builds a month by category-name matrix over the filtered
// transactions. Year and month are not applied. Every row carries every
// category, zero when the category had no activity that month.
func (e *Engine) MonthlyByCategory(ctx context.Context, ownerID int64, f Filter) (MonthlyCategoryMatrix, error) {
	rows, err := e.store.SumTransactions(ctx, ownerID, f.Query(false), core.GroupMonth, core.GroupCategory)
	if err != nil {
		return MonthlyCategoryMatrix{}, fmt.Errorf("monthly by category: %w", err)
	}

	cells := make(map[string]map[string]core.Money)
	names := make(map[string]struct{})
	for _, r := range rows {
		label := r.Label()
		names[label] = struct{}{}
		if cells[r.Month] == nil {
			cells[r.Month] = make(map[string]core.Money)
		}
		cells[r.Month][label] = cells[r.Month][label].Add(r.Total)
	}

	categories := make([]string, 0, len(names))
	for name := range names {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	months := make([]string, 0, len(cells))
	for m := range cells {
		months = append(months, m)
	}
	sort.Strings(months)

	results := make([]MatrixRow, 0, len(months))
	for _, m := range months {
		row := MatrixRow{Month: m, Totals: make(map[string]core.Money, len(categories))}
		for _, name := range categories {
			row.Totals[name] = cells[m][name]
		}
		results = append(results, row)
	}
	return MonthlyCategoryMatrix{Categories: categories, Results: results}, nil
}

// rankByCategory merges category-grouped rows by display name and sorts them
// by total descending, ties broken by name ascending.
func rankByCategory(rows []core.GroupSum) []CategoryTotal {
	byName := make(map[string]core.Money)
	for _, r := range rows {
		label := r.Label()
		byName[label] = byName[label].Add(r.Total)
	}
	out := make([]CategoryTotal, 0, len(byName))
	for name, total := range byName {
		out = append(out, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MarshalJSON writes "month" first, then each category in sorted order. A
// category literally named "month" is shadowed by the row label.
func (r MatrixRow) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(r.Totals))
	for name := range r.Totals {
		if name != "month" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	buf := []byte(`{"month":`)
	label, err := json.Marshal(r.Month)
	if err != nil {
		return nil, err
	}
	buf = append(buf, label...)
	for _, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ',')
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, r.Totals[name].String()...)
	}
	buf = append(buf, '}')
	return buf, nil
}
