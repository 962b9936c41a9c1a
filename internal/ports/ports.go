// Package ports declares the storage contracts the services depend on.
// Lookups by id are not owner-scoped: ownership is checked by the caller so
// that a foreign record can be told apart from a missing one.
package ports

import (
	"context"

	"tracker/internal/core"
)

type (
	UserStore interface {
		// CreateUser fails with core.ErrConflict when the username is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	CategoryStore interface {
		// CreateCategory fails with core.ErrConflict on a duplicate
		// (owner, case-insensitive name, kind).
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// FindCategory matches the name case-insensitively.
		FindCategory(ctx context.Context, ownerID int64, name string, kind core.Kind) (core.Category, error)
		// ListCategories returns the owner's categories ordered by kind, then name.
		ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory clears the reference on every transaction that
		// pointed at the category and removes its budgets.
		DeleteCategory(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// ListTransactions returns matches ordered by date, then creation
		// time, newest first.
		ListTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		// CreateBudget fails with core.ErrConflict on a duplicate
		// (owner, category, month).
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		// ListBudgets returns the owner's budgets, restricted to one month
		// when month is non-nil.
		ListBudgets(ctx context.Context, ownerID int64, month *core.Date) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	// Aggregator sums transaction amounts grouped by an explicit key list.
	// With no keys it returns exactly one row holding the overall total.
	Aggregator interface {
		SumTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery, keys ...core.GroupKey) ([]core.GroupSum, error)
	}

	// Store is the full domain store.
	Store interface {
		UserStore
		CategoryStore
		TransactionStore
		BudgetStore
		Aggregator
		Ping(ctx context.Context) error
		Close() error
	}
)
