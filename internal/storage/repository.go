package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timestampLayout sorts lexicographically in creation order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// NewSQLiteRepository opens the database at dbPath, enabling foreign keys on
// every pooled connection, and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    r.now().UTC().Format(timestampLayout),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", mapError(err, "A user with that username already exists."))
	}
	slog.InfoContext(ctx, "User saved to SQLite", "id", row.ID, "username", row.Username)
	return userFromRow(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, mapError(err, ""))
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, mapError(err, ""))
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		UserID: c.OwnerID,
		Name:   strings.TrimSpace(c.Name),
		Kind:   string(c.Kind),
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapError(err, "Category already exists."))
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, mapError(err, ""))
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) FindCategory(ctx context.Context, ownerID int64, name string, kind core.Kind) (core.Category, error) {
	row, err := r.queries.FindCategory(ctx, FindCategoryParams{
		UserID: ownerID,
		Name:   strings.TrimSpace(name),
		Kind:   string(kind),
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, mapError(err, ""))
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.UpdateCategory(ctx, UpdateCategoryParams{
		Name: strings.TrimSpace(c.Name),
		Kind: string(c.Kind),
		ID:   c.ID,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, mapError(err, "Category already exists."))
	}
	return categoryFromRow(row), nil
}

// DeleteCategory clears transaction references explicitly instead of relying
// on ON DELETE SET NULL, so the behaviour holds even without the pragma.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.ClearTransactionCategory(ctx, id); err != nil {
		return fmt.Errorf("clear category %d on transactions: %w", id, err)
	}
	if err := q.DeleteCategoryBudgets(ctx, id); err != nil {
		return fmt.Errorf("delete budgets of category %d: %w", id, err)
	}
	n, err := q.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:      t.OwnerID,
		Kind:        string(t.Kind),
		CategoryID:  nullInt64(t.CategoryID),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Note:        t.Note,
		Receipt:     t.Receipt,
		CreatedAt:   r.now().UTC().Format(timestampLayout),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", mapError(err, ""))
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"owner_id", t.OwnerID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, mapError(err, ""))
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Kind:        string(t.Kind),
		CategoryID:  nullInt64(t.CategoryID),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Note:        t.Note,
		Receipt:     t.Receipt,
		ID:          t.ID,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, mapError(err, ""))
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	id, err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		UserID:      b.OwnerID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Month:       b.Month.MonthStart().String(),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", mapError(err, "A budget for this category and month already exists."))
	}
	return r.GetBudget(ctx, id)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, mapError(err, ""))
	}
	return budgetFromRow(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID int64, month *core.Date) ([]core.Budget, error) {
	params := ListBudgetsParams{UserID: ownerID}
	if month != nil {
		params.Month = month.MonthStart().String()
	}
	rows, err := r.queries.ListBudgets(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := budgetFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	n, err := r.queries.UpdateBudget(ctx, UpdateBudgetParams{
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Month:       b.Month.MonthStart().String(),
		ID:          b.ID,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, mapError(err, "A budget for this category and month already exists."))
	}
	if n == 0 {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, core.ErrNotFound)
	}
	return r.GetBudget(ctx, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete budget %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// mapError translates driver errors into domain sentinels. conflictMsg is the
// client-facing detail used for unique violations.
func mapError(err error, conflictMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if isUniqueViolation(err) {
		if conflictMsg == "" {
			conflictMsg = "record already exists"
		}
		return fmt.Errorf("%w: %s", core.ErrConflict, conflictMsg)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func userFromRow(row User) core.User {
	created, _ := time.Parse(timestampLayout, row.CreatedAt)
	return core.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    created,
	}
}

func categoryFromRow(row Category) core.Category {
	return core.Category{
		ID:      row.ID,
		OwnerID: row.UserID,
		Name:    row.Name,
		Kind:    core.Kind(row.Kind),
	}
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	created, _ := time.Parse(timestampLayout, row.CreatedAt)
	t := core.Transaction{
		ID:        row.ID,
		OwnerID:   row.UserID,
		Kind:      core.Kind(row.Kind),
		Amount:    core.MoneyFromCents(row.AmountCents),
		Date:      date,
		Note:      row.Note,
		Receipt:   row.Receipt,
		CreatedAt: created,
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.Int64
		t.CategoryID = &id
		t.CategoryName = row.CategoryName.String
		t.CategoryKind = core.Kind(row.CategoryKind.String)
	}
	return t, nil
}

func budgetFromRow(row Budget) (core.Budget, error) {
	month, err := core.ParseDate(row.Month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d: %w", row.ID, err)
	}
	return core.Budget{
		ID:           row.ID,
		OwnerID:      row.UserID,
		CategoryID:   row.CategoryID,
		Amount:       core.MoneyFromCents(row.AmountCents),
		Month:        month,
		CategoryName: row.CategoryName.String,
	}, nil
}
