package storage

import (
	"context"
	"database/sql"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, email, first_name, last_name, password_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, username, email, first_name, last_name, password_hash, created_at
`

type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.PasswordHash,
		arg.CreatedAt,
	)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.FirstName, &i.LastName, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUser = `-- name: GetUser :one
SELECT id, username, email, first_name, last_name, password_hash, created_at
FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.FirstName, &i.LastName, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, email, first_name, last_name, password_hash, created_at
FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.FirstName, &i.LastName, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT id, username, email, first_name, last_name, password_hash, created_at
FROM users ORDER BY id
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Username, &i.Email, &i.FirstName, &i.LastName, &i.PasswordHash, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)
RETURNING id, user_id, name, kind
`

type CreateCategoryParams struct {
	UserID int64
	Name   string
	Kind   string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory, arg.UserID, arg.Name, arg.Kind)
	var i Category
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind)
	return i, err
}

const getCategory = `-- name: GetCategory :one
SELECT id, user_id, name, kind FROM categories WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind)
	return i, err
}

const findCategory = `-- name: FindCategory :one
SELECT id, user_id, name, kind FROM categories
WHERE user_id = ? AND name = ? COLLATE NOCASE AND kind = ?
`

type FindCategoryParams struct {
	UserID int64
	Name   string
	Kind   string
}

func (q *Queries) FindCategory(ctx context.Context, arg FindCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, findCategory, arg.UserID, arg.Name, arg.Kind)
	var i Category
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, user_id, name, kind FROM categories
WHERE user_id = ?
ORDER BY kind, name
`

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories SET name = ?, kind = ? WHERE id = ?
RETURNING id, user_id, name, kind
`

type UpdateCategoryParams struct {
	Name string
	Kind string
	ID   int64
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory, arg.Name, arg.Kind, arg.ID)
	var i Category
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind)
	return i, err
}

const clearTransactionCategory = `-- name: ClearTransactionCategory :exec
UPDATE transactions SET category_id = NULL WHERE category_id = ?
`

func (q *Queries) ClearTransactionCategory(ctx context.Context, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, clearTransactionCategory, categoryID)
	return err
}

const deleteCategoryBudgets = `-- name: DeleteCategoryBudgets :exec
DELETE FROM budgets WHERE category_id = ?
`

func (q *Queries) DeleteCategoryBudgets(ctx context.Context, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryBudgets, categoryID)
	return err
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories WHERE id = ?
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (user_id, kind, category_id, amount_cents, date, note, receipt, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateTransactionParams struct {
	UserID      int64
	Kind        string
	CategoryID  sql.NullInt64
	AmountCents int64
	Date        string
	Note        string
	Receipt     string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.Kind,
		arg.CategoryID,
		arg.AmountCents,
		arg.Date,
		arg.Note,
		arg.Receipt,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getTransaction = `-- name: GetTransaction :one
SELECT t.id, t.user_id, t.kind, t.category_id, t.amount_cents, t.date, t.note, t.receipt, t.created_at,
       c.name, c.kind
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Kind,
		&i.CategoryID,
		&i.AmountCents,
		&i.Date,
		&i.Note,
		&i.Receipt,
		&i.CreatedAt,
		&i.CategoryName,
		&i.CategoryKind,
	)
	return i, err
}

const updateTransaction = `-- name: UpdateTransaction :execrows
UPDATE transactions
SET kind = ?, category_id = ?, amount_cents = ?, date = ?, note = ?, receipt = ?
WHERE id = ?
`

type UpdateTransactionParams struct {
	Kind        string
	CategoryID  sql.NullInt64
	AmountCents int64
	Date        string
	Note        string
	Receipt     string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Kind,
		arg.CategoryID,
		arg.AmountCents,
		arg.Date,
		arg.Note,
		arg.Receipt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createBudget = `-- name: CreateBudget :one
INSERT INTO budgets (user_id, category_id, amount_cents, month) VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateBudgetParams struct {
	UserID      int64
	CategoryID  int64
	AmountCents int64
	Month       string
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createBudget, arg.UserID, arg.CategoryID, arg.AmountCents, arg.Month)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getBudget = `-- name: GetBudget :one
SELECT b.id, b.user_id, b.category_id, b.amount_cents, b.month, c.name
FROM budgets b
LEFT JOIN categories c ON c.id = b.category_id
WHERE b.id = ?
`

func (q *Queries) GetBudget(ctx context.Context, id int64) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, id)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.AmountCents, &i.Month, &i.CategoryName)
	return i, err
}

const listBudgets = `-- name: ListBudgets :many
SELECT b.id, b.user_id, b.category_id, b.amount_cents, b.month, c.name
FROM budgets b
LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = ?1 AND (?2 = '' OR b.month = ?2)
ORDER BY b.month DESC, c.kind, c.name
`

type ListBudgetsParams struct {
	UserID int64
	Month  string
}

func (q *Queries) ListBudgets(ctx context.Context, arg ListBudgetsParams) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, arg.UserID, arg.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.AmountCents, &i.Month, &i.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateBudget = `-- name: UpdateBudget :execrows
UPDATE budgets SET category_id = ?, amount_cents = ?, month = ? WHERE id = ?
`

type UpdateBudgetParams struct {
	CategoryID  int64
	AmountCents int64
	Month       string
	ID          int64
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBudget, arg.CategoryID, arg.AmountCents, arg.Month, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBudget = `-- name: DeleteBudget :execrows
DELETE FROM budgets WHERE id = ?
`

func (q *Queries) DeleteBudget(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
