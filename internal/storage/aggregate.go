package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tracker/internal/core"
)

const transactionColumns = `t.id, t.user_id, t.kind, t.category_id, t.amount_cents, t.date, t.note, t.receipt, t.created_at, c.name, c.kind`

// whereClause renders the owner scope plus every predicate set on q.
func whereClause(ownerID int64, q core.TransactionQuery) (string, []any) {
	conds := []string{"t.user_id = ?"}
	args := []any{ownerID}
	if q.Kind != "" {
		conds = append(conds, "t.kind = ?")
		args = append(args, string(q.Kind))
	}
	if q.From != nil {
		conds = append(conds, "t.date >= ?")
		args = append(args, q.From.String())
	}
	if q.To != nil {
		conds = append(conds, "t.date <= ?")
		args = append(args, q.To.String())
	}
	if q.CategoryID != nil {
		conds = append(conds, "t.category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if name := strings.TrimSpace(q.CategoryName); name != "" {
		conds = append(conds, "c.name = ? COLLATE NOCASE")
		args = append(args, name)
	}
	return strings.Join(conds, " AND "), args
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery) ([]core.Transaction, error) {
	where, args := whereClause(ownerID, q)
	query := `SELECT ` + transactionColumns + `
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE ` + where + `
ORDER BY t.date DESC, t.created_at DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var row Transaction
		if err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Kind,
			&row.CategoryID,
			&row.AmountCents,
			&row.Date,
			&row.Note,
			&row.Receipt,
			&row.CreatedAt,
			&row.CategoryName,
			&row.CategoryKind,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SumTransactions issues one grouped-sum query whose GROUP BY is built from
// keys. Months are derived from the stored YYYY-MM-DD text.
func (r *SQLiteRepository) SumTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery, keys ...core.GroupKey) ([]core.GroupSum, error) {
	var (
		selects []string
		groups  []string
		seen    = make(map[core.GroupKey]bool, len(keys))
	)
	for _, k := range keys {
		if seen[k] {
			return nil, fmt.Errorf("sum transactions: duplicate group key %q", k)
		}
		seen[k] = true
		switch k {
		case core.GroupKind:
			selects = append(selects, "t.kind")
			groups = append(groups, "t.kind")
		case core.GroupCategory:
			selects = append(selects, "t.category_id", "COALESCE(MAX(c.name), '')")
			groups = append(groups, "t.category_id")
		case core.GroupMonth:
			selects = append(selects, "substr(t.date, 1, 7)")
			groups = append(groups, "substr(t.date, 1, 7)")
		default:
			return nil, fmt.Errorf("sum transactions: unknown group key %q", k)
		}
	}
	selects = append(selects, "COALESCE(SUM(t.amount_cents), 0)", "COUNT(t.id)")

	where, args := whereClause(ownerID, q)
	query := `SELECT ` + strings.Join(selects, ", ") + `
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE ` + where
	if len(groups) > 0 {
		query += "\nGROUP BY " + strings.Join(groups, ", ") + "\nORDER BY " + strings.Join(groups, ", ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	var out []core.GroupSum
	for rows.Next() {
		var (
			g          core.GroupSum
			kind       string
			categoryID sql.NullInt64
			cents      int64
			dest       []any
		)
		for _, k := range keys {
			switch k {
			case core.GroupKind:
				dest = append(dest, &kind)
			case core.GroupCategory:
				dest = append(dest, &categoryID, &g.CategoryName)
			case core.GroupMonth:
				dest = append(dest, &g.Month)
			}
		}
		dest = append(dest, &cents, &g.Count)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan group sum: %w", err)
		}
		g.Kind = core.Kind(kind)
		if categoryID.Valid {
			id := categoryID.Int64
			g.CategoryID = &id
		}
		g.Total = core.MoneyFromCents(cents)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group sums: %w", err)
	}
	return out, nil
}
