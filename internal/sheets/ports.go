// Package sheets defines the spreadsheet mirror of transactions. The mirror
// holds one row per transaction keyed by transaction id.
package sheets

import (
	"context"
	"strconv"

	"tracker/internal/core"
)

// Row is the mirrored view of one transaction.
type Row struct {
	TransactionID int64
	Date          core.Date
	Kind          core.Kind
	Category      string
	Amount        core.Money
	Note          string
	Owner         string
}

// Header names the mirror columns in order.
var Header = []string{"ID", "Date", "Type", "Category", "Amount", "Note", "Owner"}

// Mirror keeps the spreadsheet in step with the store.
type Mirror interface {
	// Upsert writes the row, replacing the existing row with the same id.
	Upsert(ctx context.Context, row Row) error
	// Remove clears the row with the given id. A missing row is not an
	// error.
	Remove(ctx context.Context, transactionID int64) error
}

// RowFromTransaction builds the mirror row. Transactions without a live
// category are reported under the uncategorized label.
func RowFromTransaction(t core.Transaction, owner string) Row {
	category := t.CategoryName
	if t.CategoryID == nil || category == "" {
		category = core.UncategorizedLabel
	}
	return Row{
		TransactionID: t.ID,
		Date:          t.Date,
		Kind:          t.Kind,
		Category:      category,
		Amount:        t.Amount,
		Note:          t.Note,
		Owner:         owner,
	}
}

// Key is the value stored in the id column.
func (r Row) Key() string {
	return strconv.FormatInt(r.TransactionID, 10)
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	return []any{r.Key(), r.Date.String(), string(r.Kind), r.Category, r.Amount.String(), r.Note, r.Owner}
}
