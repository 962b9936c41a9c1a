package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// UncategorizedLabel is the bucket name reported for transactions whose
// category reference is absent.
const UncategorizedLabel = "Uncategorized"

type (
	// Kind discriminates income from expense on categories and transactions.
	Kind string

	User struct {
		ID           int64
		Username     string
		Email        string
		FirstName    string
		LastName     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID      int64
		OwnerID int64
		Name    string
		Kind    Kind
	}

	// Transaction is a single income or expense record. CategoryID is a weak
	// reference: it becomes nil when the category is deleted.
	Transaction struct {
		ID         int64
		OwnerID    int64
		Kind       Kind
		CategoryID *int64
		Amount     Money
		Date       Date
		Note       string
		Receipt    string
		CreatedAt  time.Time

		// Populated on reads when the category reference is live.
		CategoryName string
		CategoryKind Kind
	}

	// Budget caps spending for one category in one calendar month. Month is
	// always the first day of that month.
	Budget struct {
		ID         int64
		OwnerID    int64
		CategoryID int64
		Amount     Money
		Month      Date

		CategoryName string
	}
)

// ParseKind validates a raw kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", fmt.Errorf("%w: type must be %q or %q", ErrValidation, KindIncome, KindExpense)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (k Kind) String() string { return string(k) }

// Validate checks the intrinsic fields of a category.
func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > MaxCategoryNameLen {
		return fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxCategoryNameLen)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: type must be %q or %q", ErrValidation, KindIncome, KindExpense)
	}
	return nil
}

// Validate checks the intrinsic fields of a transaction. The category
// cross-check needs the referenced record and is done with MatchCategory.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: type must be %q or %q", ErrValidation, KindIncome, KindExpense)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: Amount must be positive.", ErrValidation)
	}
	if t.Amount.Exceeds(TransactionAmountDigits) {
		return fmt.Errorf("%w: amount must have at most %d digits", ErrValidation, TransactionAmountDigits)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// MatchCategory enforces that a transaction's kind equals its category's kind.
func (t Transaction) MatchCategory(c *Category) error {
	if c == nil {
		return nil
	}
	if c.Kind != t.Kind {
		return fmt.Errorf("%w: Transaction type must match category type.", ErrValidation)
	}
	return nil
}

// Validate checks the intrinsic fields of a budget.
func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if !b.Amount.IsPositive() {
		return fmt.Errorf("%w: Amount must be positive.", ErrValidation)
	}
	if b.Amount.Exceeds(BudgetAmountDigits) {
		return fmt.Errorf("%w: amount must have at most %d digits", ErrValidation, BudgetAmountDigits)
	}
	if b.Month.IsZero() {
		return fmt.Errorf("%w: month is required", ErrValidation)
	}
	return nil
}

const (
	MaxCategoryNameLen      = 100
	TransactionAmountDigits = 12
	BudgetAmountDigits      = 10
)
