package core

// GroupKey names one dimension of a grouped sum.
type GroupKey string

const (
	GroupKind     GroupKey = "kind"
	GroupCategory GroupKey = "category"
	GroupMonth    GroupKey = "month"
)

// TransactionQuery is the predicate set the stores understand. Zero values
// mean "no restriction"; date bounds are inclusive.
type TransactionQuery struct {
	Kind         Kind
	From         *Date
	To           *Date
	CategoryID   *int64
	CategoryName string
}

// Matches applies the query to a single transaction. Stores that filter in
// memory use it; SQL stores translate the same predicates.
func (q TransactionQuery) Matches(t Transaction) bool {
	if q.Kind != "" && t.Kind != q.Kind {
		return false
	}
	if q.From != nil && t.Date.Before(*q.From) {
		return false
	}
	if q.To != nil && t.Date.After(*q.To) {
		return false
	}
	if q.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *q.CategoryID) {
		return false
	}
	return true
}

// GroupSum is one row of a grouped aggregation. Only the fields named by the
// requested keys are set. CategoryID is nil for the uncategorized bucket.
type GroupSum struct {
	Kind         Kind
	CategoryID   *int64
	CategoryName string
	Month        string
	Total        Money
	Count        int64
}

// Label returns the category name, falling back to the uncategorized bucket.
func (g GroupSum) Label() string {
	if g.CategoryID == nil {
		return UncategorizedLabel
	}
	return g.CategoryName
}
