package core

// Categories created for every new account.
var (
	DefaultExpenseCategories = []string{
		"Utilities", "Rent", "Insurance", "Housing", "Debt",
		"Clothing", "Savings", "Gifting", "Medical", "Miscellaneous",
	}
	DefaultIncomeCategories = []string{
		"Salary", "Investments", "Bonus", "Business", "Other Income",
	}
)

// DefaultCategories returns the seed set for ownerID.
func DefaultCategories(ownerID int64) []Category {
	out := make([]Category, 0, len(DefaultExpenseCategories)+len(DefaultIncomeCategories))
	for _, name := range DefaultExpenseCategories {
		out = append(out, Category{OwnerID: ownerID, Name: name, Kind: KindExpense})
	}
	for _, name := range DefaultIncomeCategories {
		out = append(out, Category{OwnerID: ownerID, Name: name, Kind: KindIncome})
	}
	return out
}
