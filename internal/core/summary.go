package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// ExpensesByCategory aggregates the absolute amounts of all expense
// transactions per category. Income entries are ignored. The result is
// ordered largest amount first, ties broken by name, which is the
// order chart consumers render slices in.
func ExpensesByCategory(txs []Transaction) []CategoryAmount {
	sums := make(map[string]int64)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		sums[t.Category] += t.Amount.Abs().Cents
	}

	out := make([]CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
