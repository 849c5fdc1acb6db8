package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Total sums the amounts of items.
func Total(items []Expense) Money {
	var t Money
	for _, e := range items {
		t = t.Add(e.Amount)
	}
	return t
}

// ByCategory sums amounts per category. Categories appear in the order
// they are first seen in items.
func ByCategory(items []Expense) []CategoryAmount {
	idx := make(map[string]int)
	var out []CategoryAmount
	for _, e := range items {
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}
