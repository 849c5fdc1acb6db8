package expense

import (
	"fmt"
	"slices"
	"strings"

	"tally/internal/core"
)

// SortOrder selects how a view orders records by date.
type SortOrder string

const (
	Unspecified SortOrder = ""
	Ascending   SortOrder = "asc"
	Descending  SortOrder = "desc"
)

// ParseSortOrder accepts "asc", "desc" and "" (case-insensitive).
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case Unspecified, Ascending, Descending:
		return o, nil
	default:
		return Unspecified, fmt.Errorf("invalid sort order %q: must be asc, desc or empty", s)
	}
}

// DateRange bounds a view by calendar date, inclusive on both ends. A zero
// bound is open.
type DateRange struct {
	Start core.Date
	End   core.Date
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Compare(r.Start) < 0 {
		return false
	}
	if !r.End.IsZero() && d.Compare(r.End) > 0 {
		return false
	}
	return true
}

// FilterByDateRange returns the records whose date falls inside r. The
// input is never modified.
func FilterByDateRange(items []core.Expense, r DateRange) []core.Expense {
	out := make([]core.Expense, 0, len(items))
	for _, e := range items {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDate returns a copy of items ordered by date. The sort is stable,
// so records sharing a date keep their relative order. Unspecified keeps
// the existing order.
func SortByDate(items []core.Expense, order SortOrder) []core.Expense {
	out := slices.Clone(items)
	switch order {
	case Ascending:
		slices.SortStableFunc(out, func(a, b core.Expense) int { return a.Date.Compare(b.Date) })
	case Descending:
		slices.SortStableFunc(out, func(a, b core.Expense) int { return b.Date.Compare(a.Date) })
	}
	return out
}

// View is a filter plus an ordering.
type View struct {
	Range DateRange
	Order SortOrder
}

// ParseView builds a View from raw bounds and sort order. Empty values
// leave that part of the view open.
func ParseView(start, end, order string) (View, error) {
	var v View
	var err error
	if start = strings.TrimSpace(start); start != "" {
		if v.Range.Start, err = core.ParseDate(start); err != nil {
			return View{}, core.Invalid("start", err)
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if v.Range.End, err = core.ParseDate(end); err != nil {
			return View{}, core.Invalid("end", err)
		}
	}
	if v.Order, err = ParseSortOrder(order); err != nil {
		return View{}, core.Invalid("sort", err)
	}
	return v, nil
}

// Apply filters then sorts items.
func (v View) Apply(items []core.Expense) []core.Expense {
	return SortByDate(FilterByDateRange(items, v.Range), v.Order)
}
