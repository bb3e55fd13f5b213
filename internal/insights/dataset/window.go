package dataset

import "time"

// Trailing windows are anchored at the table's own maximum sale date, never
// the wall clock, so results are reproducible for a fixed input.

// TrailingYear returns a new table restricted to [max−1y, max], inclusive of
// the lower bound. A table spanning less than a year comes back whole.
func TrailingYear(t *Table) *Table {
	return trailingWindow(t, func(anchor time.Time) time.Time {
		return anchor.AddDate(-1, 0, 0)
	})
}

// TrailingQuarter returns a new table restricted to [max−3mo, max], inclusive
// of the lower bound.
func TrailingQuarter(t *Table) *Table {
	return trailingWindow(t, func(anchor time.Time) time.Time {
		return anchor.AddDate(0, -3, 0)
	})
}

func trailingWindow(t *Table, lowerBound func(time.Time) time.Time) *Table {
	anchor, ok := t.MaxSaleDate()
	if !ok {
		return NewTable(nil)
	}
	lower := lowerBound(anchor)

	kept := make([]Transaction, 0, t.Len())
	for _, row := range t.Rows() {
		if !row.SaleDate.Before(lower) {
			kept = append(kept, row)
		}
	}
	return NewTable(kept)
}
