package dataset

import "github.com/shopspring/decimal"

// Enriched is a transaction plus its derived monetary fields. Derived values
// are computed views: they are rebuilt from the base fields on every call and
// never written back into the table.
type Enriched struct {
	Transaction
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
	Month   int
}

// Derive computes revenue, cost, profit and calendar month for every row.
// Pure and idempotent: the table is left untouched and repeated calls yield
// identical results. Aggregations downstream rely on these fields and never
// recompute them, so derivation happens in exactly one place.
func Derive(t *Table) []Enriched {
	rows := t.Rows()
	out := make([]Enriched, len(rows))
	for i, tx := range rows {
		quantity := decimal.NewFromInt(int64(tx.Quantity))
		revenue := quantity.Mul(tx.UnitPrice)
		cost := quantity.Mul(tx.UnitCost)
		out[i] = Enriched{
			Transaction: tx,
			Revenue:     revenue,
			Cost:        cost,
			Profit:      revenue.Sub(cost),
			Month:       int(tx.SaleDate.Month()),
		}
	}
	return out
}
