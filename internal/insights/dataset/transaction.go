package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one sale event row from the source table. UnitPrice and
// UnitCost are rounded to 2 decimal places at load time and never re-rounded
// downstream.
type Transaction struct {
	SaleDate   time.Time
	CustomerID string
	Product    string
	Category   string
	Country    string
	Quantity   int
	UnitPrice  decimal.Decimal
	UnitCost   decimal.Decimal
}

// Table is the canonical ordered collection of transactions. It is the single
// source of truth for every analytic query; callers must treat it as
// read-only after load.
type Table struct {
	rows []Transaction
}

// NewTable wraps rows in a table. The slice is owned by the table afterwards.
func NewTable(rows []Transaction) *Table {
	return &Table{rows: rows}
}

// Rows exposes the underlying transactions. The slice must not be mutated.
func (t *Table) Rows() []Transaction {
	if t == nil {
		return nil
	}
	return t.rows
}

// Len returns the number of transactions in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// MaxSaleDate returns the latest sale date present in the table. The second
// return value is false for an empty table.
func (t *Table) MaxSaleDate() (time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, false
	}
	max := t.rows[0].SaleDate
	for _, row := range t.rows[1:] {
		if row.SaleDate.After(max) {
			max = row.SaleDate
		}
	}
	return max, true
}
