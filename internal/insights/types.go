package insights

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ventas-insights/internal/insights/classify"
)

// CategoryInsight names the most sold product category inside the trailing
// year window and the units it moved.
type CategoryInsight struct {
	Category     string `json:"category"`
	QuantitySold int64  `json:"quantity_sold"`
}

// CustomerInsight names the customer with the largest total purchase volume.
type CustomerInsight struct {
	CustomerID   string          `json:"customer_id"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// AverageRevenue reports revenue averaged over distinct customers.
type AverageRevenue struct {
	Average   float64 `json:"average"`
	Customers int     `json:"customers"`
}

// ProductMargin is one row of the profit-margin ranking. Margin is undefined
// when the product's revenue sums to zero; such rows carry Defined=false and
// sort after every defined margin instead of crashing the query.
type ProductMargin struct {
	Product string          `json:"product"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
	Margin  float64         `json:"margin"`
	Defined bool            `json:"margin_defined"`
}

// MarginReport is the profit-margin ranking, highest margin first.
type MarginReport struct {
	Products []ProductMargin `json:"products"`
}

// MonthlySales is revenue summed over one calendar month across all years, in
// month order. A simple monthly sum, not a seasonal decomposition.
type MonthlySales struct {
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// QuarterSale is revenue summed per sale date and country inside the trailing
// quarter window.
type QuarterSale struct {
	SaleDate string          `json:"sale_date"`
	Country  string          `json:"country"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// MultiCategoryResult reports customers who purchased in more than two
// distinct product categories.
type MultiCategoryResult struct {
	Customers      int     `json:"customers"`
	TotalCustomers int     `json:"total_customers"`
	Percentage     float64 `json:"percentage"`
}

// CustomerTier is one classified customer.
type CustomerTier struct {
	CustomerID   string          `json:"customer_id"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Tier         classify.Tier   `json:"tier"`
}

// TierReport carries the revenue percentile thresholds and every customer's
// assigned tier.
type TierReport struct {
	P33       float64        `json:"p33"`
	P66       float64        `json:"p66"`
	Customers []CustomerTier `json:"customers"`
}

// ProductSales is total revenue per product.
type ProductSales struct {
	Product      string          `json:"product"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// CustomerSales is total revenue per customer.
type CustomerSales struct {
	CustomerID   string          `json:"customer_id"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// DatasetSummary describes the loaded snapshot.
type DatasetSummary struct {
	Rows       int    `json:"rows"`
	Customers  int    `json:"customers"`
	Products   int    `json:"products"`
	Categories int    `json:"categories"`
	FirstSale  string `json:"first_sale,omitempty"`
	LastSale   string `json:"last_sale,omitempty"`
}
