package insights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ventas-insights/internal/insights/classify"
	"github.com/angelmondragon/ventas-insights/internal/insights/dataset"
	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
)

func tx(t *testing.T, date, customer, product, category, country string, qty int, price, cost string) dataset.Transaction {
	t.Helper()
	day, err := time.Parse(dataset.DefaultDateLayout, date)
	require.NoError(t, err)
	return dataset.Transaction{
		SaleDate:   day,
		CustomerID: customer,
		Product:    product,
		Category:   category,
		Country:    country,
		Quantity:   qty,
		UnitPrice:  decimal.RequireFromString(price),
		UnitCost:   decimal.RequireFromString(cost),
	}
}

func newTestService(t *testing.T, rows ...dataset.Transaction) Service {
	t.Helper()
	return NewServiceFromTable(dataset.NewTable(rows), nil, nil)
}

func TestTopCategoryLastYearUsesTrailingWindow(t *testing.T) {
	svc := newTestService(t,
		// Old row outside the trailing year, with a huge quantity.
		tx(t, "2022-01-01", "C1", "Silla", "Muebles", "ES", 100, "10.00", "5.00"),
		tx(t, "2023-06-01", "C1", "Teclado", "Electronica", "ES", 5, "10.00", "5.00"),
		tx(t, "2023-12-31", "C2", "Raton", "Electronica", "ES", 3, "10.00", "5.00"),
		tx(t, "2023-12-31", "C2", "Mesa", "Muebles", "ES", 4, "10.00", "5.00"),
	)

	insight, err := svc.TopCategoryLastYear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Electronica", insight.Category)
	assert.Equal(t, int64(8), insight.QuantitySold)
}

func TestTopCustomerByVolume(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 2, "10.00", "5.00"), // 20
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 5, "10.00", "5.00"), // 50
		tx(t, "2024-01-03", "C1", "C", "X", "ES", 1, "15.00", "5.00"), // C1 total 35
	)

	insight, err := svc.TopCustomer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C2", insight.CustomerID)
	assert.Equal(t, "50", insight.TotalRevenue.String())
}

func TestTopCustomerTieIsDeterministic(t *testing.T) {
	rows := []dataset.Transaction{
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 1, "10.00", "5.00"),
	}

	first, err := newTestService(t, rows...).TopCustomer(context.Background())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := newTestService(t, rows...).TopCustomer(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.CustomerID, again.CustomerID, "tie winner must be stable across runs")
	}
}

func TestTopCustomerEmptyTable(t *testing.T) {
	_, err := newTestService(t).TopCustomer(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeEmptyInput, typed.Code())
}

func TestAverageRevenuePerCustomer(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 2, "10.00", "5.00"), // 20
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 4, "10.00", "5.00"), // 40
	)

	avg, err := svc.AverageRevenuePerCustomer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, avg.Customers)
	assert.InDelta(t, 30.0, avg.Average, 1e-9)
}

func TestProductMarginsRankDescending(t *testing.T) {
	svc := newTestService(t,
		// A: revenue 100, profit 50 -> margin 0.5
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 10, "10.00", "5.00"),
		// B: revenue 200, profit 150 -> margin 0.75
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 10, "20.00", "5.00"),
	)

	report, err := svc.ProductMargins(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, report.Products, 2)
	assert.Equal(t, "B", report.Products[0].Product)
	assert.InDelta(t, 0.75, report.Products[0].Margin, 1e-9)
	assert.Equal(t, "A", report.Products[1].Product)
	assert.InDelta(t, 0.5, report.Products[1].Margin, 1e-9)
}

func TestProductMarginsZeroRevenueSortsLastWithoutCrashing(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 10, "10.00", "5.00"),
		// Zero revenue: free giveaway with a real cost.
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 3, "0.00", "2.00"),
	)

	report, err := svc.ProductMargins(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, report.Products, 2)
	assert.Equal(t, "B", report.Products[1].Product)
	assert.False(t, report.Products[1].Defined)
	assert.True(t, report.Products[0].Defined)
}

func TestProductMarginsLimit(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-02", "C1", "B", "X", "ES", 1, "10.00", "4.00"),
		tx(t, "2024-01-03", "C1", "C", "X", "ES", 1, "10.00", "3.00"),
	)
	report, err := svc.ProductMargins(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, report.Products, 2)
	assert.Equal(t, "C", report.Products[0].Product)
}

func TestSeasonalSalesOrderedByMonth(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2023-11-01", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-02-01", "C1", "A", "X", "ES", 2, "10.00", "5.00"),
		tx(t, "2023-02-10", "C2", "B", "X", "ES", 1, "10.00", "5.00"),
	)

	sales, err := svc.SeasonalSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, 2, sales[0].Month)
	assert.Equal(t, "30", sales[0].Revenue.String())
	assert.Equal(t, 11, sales[1].Month)
	assert.Equal(t, "10", sales[1].Revenue.String())
}

func TestQuarterSalesGroupsByDateAndCountry(t *testing.T) {
	svc := newTestService(t,
		// Outside the trailing quarter anchored at 2024-03-31.
		tx(t, "2023-01-15", "C1", "A", "X", "ES", 9, "10.00", "5.00"),
		tx(t, "2024-02-01", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-02-01", "C2", "B", "X", "ES", 2, "10.00", "5.00"),
		tx(t, "2024-03-31", "C1", "A", "X", "FR", 1, "10.00", "5.00"),
	)

	sales, err := svc.QuarterSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "2024-02-01", sales[0].SaleDate)
	assert.Equal(t, "ES", sales[0].Country)
	assert.Equal(t, "30", sales[0].Revenue.String())
	assert.Equal(t, "FR", sales[1].Country)
}

func TestMultiCategoryCustomersPercentage(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "Cat1", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-02", "C1", "B", "Cat2", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-03", "C1", "C", "Cat3", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-04", "C2", "D", "Cat1", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-05", "C3", "E", "Cat1", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-06", "C4", "F", "Cat2", "ES", 1, "10.00", "5.00"),
	)

	result, err := svc.MultiCategoryCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Customers)
	assert.Equal(t, 4, result.TotalCustomers)
	assert.InDelta(t, 25.0, result.Percentage, 1e-9)
}

func TestMultiCategoryCustomersEmptyTable(t *testing.T) {
	_, err := newTestService(t).MultiCategoryCustomers(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeEmptyInput, typed.Code())
}

func TestCustomerTiersBoundaries(t *testing.T) {
	// 101 customers with revenues 1..101 make 0.33*(n-1) and 0.66*(n-1)
	// exact indexes, so both thresholds land on a customer's own revenue:
	// p33 = sorted[33] = 34 and p66 = sorted[66] = 67. The customers who
	// sit exactly on a threshold must classify upward.
	rows := make([]dataset.Transaction, 0, 101)
	for i := 1; i <= 101; i++ {
		rows = append(rows, tx(t, "2024-01-01", fmt.Sprintf("C%03d", i), "A", "X", "ES", i, "1.00", "0.50"))
	}

	report, err := newTestService(t, rows...).CustomerTiers(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 34.0, report.P33, 1e-9)
	require.InDelta(t, 67.0, report.P66, 1e-9)

	tiers := make(map[string]classify.Tier, len(report.Customers))
	for _, customer := range report.Customers {
		tiers[customer.CustomerID] = customer.Tier
	}
	assert.Equal(t, classify.TierLow, tiers["C033"])
	assert.Equal(t, classify.TierMedium, tiers["C034"], "exactly p33 must be Medium")
	assert.Equal(t, classify.TierMedium, tiers["C066"])
	assert.Equal(t, classify.TierHigh, tiers["C067"], "exactly p66 must be High")
	assert.Equal(t, classify.TierHigh, tiers["C101"])
}

func TestCustomerTiersDegenerateAllEqualLandHigh(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-02", "C2", "B", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-03", "C3", "C", "X", "ES", 1, "10.00", "5.00"),
	)

	report, err := svc.CustomerTiers(context.Background())
	require.NoError(t, err)
	for _, customer := range report.Customers {
		assert.Equal(t, classify.TierHigh, customer.Tier)
	}
}

func TestCustomerTiersEmptyTable(t *testing.T) {
	_, err := newTestService(t).CustomerTiers(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeEmptyInput, typed.Code())
}

func TestProductAndCustomerSales(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 2, "10.00", "5.00"),
		tx(t, "2024-01-02", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-03", "C2", "B", "X", "ES", 1, "10.00", "5.00"),
	)

	products, err := svc.ProductSales(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A", products[0].Product)
	assert.Equal(t, "30", products[0].TotalRevenue.String())

	customers, err := svc.CustomerSales(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "C1", customers[0].CustomerID)
	assert.Equal(t, "30", customers[0].TotalRevenue.String())
}

func TestSummaryCountsDistinctEntities(t *testing.T) {
	svc := newTestService(t,
		tx(t, "2024-01-05", "C1", "A", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-02-01", "C2", "B", "X", "ES", 1, "10.00", "5.00"),
		tx(t, "2024-01-20", "C1", "B", "Y", "FR", 1, "10.00", "5.00"),
	)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Customers)
	assert.Equal(t, 2, summary.Products)
	assert.Equal(t, 2, summary.Categories)
	assert.Equal(t, "2024-01-05", summary.FirstSale)
	assert.Equal(t, "2024-02-01", summary.LastSale)
}

func TestReloadUnavailableWithoutSource(t *testing.T) {
	_, err := newTestService(t).Reload(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestQueriesLeaveTableUntouched(t *testing.T) {
	table := dataset.NewTable([]dataset.Transaction{
		tx(t, "2024-01-01", "C1", "A", "X", "ES", 2, "10.00", "5.00"),
		tx(t, "2024-01-02", "C2", "B", "Y", "ES", 1, "25.00", "5.00"),
	})
	svc := NewServiceFromTable(table, nil, nil)

	// Run unrelated analyses back to back: none may depend on another
	// having run first, and none may write derived columns anywhere.
	_, err := svc.CustomerTiers(context.Background())
	require.NoError(t, err)
	_, err = svc.ProductMargins(context.Background(), 0)
	require.NoError(t, err)
	insight, err := svc.TopCustomer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C2", insight.CustomerID)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "10", table.Rows()[0].UnitPrice.String())
}
