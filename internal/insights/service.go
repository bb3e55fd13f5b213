package insights

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/ventas-insights/internal/insights/aggregate"
	"github.com/angelmondragon/ventas-insights/internal/insights/classify"
	"github.com/angelmondragon/ventas-insights/internal/insights/dataset"
	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
	"github.com/angelmondragon/ventas-insights/pkg/logger"
	"github.com/angelmondragon/ventas-insights/pkg/metrics"
)

// Service exposes the fixed set of descriptive analytics over the loaded
// sales table. Every query takes its own immutable snapshot and derives its
// own working view; nothing is cached between calls and the snapshot itself
// is never written to.
type Service interface {
	TopCategoryLastYear(ctx context.Context) (*CategoryInsight, error)
	TopCustomer(ctx context.Context) (*CustomerInsight, error)
	AverageRevenuePerCustomer(ctx context.Context) (*AverageRevenue, error)
	ProductMargins(ctx context.Context, limit int) (*MarginReport, error)
	SeasonalSales(ctx context.Context) ([]MonthlySales, error)
	QuarterSales(ctx context.Context) ([]QuarterSale, error)
	MultiCategoryCustomers(ctx context.Context) (*MultiCategoryResult, error)
	CustomerTiers(ctx context.Context) (*TierReport, error)
	ProductSales(ctx context.Context) ([]ProductSales, error)
	CustomerSales(ctx context.Context) ([]CustomerSales, error)
	Summary(ctx context.Context) (*DatasetSummary, error)
	Reload(ctx context.Context) (*DatasetSummary, error)
}

type service struct {
	loader  *dataset.Loader
	path    string
	logg    *logger.Logger
	metrics *metrics.QueryMetrics

	mu    sync.RWMutex
	table *dataset.Table
}

// Params configures the insights service.
type Params struct {
	DatasetPath string
	DateLayout  string
	Logger      *logger.Logger
	Metrics     *metrics.QueryMetrics
}

// NewService loads the dataset from disk and returns a ready service.
func NewService(params Params) (Service, error) {
	if params.DatasetPath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dataset path required")
	}
	s := &service{
		loader:  dataset.NewLoader(params.DateLayout),
		path:    params.DatasetPath,
		logg:    params.Logger,
		metrics: params.Metrics,
	}
	table, err := s.loader.LoadFile(params.DatasetPath)
	if err != nil {
		return nil, err
	}
	s.table = table
	return s, nil
}

// NewServiceFromTable wraps an already loaded table. Reload is unavailable on
// services built this way.
func NewServiceFromTable(table *dataset.Table, logg *logger.Logger, qm *metrics.QueryMetrics) Service {
	return &service{table: table, logg: logg, metrics: qm}
}

func (s *service) snapshot() *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

func (s *service) observe(query string, start time.Time, err error) {
	s.metrics.ObserveDuration(query, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(query)
		return
	}
	s.metrics.IncSuccess(query)
}

func (s *service) TopCategoryLastYear(ctx context.Context) (out *CategoryInsight, err error) {
	defer func(start time.Time) { s.observe("top-category", start, err) }(time.Now())

	rows := dataset.Derive(dataset.TrailingYear(s.snapshot()))
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldCategory},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldQuantity, Kind: aggregate.Sum}},
	})
	if err != nil {
		return nil, err
	}
	best, err := aggregate.ArgMaxSum(grouped, aggregate.FieldQuantity)
	if err != nil {
		return nil, err
	}
	return &CategoryInsight{
		Category:     best.Key(0),
		QuantitySold: best.Sums[aggregate.FieldQuantity].IntPart(),
	}, nil
}

func (s *service) TopCustomer(ctx context.Context) (out *CustomerInsight, err error) {
	defer func(start time.Time) { s.observe("top-customer", start, err) }(time.Now())

	grouped, err := s.revenueByCustomer()
	if err != nil {
		return nil, err
	}
	best, err := aggregate.ArgMaxSum(grouped, aggregate.FieldRevenue)
	if err != nil {
		return nil, err
	}
	return &CustomerInsight{
		CustomerID:   best.Key(0),
		TotalRevenue: best.Sums[aggregate.FieldRevenue],
	}, nil
}

func (s *service) AverageRevenuePerCustomer(ctx context.Context) (out *AverageRevenue, err error) {
	defer func(start time.Time) { s.observe("average-customer-revenue", start, err) }(time.Now())

	grouped, err := s.revenueByCustomer()
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyInput, "no customers in dataset")
	}

	total := 0.0
	for _, row := range grouped {
		total += row.Sums[aggregate.FieldRevenue].InexactFloat64()
	}
	return &AverageRevenue{
		Average:   total / float64(len(grouped)),
		Customers: len(grouped),
	}, nil
}

func (s *service) ProductMargins(ctx context.Context, limit int) (out *MarginReport, err error) {
	defer func(start time.Time) { s.observe("product-margins", start, err) }(time.Now())

	rows := dataset.Derive(s.snapshot())
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys: []string{aggregate.FieldProduct},
		Reductions: []aggregate.Reduction{
			{Field: aggregate.FieldRevenue, Kind: aggregate.Sum},
			{Field: aggregate.FieldProfit, Kind: aggregate.Sum},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyInput, "no products in dataset")
	}

	products := make([]ProductMargin, 0, len(grouped))
	for _, row := range grouped {
		revenue := row.Sums[aggregate.FieldRevenue]
		profit := row.Sums[aggregate.FieldProfit]
		margin := ProductMargin{
			Product: row.Key(0),
			Revenue: revenue,
			Profit:  profit,
		}
		// Zero revenue would divide by zero: the margin stays undefined and
		// the row sorts after every defined margin.
		if !revenue.IsZero() {
			margin.Margin = profit.InexactFloat64() / revenue.InexactFloat64()
			margin.Defined = true
		}
		products = append(products, margin)
	}

	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Defined != products[j].Defined {
			return products[i].Defined
		}
		return products[i].Margin > products[j].Margin
	})

	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return &MarginReport{Products: products}, nil
}

func (s *service) SeasonalSales(ctx context.Context) (out []MonthlySales, err error) {
	defer func(start time.Time) { s.observe("seasonality", start, err) }(time.Now())

	rows := dataset.Derive(s.snapshot())
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldMonth},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldRevenue, Kind: aggregate.Sum}},
	})
	if err != nil {
		return nil, err
	}

	sales := make([]MonthlySales, 0, len(grouped))
	for _, row := range grouped {
		month, err := strconv.Atoi(row.Key(0))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "month key not numeric")
		}
		sales = append(sales, MonthlySales{Month: month, Revenue: row.Sums[aggregate.FieldRevenue]})
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].Month < sales[j].Month })
	return sales, nil
}

func (s *service) QuarterSales(ctx context.Context) (out []QuarterSale, err error) {
	defer func(start time.Time) { s.observe("quarter-sales", start, err) }(time.Now())

	rows := dataset.Derive(dataset.TrailingQuarter(s.snapshot()))
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldSaleDate, aggregate.FieldCountry},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldRevenue, Kind: aggregate.Sum}},
	})
	if err != nil {
		return nil, err
	}

	sales := make([]QuarterSale, 0, len(grouped))
	for _, row := range grouped {
		sales = append(sales, QuarterSale{
			SaleDate: row.Key(0),
			Country:  row.Key(1),
			Revenue:  row.Sums[aggregate.FieldRevenue],
		})
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].SaleDate != sales[j].SaleDate {
			return sales[i].SaleDate < sales[j].SaleDate
		}
		return sales[i].Country < sales[j].Country
	})
	return sales, nil
}

func (s *service) MultiCategoryCustomers(ctx context.Context) (out *MultiCategoryResult, err error) {
	defer func(start time.Time) { s.observe("multi-category-customers", start, err) }(time.Now())

	rows := dataset.Derive(s.snapshot())
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldCustomerID},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldCategory, Kind: aggregate.DistinctCount}},
	})
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyInput, "no customers in dataset")
	}

	count := 0
	for _, row := range grouped {
		if row.Distinct[aggregate.FieldCategory] > 2 {
			count++
		}
	}
	return &MultiCategoryResult{
		Customers:      count,
		TotalCustomers: len(grouped),
		Percentage:     100 * float64(count) / float64(len(grouped)),
	}, nil
}

func (s *service) CustomerTiers(ctx context.Context) (out *TierReport, err error) {
	defer func(start time.Time) { s.observe("customer-tiers", start, err) }(time.Now())

	grouped, err := s.revenueByCustomer()
	if err != nil {
		return nil, err
	}

	revenues := make([]float64, len(grouped))
	for i, row := range grouped {
		revenues[i] = row.Sums[aggregate.FieldRevenue].InexactFloat64()
	}

	p33, err := classify.Quantile(revenues, 0.33)
	if err != nil {
		return nil, err
	}
	p66, err := classify.Quantile(revenues, 0.66)
	if err != nil {
		return nil, err
	}

	thresholds := classify.Thresholds{P33: p33, P66: p66}
	customers := make([]CustomerTier, len(grouped))
	for i, row := range grouped {
		customers[i] = CustomerTier{
			CustomerID:   row.Key(0),
			TotalRevenue: row.Sums[aggregate.FieldRevenue],
			Tier:         classify.Assign(revenues[i], thresholds),
		}
	}
	return &TierReport{P33: p33, P66: p66, Customers: customers}, nil
}

func (s *service) ProductSales(ctx context.Context) (out []ProductSales, err error) {
	defer func(start time.Time) { s.observe("product-sales", start, err) }(time.Now())

	rows := dataset.Derive(s.snapshot())
	grouped, err := aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldProduct},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldRevenue, Kind: aggregate.Sum}},
	})
	if err != nil {
		return nil, err
	}
	grouped, err = aggregate.SortBySumDesc(grouped, aggregate.FieldRevenue)
	if err != nil {
		return nil, err
	}

	sales := make([]ProductSales, 0, len(grouped))
	for _, row := range grouped {
		sales = append(sales, ProductSales{Product: row.Key(0), TotalRevenue: row.Sums[aggregate.FieldRevenue]})
	}
	return sales, nil
}

func (s *service) CustomerSales(ctx context.Context) (out []CustomerSales, err error) {
	defer func(start time.Time) { s.observe("customer-sales", start, err) }(time.Now())

	grouped, err := s.revenueByCustomer()
	if err != nil {
		return nil, err
	}
	grouped, err = aggregate.SortBySumDesc(grouped, aggregate.FieldRevenue)
	if err != nil {
		return nil, err
	}
	sales := make([]CustomerSales, 0, len(grouped))
	for _, row := range grouped {
		sales = append(sales, CustomerSales{CustomerID: row.Key(0), TotalRevenue: row.Sums[aggregate.FieldRevenue]})
	}
	return sales, nil
}

func (s *service) Summary(ctx context.Context) (*DatasetSummary, error) {
	return summarize(s.snapshot()), nil
}

func (s *service) Reload(ctx context.Context) (*DatasetSummary, error) {
	if s.loader == nil || s.path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service has no dataset source to reload")
	}

	table, err := s.loader.LoadFile(s.path)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithDataset(ctx, s.path), "dataset reload failed", err)
		}
		return nil, err
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	if s.logg != nil {
		ctx := s.logg.WithDataset(ctx, s.path)
		ctx = s.logg.WithField(ctx, "rows", table.Len())
		s.logg.Info(ctx, "dataset reloaded")
	}
	return summarize(table), nil
}

func (s *service) revenueByCustomer() ([]aggregate.Row, error) {
	rows := dataset.Derive(s.snapshot())
	return aggregate.Apply(rows, aggregate.Spec{
		GroupKeys:  []string{aggregate.FieldCustomerID},
		Reductions: []aggregate.Reduction{{Field: aggregate.FieldRevenue, Kind: aggregate.Sum}},
	})
}

func summarize(table *dataset.Table) *DatasetSummary {
	summary := &DatasetSummary{Rows: table.Len()}

	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, row := range table.Rows() {
		customers[row.CustomerID] = struct{}{}
		products[row.Product] = struct{}{}
		categories[row.Category] = struct{}{}

		day := row.SaleDate.Format(dataset.DefaultDateLayout)
		if summary.FirstSale == "" || day < summary.FirstSale {
			summary.FirstSale = day
		}
		if day > summary.LastSale {
			summary.LastSale = day
		}
	}
	summary.Customers = len(customers)
	summary.Products = len(products)
	summary.Categories = len(categories)
	return summary
}
