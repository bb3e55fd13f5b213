package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/ventas-insights/internal/insights"
	"github.com/angelmondragon/ventas-insights/internal/insights/dataset"
	"github.com/angelmondragon/ventas-insights/pkg/env"
	"github.com/angelmondragon/ventas-insights/pkg/logger"
)

// report prints every insight over a sales CSV in one shot. It is the batch
// counterpart of the API server, meant for cron jobs and quick local checks.
func main() {
	logg := logger.New(logger.Options{ServiceName: "report"})

	_ = godotenv.Load()

	var (
		path       = flag.String("dataset", env.Get("VENTAS_DATASET_PATH", ""), "path to the sales CSV")
		dateFormat = flag.String("date-format", env.Get("VENTAS_DATASET_DATE_FORMAT", dataset.DefaultDateLayout), "Go reference layout for the sale date column")
		marginTop  = flag.Int("margins", 10, "how many products to list in the margin ranking")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: report -dataset <file.csv> [-date-format <layout>] [-margins <n>]")
		os.Exit(2)
	}

	ctx := context.Background()
	svc, err := insights.NewService(insights.Params{
		DatasetPath: *path,
		DateLayout:  *dateFormat,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(logg.WithDataset(ctx, *path), "failed to load dataset", err)
		os.Exit(1)
	}

	if err := printReport(ctx, svc, *marginTop); err != nil {
		logg.Error(ctx, "report failed", err)
		os.Exit(1)
	}
}

func printReport(ctx context.Context, svc insights.Service, marginTop int) error {
	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Dataset: %d rows, %d customers, %d products, %d categories (%s .. %s)\n\n",
		summary.Rows, summary.Customers, summary.Products, summary.Categories,
		summary.FirstSale, summary.LastSale)

	category, err := svc.TopCategoryLastYear(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Top category (trailing year): %s with %d units sold\n", category.Category, category.QuantitySold)

	customer, err := svc.TopCustomer(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Top customer: %s with total revenue %s\n", customer.CustomerID, customer.TotalRevenue)

	avg, err := svc.AverageRevenuePerCustomer(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Average revenue per customer: %.2f across %d customers\n\n", avg.Average, avg.Customers)

	margins, err := svc.ProductMargins(ctx, marginTop)
	if err != nil {
		return err
	}
	fmt.Println("Profit margin ranking:")
	for i, product := range margins.Products {
		if !product.Defined {
			fmt.Printf("  %2d. %-20s revenue %-10s margin undefined (zero revenue)\n", i+1, product.Product, product.Revenue)
			continue
		}
		fmt.Printf("  %2d. %-20s revenue %-10s margin %.2f%%\n", i+1, product.Product, product.Revenue, 100*product.Margin)
	}
	fmt.Println()

	seasonal, err := svc.SeasonalSales(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Revenue by calendar month:")
	for _, month := range seasonal {
		fmt.Printf("  month %2d: %s\n", month.Month, month.Revenue)
	}
	fmt.Println()

	quarter, err := svc.QuarterSales(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Trailing quarter sales by day and country:")
	for _, sale := range quarter {
		fmt.Printf("  %s %-4s %s\n", sale.SaleDate, sale.Country, sale.Revenue)
	}
	fmt.Println()

	multi, err := svc.MultiCategoryCustomers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Customers buying in more than two categories: %d of %d (%.1f%%)\n\n",
		multi.Customers, multi.TotalCustomers, multi.Percentage)

	tiers, err := svc.CustomerTiers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Customer tiers (p33=%.2f, p66=%.2f):\n", tiers.P33, tiers.P66)
	for _, tier := range tiers.Customers {
		fmt.Printf("  %-12s %-10s revenue %s\n", tier.CustomerID, tier.Tier, tier.TotalRevenue)
	}
	return nil
}
