package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/ventas-insights/api/controllers"
	"github.com/angelmondragon/ventas-insights/api/middleware"
	"github.com/angelmondragon/ventas-insights/internal/insights"
	"github.com/angelmondragon/ventas-insights/pkg/config"
	"github.com/angelmondragon/ventas-insights/pkg/logger"
)

// NewRouter wires the full HTTP surface: health probes, Prometheus metrics,
// the insight queries and the dataset management endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svc insights.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/insights", func(r chi.Router) {
		r.Get("/top-category", controllers.TopCategory(svc, logg))
		r.Get("/top-customer", controllers.TopCustomer(svc, logg))
		r.Get("/average-customer-revenue", controllers.AverageCustomerRevenue(svc, logg))
		r.Get("/product-margins", controllers.ProductMargins(svc, cfg, logg))
		r.Get("/seasonality", controllers.Seasonality(svc, logg))
		r.Get("/quarter-sales", controllers.QuarterSales(svc, logg))
		r.Get("/multi-category-customers", controllers.MultiCategoryCustomers(svc, logg))
		r.Get("/customer-tiers", controllers.CustomerTiers(svc, logg))
		r.Get("/product-sales", controllers.ProductSales(svc, logg))
		r.Get("/customer-sales", controllers.CustomerSales(svc, logg))
	})

	r.Route("/api/v1/dataset", func(r chi.Router) {
		r.Get("/summary", controllers.DatasetSummary(svc, logg))
		r.Post("/reload", controllers.DatasetReload(svc, logg))
	})

	return r
}
