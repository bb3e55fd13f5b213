package controllers

import (
	"net/http"

	"github.com/angelmondragon/ventas-insights/api/responses"
	"github.com/angelmondragon/ventas-insights/internal/insights"
	"github.com/angelmondragon/ventas-insights/pkg/logger"
)

func DatasetSummary(svc insights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// DatasetReload re-reads the source CSV and atomically swaps the snapshot.
// In-flight queries keep the snapshot they started with.
func DatasetReload(svc insights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Reload(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
