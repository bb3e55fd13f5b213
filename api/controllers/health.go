package controllers

import (
	"net/http"

	"github.com/angelmondragon/ventas-insights/api/responses"
	"github.com/angelmondragon/ventas-insights/internal/insights"
	"github.com/angelmondragon/ventas-insights/pkg/config"
	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
	"github.com/angelmondragon/ventas-insights/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ventas-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when a dataset snapshot is loaded and
// non-empty. A service that failed its load never reaches this handler, but
// an empty CSV can.
func HealthReady(cfg *config.Config, logg *logger.Logger, svc insights.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ventas-Env", cfg.App.Env)

		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if summary.Rows == 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeEmptyInput, "dataset is empty"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "rows": summary.Rows})
	}
}
