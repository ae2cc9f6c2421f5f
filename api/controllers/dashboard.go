package controllers

import (
	"net/http"

	"github.com/angelmondragon/wholesalehub-backend/api/responses"
	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
)

// WholesalerOverview returns order counts, revenue and low-stock products.
func WholesalerOverview(svc orders.DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.WholesalerOverview(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

// RetailerOverview returns the retailer's order count and most recent orders.
func RetailerOverview(svc orders.DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.RetailerOverview(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
