package handlers

import (
	"net/http"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// AnalyticsHandler serves the engagement dashboard
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	errors    *pkgerrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService, errorHandler *pkgerrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, errors: errorHandler}
}

// Performance handles GET /api/v1/analytics/performance
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.analytics.Performance(r.Context(), userID))
}

// Insights handles GET /api/v1/analytics/insights
func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.analytics.Insights(r.Context(), userID))
}
