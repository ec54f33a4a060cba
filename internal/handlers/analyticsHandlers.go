package handlers

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/models"
	"storefront/internal/utils"
)

// StatsProvider is the read side of the admin dashboard.
type StatsProvider interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetUserGrowth(ctx context.Context, startDate, endDate time.Time) (map[string]int, error)
}

type AnalyticsHandlers struct {
	stats StatsProvider
}

func NewAnalyticsHandlers(stats StatsProvider) *AnalyticsHandlers {
	return &AnalyticsHandlers{stats: stats}
}

func (h *AnalyticsHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.DashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandlers) GetUserGrowth(w http.ResponseWriter, r *http.Request) {
	startDateStr := r.URL.Query().Get("startDate")
	endDateStr := r.URL.Query().Get("endDate")

	if startDateStr == "" || endDateStr == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "startDate and endDate are required query parameters")
		return
	}

	startDate, err := time.Parse(time.RFC3339, startDateStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid startDate format. Use RFC3339.")
		return
	}
	endDate, err := time.Parse(time.RFC3339, endDateStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid endDate format. Use RFC3339.")
		return
	}
	if endDate.Before(startDate) {
		utils.RespondWithError(w, http.StatusBadRequest, "endDate must not be before startDate")
		return
	}

	userGrowth, err := h.stats.GetUserGrowth(r.Context(), startDate, endDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, userGrowth)
}
