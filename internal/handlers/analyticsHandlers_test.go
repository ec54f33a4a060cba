package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

type stubStats struct {
	from, to time.Time
}

func (s *stubStats) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{TotalUsers: 3}, nil
}

func (s *stubStats) GetUserGrowth(ctx context.Context, startDate, endDate time.Time) (map[string]int, error) {
	s.from, s.to = startDate, endDate
	return map[string]int{"new_users": 2}, nil
}

func TestGetUserGrowth(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"bad start", "?startDate=yesterday&endDate=2024-03-01T00:00:00Z", http.StatusBadRequest},
		{"reversed", "?startDate=2024-03-02T00:00:00Z&endDate=2024-03-01T00:00:00Z", http.StatusBadRequest},
		{"ok", "?startDate=2024-02-01T00:00:00Z&endDate=2024-03-01T00:00:00Z", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &stubStats{}
			h := NewAnalyticsHandlers(stats)
			rr := httptest.NewRecorder()
			h.GetUserGrowth(rr, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), stats.from)
				assert.EqualValues(t, 2, decodeBody(t, rr)["new_users"])
			}
		})
	}
}
