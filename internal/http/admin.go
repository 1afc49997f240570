package httpapi

import (
	"net/http"

	"coursehub-backend-go/internal/services"
)

func (s *Server) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := services.BuildAnalytics(r.Context(), s.Store, s.Visits)
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch analytics")
		return
	}
	WriteJSON(w, http.StatusOK, AnalyticsResponse{Success: true, Analytics: analytics})
}

func (s *Server) AdminRecentVisits(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	if limit > 500 {
		limit = 500
	}
	WriteJSON(w, http.StatusOK, VisitsResponse{Success: true, Visits: s.Visits.Recent(limit)})
}
