package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	redisstore "github.com/MrSnakeDoc/therawatch/internal/store/redis"
)

const (
	defaultAlertsLimit = 20
	maxAlertsLimit     = 200
)

type alertsResponse struct {
	Alerts []redisstore.AlertRecord `json:"alerts"`
}

// Alerts returns the most recent delivered alerts from Redis.
func Alerts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			http.Error(w, "alert history disabled (no redis configured)", http.StatusNotFound)
			return
		}

		limit := int64(defaultAlertsLimit)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxAlertsLimit)
		}

		recs, err := d.History.RecentAlerts(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("failed to read alert history", logger.Error(err))
			http.Error(w, "alert history unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, alertsResponse{Alerts: recs})
	}
}
