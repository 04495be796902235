package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
)

type connectionView struct {
	ID             string    `json:"id"`
	TheraSignature string    `json:"thera_signature"`
	ExitSignature  string    `json:"exit_signature"`
	ExitSystemID   int64     `json:"exit_system_id"`
	ExitSystem     string    `json:"exit_system"`
	ExitRegion     string    `json:"exit_region,omitempty"`
	Security       string    `json:"security,omitempty"`
	WormholeType   string    `json:"wormhole_type,omitempty"`
	Size           string    `json:"size"`
	ExpiresAt      time.Time `json:"expires_at,omitzero"`
	Lifetime       string    `json:"lifetime"`
}

type connectionsResponse struct {
	Total       int              `json:"total"`
	Connections []connectionView `json:"connections"`
}

// Connections lists the last feed snapshot. ?limit= caps the list.
func Connections(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conns := d.Monitor.Connections()
		now := d.Now()

		limit := len(conns)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, len(conns))
		}

		views := make([]connectionView, 0, limit)
		for _, c := range conns[:limit] {
			views = append(views, connectionView{
				ID:             c.ID,
				TheraSignature: c.TheraSignature,
				ExitSignature:  c.ExitSignature,
				ExitSystemID:   c.ExitSystemID,
				ExitSystem:     c.ExitSystemName,
				ExitRegion:     c.ExitRegion,
				Security:       c.SecurityClass,
				WormholeType:   c.WormholeType,
				Size:           c.Size.String(),
				ExpiresAt:      c.ExpiresAt,
				Lifetime:       c.LifetimeStatus(now),
			})
		}

		writeJSON(w, http.StatusOK, connectionsResponse{Total: len(conns), Connections: views})
	}
}
