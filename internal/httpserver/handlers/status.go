package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type originView struct {
	Name     string `json:"name"`
	SystemID int64  `json:"system_id"`
}

type destinationView struct {
	Name     string `json:"name"`
	SystemID int64  `json:"system_id"`
	MaxJumps int    `json:"max_jumps"`
	Alerts   *int64 `json:"alerts_delivered,omitempty"`
}

type statusResponse struct {
	Mode            string                     `json:"mode"`
	Departures      []originView               `json:"departures"`
	HubSystemID     int64                      `json:"hub_system_id"`
	Destinations    []destinationView          `json:"destinations"`
	MinWormholeSize string                     `json:"min_wormhole_size"`
	CooldownSeconds int64                      `json:"cooldown_seconds"`
	RoutePreference string                     `json:"route_preference"`
	PollInterval    string                     `json:"poll_interval"`
	TrackedPairs    int                        `json:"tracked_pairs"`
	LastCycle       *engine.Report             `json:"last_cycle,omitempty"`
	Components      map[string]componentStatus `json:"components"`
}

// Status shows the watchlist in force, cooldown state and the last cycle.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		crit := d.Monitor.Criteria()

		var hits map[string]int64
		if d.History != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			hits, _ = d.History.DestinationHits(ctx)
			cancel()
		}

		dests := make([]destinationView, 0, len(crit.Destinations))
		for _, dest := range crit.Destinations {
			v := destinationView{Name: dest.Name, SystemID: dest.SystemID, MaxJumps: dest.MaxJumps}
			if n, ok := hits[dest.Name]; ok {
				v.Alerts = &n
			}
			dests = append(dests, v)
		}

		origins := make([]originView, 0, len(crit.Origins))
		for _, o := range crit.Origins {
			origins = append(origins, originView{Name: o.Name, SystemID: o.SystemID})
		}

		resp := statusResponse{
			Departures:      origins,
			HubSystemID:     d.HubSystemID,
			Destinations:    dests,
			MinWormholeSize: crit.MinSize.String(),
			CooldownSeconds: int64(crit.Cooldown / time.Second),
			RoutePreference: crit.Preference.String(),
			PollInterval:    d.PollInterval.String(),
			TrackedPairs:    d.Monitor.TrackedPairs(),
		}
		if rep, ok := d.Monitor.LastReport(); ok {
			resp.LastCycle = &rep
		}

		resp.Components = map[string]componentStatus{
			"feed":    feedStatus(resp.LastCycle),
			"redis":   checkRedis(r.Context(), d),
			"discord": discordStatus(d),
		}
		resp.Mode = determineMode(resp.Components)

		writeJSON(w, http.StatusOK, resp)
	}
}

func feedStatus(rep *engine.Report) componentStatus {
	switch {
	case rep == nil:
		return componentStatus{OK: false, Mode: "pending", Impact: "no-alerts-yet"}
	case rep.FeedError != "":
		return componentStatus{OK: false, Mode: "failing", Impact: "no-alerts", Error: rep.FeedError}
	default:
		return componentStatus{OK: true, Mode: "live"}
	}
}

func discordStatus(d deps.Deps) componentStatus {
	if d.DryRun {
		return componentStatus{OK: true, Mode: "dry-run", Impact: "alerts-logged-only"}
	}
	return componentStatus{OK: true, Mode: "webhook"}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.History == nil {
		return componentStatus{OK: true, Mode: "disabled", Impact: "no-alert-history"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.History.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Impact: "alert-history-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func determineMode(components map[string]componentStatus) string {
	if feed, ok := components["feed"]; ok && !feed.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "healthy"
}
