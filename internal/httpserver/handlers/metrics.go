package handlers

import (
	"bytes"
	"net/http"

	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	"github.com/MrSnakeDoc/therawatch/internal/metrics"
)

// Metrics renders the poller counters in the Prometheus text format.
func Metrics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := d.Metrics.WriteTo(&buf); err != nil {
			d.Logger.Error("failed to render metrics", logger.Error(err))
			http.Error(w, "metrics unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", metrics.ContentType)
		_, _ = w.Write(buf.Bytes())
	}
}
