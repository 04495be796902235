package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/mw"
)

func init() { Register(registerStatus) }

func registerStatus(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/status", handlers.Status(d))
		r.Get("/connections", handlers.Connections(d))
		r.Get("/alerts", handlers.Alerts(d))
		r.Get("/metrics", handlers.Metrics(d))
	})
}
