package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/mw"
)

func init() { Register(registerCheck) }

func registerCheck(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.CheckBurst,
			RefillPerIPPerMin: d.CheckRefillPerMin,
			MaxEntries:        4096,
			IdleTTL:           30 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	).Post("/check", handlers.Check(d))
}
