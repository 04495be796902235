package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	"github.com/MrSnakeDoc/therawatch/internal/metrics"
	redisstore "github.com/MrSnakeDoc/therawatch/internal/store/redis"
)

// Monitor is the read side of the engine.
type Monitor interface {
	LastReport() (engine.Report, bool)
	Connections() []domain.Connection
	TrackedPairs() int
	Criteria() domain.Criteria
}

// AlertHistory is the read side of the Redis store.
type AlertHistory interface {
	RecentAlerts(ctx context.Context, n int64) ([]redisstore.AlertRecord, error)
	DestinationHits(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the control endpoints
	AllowedCIDRS []string         // IPs allowed to access the control endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	CheckBurst        int // POST /check bucket size per IP
	CheckRefillPerMin int // POST /check refill per IP per minute

	Monitor      Monitor          // engine state
	PollInterval time.Duration    // for /status
	HubSystemID  int64            // for /status
	DryRun       bool             // alerts go to the log only
	Metrics      *metrics.Metrics // rendered on /metrics
	History      AlertHistory     // nil when Redis is disabled
	CheckTrigger chan struct{}    // manual check, buffered 1, read by the poller
}

func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
