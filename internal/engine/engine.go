package engine

import (
	"context"
	"crypto/rand"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/therawatch/internal/cooldown"
	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	"github.com/MrSnakeDoc/therawatch/internal/metrics"
	"github.com/MrSnakeDoc/therawatch/internal/notify"
	"github.com/MrSnakeDoc/therawatch/internal/routing"
)

// ConnectionSource yields the normalized hub connections of one feed snapshot.
type ConnectionSource interface {
	Connections(ctx context.Context, now time.Time) ([]domain.Connection, error)
}

// CriteriaFunc returns the criteria in force. Called once per cycle.
type CriteriaFunc func() domain.Criteria

// Pair outcomes, also used as metric labels.
const (
	OutcomeRejected       = "rejected"
	OutcomeSuppressed     = "suppressed"
	OutcomeFired          = "fired"
	OutcomeDeliveryFailed = "delivery_failed"
)

// Report summarizes one cycle.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	FeedError string        `json:"feed_error,omitempty"`

	Connections int `json:"connections"`
	Skipped     int `json:"skipped"`
	Reaped      int `json:"reaped"`

	// Per-state pair counters.
	Seen           int `json:"seen"`
	Rejected       int `json:"rejected"`
	Admitted       int `json:"admitted"`
	Suppressed     int `json:"suppressed"`
	Fired          int `json:"fired"`
	DeliveryFailed int `json:"delivery_failed"`

	OracleCalls int `json:"oracle_calls"`

	// Events are the fired pairs. They carry untagged domain values, so
	// JSON callers flatten them (see redis.RecordFromEvent).
	Events []domain.AlertEvent `json:"-"`
}

type Options struct {
	Source   ConnectionSource
	Resolver *routing.Resolver
	Tracker  *cooldown.Tracker
	Sink     notify.Sink
	Criteria CriteriaFunc
	Metrics  *metrics.Metrics
	Logger   logger.Logger
}

// Engine evaluates connections against destinations and fires each
// qualifying pair once per cooldown window.
//
// RunCycle is not reentrant; the poller guarantees a single caller.
// The read accessors are safe from any goroutine.
type Engine struct {
	source   ConnectionSource
	resolver *routing.Resolver
	tracker  *cooldown.Tracker
	sink     notify.Sink
	criteria CriteriaFunc
	metrics  *metrics.Metrics
	log      logger.Logger
	entropy  io.Reader // monotonic ULID entropy, used only by RunCycle

	mu       sync.RWMutex
	last     Report
	hasLast  bool
	snapshot []domain.Connection
}

func New(opts Options) *Engine {
	if opts.Tracker == nil {
		opts.Tracker = cooldown.NewTracker()
	}
	if opts.Sink == nil {
		opts.Sink = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Engine{
		source:   opts.Source,
		resolver: opts.Resolver,
		tracker:  opts.Tracker,
		sink:     opts.Sink,
		criteria: opts.Criteria,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// RunCycle runs one full evaluation at now.
//
// A feed failure yields an empty report and leaves cooldown state as is.
// A route failure only rejects its own pair. A delivery failure leaves
// the pair unmarked so the next cycle retries it.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) Report {
	start := time.Now()
	crit := e.criteria()
	rep := Report{StartedAt: now}

	conns, err := e.source.Connections(ctx, now)
	if err != nil {
		e.log.Error("feed fetch failed, skipping cycle", logger.Error(err))
		rep.FeedError = err.Error()
		e.finish(&rep, start, nil)
		return rep
	}
	rep.Connections = len(conns)

	live := make(map[string]time.Time, len(conns))
	for _, c := range conns {
		live[c.ID] = c.ExpiresAt
	}
	rep.Reaped = e.tracker.Reap(live, now)

	candidates := make([]domain.Connection, 0, len(conns))
	for _, c := range conns {
		if c.Expired(now) || c.InWormholeSpace() {
			rep.Skipped++
			continue
		}
		candidates = append(candidates, c)
	}

	dests := crit.Destinations
	if len(candidates) == 0 || len(dests) == 0 || len(crit.Origins) == 0 {
		e.finish(&rep, start, conns)
		return rep
	}

	// Fan out the oracle work, then evaluate sequentially.
	session := e.resolver.NewSession()
	origins := crit.OriginIDs()
	reqs := make([]routing.Request, 0, len(candidates)*len(dests))
	for _, c := range candidates {
		for _, d := range dests {
			reqs = append(reqs, routing.Request{
				Origins:     origins,
				Exit:        c.ExitSystemID,
				Destination: d.SystemID,
			})
		}
	}
	routes := session.ResolveAll(ctx, reqs, crit.Preference)
	rep.OracleCalls = session.Calls()

	for i, res := range routes {
		conn := candidates[i/len(dests)]
		dest := dests[i%len(dests)]
		route := res.RouteResult
		rep.Seen++

		if !domain.Admits(conn, dest, route, crit.MinSize) {
			rep.Rejected++
			continue
		}
		rep.Admitted++

		if !e.tracker.ShouldAlert(conn.ID, dest.Name, now, crit.Cooldown) {
			rep.Suppressed++
			continue
		}

		evt := domain.AlertEvent{
			ID:          ulid.MustNew(ulid.Timestamp(now), e.entropy).String(),
			Origin:      crit.Origins[res.Origin],
			Connection:  conn,
			Destination: dest,
			Route:       route,
			Remaining:   conn.RemainingAt(now),
			EvaluatedAt: now,
		}
		if err := e.sink.Deliver(ctx, evt); err != nil {
			rep.DeliveryFailed++
			e.metrics.DeliveryFailure()
			e.log.Warn("alert delivery failed, will retry next cycle",
				logger.String("connection", conn.ID),
				logger.String("destination", dest.Name),
				logger.Error(err),
			)
			continue
		}

		e.tracker.MarkAlerted(conn.ID, dest.Name, now, conn.ExpiresAt)
		rep.Fired++
		rep.Events = append(rep.Events, evt)

		e.log.Info("route alert fired",
			logger.String("alert_id", evt.ID),
			logger.String("origin", evt.Origin.Name),
			logger.String("connection", conn.ID),
			logger.String("exit", conn.ExitSystemName),
			logger.String("destination", dest.Name),
			logger.Int("total_jumps", route.Total),
		)
	}

	e.finish(&rep, start, conns)
	return rep
}

// finish stamps the duration, records metrics and publishes the report.
// A nil snapshot keeps the previous one.
func (e *Engine) finish(rep *Report, start time.Time, snapshot []domain.Connection) {
	rep.Duration = time.Since(start)

	e.metrics.ObserveCycle(metrics.CycleObservation{
		Start:        rep.StartedAt,
		Duration:     rep.Duration,
		FeedFailed:   rep.FeedError != "",
		Connections:  rep.Connections,
		CooldownSize: e.tracker.Len(),
		Outcomes: map[string]int{
			OutcomeRejected:       rep.Rejected,
			OutcomeSuppressed:     rep.Suppressed,
			OutcomeFired:          rep.Fired,
			OutcomeDeliveryFailed: rep.DeliveryFailed,
		},
	})

	e.log.Info("cycle complete",
		logger.Int("connections", rep.Connections),
		logger.Int("skipped", rep.Skipped),
		logger.Int("seen", rep.Seen),
		logger.Int("rejected", rep.Rejected),
		logger.Int("suppressed", rep.Suppressed),
		logger.Int("fired", rep.Fired),
		logger.Int("reaped", rep.Reaped),
		logger.Duration("took", rep.Duration),
	)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = *rep
	e.hasLast = true
	if snapshot != nil {
		e.snapshot = snapshot
	}
}

// LastReport returns the most recent cycle report, if any cycle ran.
func (e *Engine) LastReport() (Report, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.hasLast
}

// Connections returns a copy of the last good feed snapshot.
func (e *Engine) Connections() []domain.Connection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.snapshot)
}

// TrackedPairs is the number of live cooldown entries.
func (e *Engine) TrackedPairs() int {
	return e.tracker.Len()
}

// Criteria returns the criteria the next cycle would use.
func (e *Engine) Criteria() domain.Criteria {
	return e.criteria()
}
