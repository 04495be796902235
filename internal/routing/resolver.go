package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

// Oracle is anything that can count jumps between two systems.
// It must return domain.ErrNoRoute when no path exists.
type Oracle interface {
	Jumps(ctx context.Context, from, to int64, pref domain.RoutePreference) (int, error)
}

const (
	DefaultAttempts    = 3
	DefaultCallTimeout = 10 * time.Second
	DefaultParallelism = 5
)

type Options struct {
	Attempts    int
	CallTimeout time.Duration
	Parallelism int
}

// Resolver holds the long-lived routing settings. It never caches
// answers; every cycle opens its own Session.
type Resolver struct {
	oracle Oracle
	log    logger.Logger
	opts   Options

	// onFailure is called once per lookup that exhausted its attempts.
	onFailure func()
}

func NewResolver(oracle Oracle, log logger.Logger, opts Options) *Resolver {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	return &Resolver{oracle: oracle, log: log, opts: opts, onFailure: func() {}}
}

// OnFailure registers a hook counting oracle lookups that gave up.
func (r *Resolver) OnFailure(fn func()) {
	if fn != nil {
		r.onFailure = fn
	}
}

// NewSession opens a memo scoped to one poll cycle.
func (r *Resolver) NewSession() *Session {
	return &Session{
		r:    r,
		memo: make(map[pairKey]domain.Leg),
	}
}

type pairKey struct {
	from, to int64
}

// Session memoizes (from, to) lookups for one cycle. Safe for
// concurrent use; concurrent lookups of the same pair share one call.
type Session struct {
	r *Resolver

	mu   sync.Mutex
	memo map[pairKey]domain.Leg
	sf   singleflight.Group

	calls int
}

// Resolve returns the leg from -> to. Transient errors are retried up to
// the configured attempts; no-route answers are final. A leg that could
// not be resolved is unreachable.
func (s *Session) Resolve(ctx context.Context, from, to int64, pref domain.RoutePreference) domain.Leg {
	key := pairKey{from: from, to: to}

	s.mu.Lock()
	if leg, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return leg
	}
	s.mu.Unlock()

	v, _, _ := s.sf.Do(fmt.Sprintf("%d:%d", from, to), func() (any, error) {
		s.mu.Lock()
		if leg, ok := s.memo[key]; ok {
			s.mu.Unlock()
			return leg, nil
		}
		s.mu.Unlock()

		leg := s.lookup(ctx, from, to, pref)
		s.mu.Lock()
		s.memo[key] = leg
		s.mu.Unlock()
		return leg, nil
	})
	return v.(domain.Leg)
}

func (s *Session) lookup(ctx context.Context, from, to int64, pref domain.RoutePreference) domain.Leg {
	var lastErr error
	for attempt := 1; attempt <= s.r.opts.Attempts; attempt++ {
		s.mu.Lock()
		s.calls++
		s.mu.Unlock()

		callCtx, cancel := context.WithTimeout(ctx, s.r.opts.CallTimeout)
		jumps, err := s.r.oracle.Jumps(callCtx, from, to, pref)
		cancel()

		if err == nil {
			return domain.Leg{Jumps: jumps, Reachable: true}
		}
		if errors.Is(err, domain.ErrNoRoute) {
			return domain.Leg{}
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	s.r.log.Warn("route lookup failed",
		logger.Int64("from", from),
		logger.Int64("to", to),
		logger.Int("attempts", s.r.opts.Attempts),
		logger.Error(lastErr),
	)
	s.r.onFailure()
	return domain.Leg{}
}

// Calls is the number of oracle calls made so far, retries included.
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Request is one two-leg route to resolve: departure -> exit -> destination.
// Every departure in Origins is tried for the first leg.
type Request struct {
	Origins     []int64
	Exit        int64
	Destination int64
}

// Result is a resolved request through its closest departure.
type Result struct {
	domain.RouteResult

	// Origin indexes Request.Origins; -1 when no departure reaches the exit.
	Origin int
}

// ResolveAll resolves every request with bounded parallelism and returns
// the results in request order.
//
// The first leg is the shortest over all departures, earlier departures
// winning ties. The second leg is skipped when no departure reaches the exit.
func (s *Session) ResolveAll(ctx context.Context, reqs []Request, pref domain.RoutePreference) []Result {
	out := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.r.opts.Parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			best, toExit := -1, domain.Leg{}
			for j, origin := range req.Origins {
				leg := s.Resolve(gctx, origin, req.Exit, pref)
				if leg.Reachable && (best < 0 || leg.Jumps < toExit.Jumps) {
					best, toExit = j, leg
				}
			}
			if best < 0 {
				out[i] = Result{RouteResult: domain.RouteResult{Unreachable: true}, Origin: -1}
				return nil
			}
			toDest := s.Resolve(gctx, req.Exit, req.Destination, pref)
			out[i] = Result{RouteResult: domain.CombineLegs(toExit, toDest), Origin: best}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
