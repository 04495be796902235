package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

// CycleRunner runs one evaluation cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) engine.Report
}

// Poller owns the only goroutine that runs cycles. Ticks and manual
// triggers share one select loop, so cycles never overlap.
type Poller struct {
	runner        CycleRunner
	logger        logger.Logger
	interval      time.Duration
	manualTrigger <-chan struct{}
	now           func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewPoller creates a poller. manualTrigger may be nil.
func NewPoller(
	runner CycleRunner,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *Poller {
	return &Poller{
		runner:        runner,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start runs a first cycle right away, then one per interval.
//
// Cycles run on a context detached from ctx's cancellation: shutdown
// lets the running cycle finish instead of leaving it half-marked.
func (p *Poller) Start(ctx context.Context) {
	cycleCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(p.done)

		p.runOnce(cycleCtx, "startup")

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.runOnce(cycleCtx, "tick")
			case <-p.manualTrigger:
				p.logger.Info("manual check triggered")
				p.runOnce(cycleCtx, "manual")
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Poller) runOnce(ctx context.Context, reason string) {
	select {
	case <-p.stopCh:
		return
	default:
	}
	rep := p.runner.RunCycle(ctx, p.now())
	p.logger.Debug("cycle finished",
		logger.String("reason", reason),
		logger.Int("fired", rep.Fired),
		logger.Duration("took", rep.Duration))
}

// Stop ends the loop and waits for a running cycle to complete.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}
