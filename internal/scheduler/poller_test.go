package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

type countingRunner struct {
	mu       sync.Mutex
	calls    int
	active   atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
	started  chan struct{}
	ctxAlive []bool
}

func (r *countingRunner) RunCycle(ctx context.Context, _ time.Time) engine.Report {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)

	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	time.Sleep(r.delay)

	r.mu.Lock()
	r.calls++
	r.ctxAlive = append(r.ctxAlive, ctx.Err() == nil)
	r.mu.Unlock()
	return engine.Report{}
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestPoller_StartupAndManualTrigger(t *testing.T) {
	runner := &countingRunner{}
	trigger := make(chan struct{}, 1)
	p := NewPoller(runner, logger.NewNop(), time.Hour, trigger)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	trigger <- struct{}{}
	require.Eventually(t, func() bool { return runner.count() == 2 }, time.Second, 5*time.Millisecond)

	p.Stop()
}

func TestPoller_Ticks(t *testing.T) {
	runner := &countingRunner{}
	p := NewPoller(runner, logger.NewNop(), 20*time.Millisecond, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return runner.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	assert.False(t, runner.overlap.Load(), "cycles must not overlap")
}

func TestPoller_StopWaitsForRunningCycle(t *testing.T) {
	runner := &countingRunner{delay: 100 * time.Millisecond, started: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(runner, logger.NewNop(), time.Hour, nil)

	p.Start(ctx)
	<-runner.started

	// Cancelling the parent must not cancel the running cycle.
	cancel()
	p.Stop()

	assert.Equal(t, 1, runner.count())
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []bool{true}, runner.ctxAlive)
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := NewPoller(&countingRunner{}, logger.NewNop(), time.Hour, nil)
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
