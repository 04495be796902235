package notify

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

// Sink delivers one alert. A nil error means the alert reached its
// channel and the pair may be marked as alerted.
type Sink interface {
	Deliver(ctx context.Context, evt domain.AlertEvent) error
}

// Nop accepts every alert. Useful in tests and dry runs.
type Nop struct{}

func (Nop) Deliver(context.Context, domain.AlertEvent) error { return nil }

// Fanout sends to a primary sink and, once it succeeded, to mirrors.
// Only the primary decides the outcome; mirror failures are logged.
type Fanout struct {
	primary Sink
	mirrors []Sink
	log     logger.Logger
}

func NewFanout(log logger.Logger, primary Sink, mirrors ...Sink) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, log: log}
}

func (f *Fanout) Deliver(ctx context.Context, evt domain.AlertEvent) error {
	if err := f.primary.Deliver(ctx, evt); err != nil {
		return err
	}
	for _, m := range f.mirrors {
		if err := m.Deliver(ctx, evt); err != nil {
			f.log.Warn("alert mirror failed",
				logger.String("sink", fmt.Sprintf("%T", m)),
				logger.String("connection", evt.Connection.ID),
				logger.String("destination", evt.Destination.Name),
				logger.Error(err),
			)
		}
	}
	return nil
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, evt domain.AlertEvent) error {
	s.log.Info("route alert",
		logger.String("alert_id", evt.ID),
		logger.String("origin", evt.Origin.Name),
		logger.String("destination", evt.Destination.Name),
		logger.String("connection", evt.Connection.ID),
		logger.String("exit", evt.Connection.ExitSystemName),
		logger.String("thera_sig", evt.Connection.TheraSignature),
		logger.String("exit_sig", evt.Connection.ExitSignature),
		logger.String("size", evt.Connection.Size.String()),
		logger.Int("jumps_to_exit", evt.Route.JumpsOriginToExit),
		logger.Int("jumps_to_destination", evt.Route.JumpsExitToDestination),
		logger.Int("total", evt.Route.Total),
		logger.Duration("remaining", evt.Remaining),
	)
	return nil
}
