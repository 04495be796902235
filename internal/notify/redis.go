package notify

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	store "github.com/MrSnakeDoc/therawatch/internal/store/redis"
)

// AlertPublisher is the part of the Redis store the sink needs.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, rec store.AlertRecord) error
}

// RedisSink records delivered alerts in the Redis alert stream.
type RedisSink struct {
	pub AlertPublisher
}

func NewRedisSink(pub AlertPublisher) *RedisSink {
	return &RedisSink{pub: pub}
}

func (s *RedisSink) Deliver(ctx context.Context, evt domain.AlertEvent) error {
	if err := s.pub.PublishAlert(ctx, store.RecordFromEvent(evt)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}
