package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

// AlertRecord is the stored form of a delivered alert.
type AlertRecord struct {
	StreamID       string    `json:"stream_id,omitempty"`
	AlertID        string    `json:"alert_id"`
	ConnectionID   string    `json:"connection_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	ExitSystem     string    `json:"exit_system"`
	ExitRegion     string    `json:"exit_region,omitempty"`
	TheraSignature string    `json:"thera_signature"`
	ExitSignature  string    `json:"exit_signature"`
	WormholeType   string    `json:"wormhole_type,omitempty"`
	Size           string    `json:"size"`
	JumpsToExit    int       `json:"jumps_to_exit"`
	JumpsToDest    int       `json:"jumps_to_destination"`
	TotalJumps     int       `json:"total_jumps"`
	RemainingHours float64   `json:"remaining_hours"`
	AlertedAt      time.Time `json:"alerted_at"`
}

// RecordFromEvent flattens an alert event for storage.
func RecordFromEvent(evt domain.AlertEvent) AlertRecord {
	c := evt.Connection
	return AlertRecord{
		AlertID:        evt.ID,
		ConnectionID:   c.ID,
		Origin:         evt.Origin.Name,
		Destination:    evt.Destination.Name,
		ExitSystem:     c.ExitSystemName,
		ExitRegion:     c.ExitRegion,
		TheraSignature: c.TheraSignature,
		ExitSignature:  c.ExitSignature,
		WormholeType:   c.WormholeType,
		Size:           c.Size.String(),
		JumpsToExit:    evt.Route.JumpsOriginToExit,
		JumpsToDest:    evt.Route.JumpsExitToDestination,
		TotalJumps:     evt.Route.Total,
		RemainingHours: evt.Remaining.Hours(),
		AlertedAt:      evt.EvaluatedAt.UTC(),
	}
}

// Store keeps the alert history in Redis.
type Store struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewStore creates a new Redis store. maxLen <= 0 uses DefaultStreamMaxLen.
func NewStore(client *redis.Client, prefix string, maxLen int64) *Store {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &Store{
		client: client,
		prefix: prefix,
		maxLen: maxLen,
	}
}

// PublishAlert appends the alert to the capped stream and bumps the
// destination counter in one pipeline.
func (s *Store) PublishAlert(ctx context.Context, rec AlertRecord) error {
	values, err := streamValues(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: AlertStreamKey(s.prefix),
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	})
	pipe.HIncrBy(ctx, DestinationHitsKey(s.prefix), rec.Destination, 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to n alerts, newest first.
func (s *Store) RecentAlerts(ctx context.Context, n int64) ([]AlertRecord, error) {
	msgs, err := s.client.XRevRangeN(ctx, AlertStreamKey(s.prefix), "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}

	out := make([]AlertRecord, 0, len(msgs))
	for _, m := range msgs {
		rec, err := recordFromMessage(m)
		if err != nil {
			// Skip entries written by an incompatible version
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func streamValues(rec AlertRecord) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert: %w", err)
	}
	return map[string]any{
		"connection":  rec.ConnectionID,
		"destination": rec.Destination,
		"total":       rec.TotalJumps,
		"data":        string(data),
	}, nil
}

func recordFromMessage(m redis.XMessage) (AlertRecord, error) {
	raw, ok := m.Values["data"].(string)
	if !ok {
		return AlertRecord{}, fmt.Errorf("stream entry %s has no data field", m.ID)
	}
	var rec AlertRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return AlertRecord{}, fmt.Errorf("failed to unmarshal alert %s: %w", m.ID, err)
	}
	rec.StreamID = m.ID
	return rec, nil
}

// TrimAlertsBefore drops stream entries older than cutoff. Stream ids
// start with their insertion time in milliseconds, so this is a MINID trim.
func (s *Store) TrimAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	minID := fmt.Sprintf("%d-0", cutoff.UnixMilli())
	n, err := s.client.XTrimMinIDApprox(ctx, AlertStreamKey(s.prefix), minID, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim alerts: %w", err)
	}
	return n, nil
}
