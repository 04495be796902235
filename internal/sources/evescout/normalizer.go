package evescout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

// TheraSystemID is the default hub.
const TheraSystemID int64 = 31000005

// Normalizer converts feed records into domain connections for one hub.
type Normalizer struct {
	hubSystemID int64
}

// NewNormalizer creates a normalizer for the given hub system.
// A zero hub defaults to Thera.
func NewNormalizer(hubSystemID int64) *Normalizer {
	if hubSystemID == 0 {
		hubSystemID = TheraSystemID
	}
	return &Normalizer{hubSystemID: hubSystemID}
}

// Normalize keeps feed order and silently drops records that do not touch
// the hub or lack signatures or an exit system.
func (n *Normalizer) Normalize(records []Signature, now time.Time) []domain.Connection {
	conns := make([]domain.Connection, 0, len(records))
	for i := range records {
		conn, err := n.mapRecord(&records[i], now)
		if err != nil {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// mapRecord orients a record so that the hub end gives TheraSignature and
// the other end becomes the exit.
func (n *Normalizer) mapRecord(r *Signature, now time.Time) (domain.Connection, error) {
	id := strings.TrimSpace(string(r.ID))
	if id == "" {
		return domain.Connection{}, fmt.Errorf("%w: missing id", domain.ErrMalformedRecord)
	}

	conn := domain.Connection{
		ID:           id,
		HubSystemID:  n.hubSystemID,
		WormholeType: strings.TrimSpace(r.WormholeType),
	}

	switch {
	case r.OutSystemID == n.hubSystemID:
		conn.TheraSignature = r.OutSignature
		conn.ExitSignature = r.InSignature
		conn.ExitSystemID = r.InSystemID
		conn.ExitSystemName = r.InSystemName
		conn.ExitRegion = r.InRegionName
		conn.SecurityClass = r.InSystemClass
	case r.InSystemID == n.hubSystemID:
		conn.TheraSignature = r.InSignature
		conn.ExitSignature = r.OutSignature
		conn.ExitSystemID = r.OutSystemID
		conn.ExitSystemName = r.OutSystemName
		// Region and class are only published for the in side.
	default:
		return domain.Connection{}, fmt.Errorf("%w: record %s does not touch hub", domain.ErrMalformedRecord, id)
	}

	conn.TheraSignature = strings.TrimSpace(conn.TheraSignature)
	conn.ExitSignature = strings.TrimSpace(conn.ExitSignature)
	if conn.TheraSignature == "" || conn.ExitSignature == "" {
		return domain.Connection{}, fmt.Errorf("%w: record %s missing signature", domain.ErrMalformedRecord, id)
	}
	if conn.ExitSystemID == 0 {
		return domain.Connection{}, fmt.Errorf("%w: record %s missing exit system", domain.ErrMalformedRecord, id)
	}

	conn.Size = sizeOf(r)

	switch {
	case r.RemainingHours != nil:
		conn.RemainingHours = *r.RemainingHours
		conn.ExpiresAt = now.Add(time.Duration(*r.RemainingHours * float64(time.Hour)))
	case r.ExpiresAt != nil && !r.ExpiresAt.IsZero():
		conn.ExpiresAt = *r.ExpiresAt
		conn.RemainingHours = r.ExpiresAt.Sub(now).Hours()
	}

	return conn, nil
}

// sizeOf prefers the feed's max ship size, then the wormhole type table,
// then the smallest class.
func sizeOf(r *Signature) domain.SizeClass {
	if s, ok := domain.ParseSizeClass(r.MaxShipSize); ok {
		return s
	}
	if s, ok := domain.SizeForWormholeType(r.WormholeType); ok {
		return s
	}
	return domain.SizeSmall
}

// Source fetches the feed and normalizes it in one step.
type Source struct {
	client     *Client
	normalizer *Normalizer
}

func NewSource(client *Client, normalizer *Normalizer) *Source {
	return &Source{client: client, normalizer: normalizer}
}

// Connections returns the hub connections of the current feed snapshot.
func (s *Source) Connections(ctx context.Context, now time.Time) ([]domain.Connection, error) {
	records, err := s.client.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(records, now), nil
}
