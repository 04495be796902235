package redis

import (
	"context"
	"fmt"
	"strconv"
)

// DestinationHits returns how many alerts were delivered per destination.
func (s *Store) DestinationHits(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, DestinationHitsKey(s.prefix)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get destination hits: %w", err)
	}

	stats := make(map[string]int64, len(raw))
	for dest, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats[dest] = n
	}
	return stats, nil
}
