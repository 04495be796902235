package domain

import "time"

// Origin is a system pilots depart from.
type Origin struct {
	Name     string
	SystemID int64
}

// Destination is a watched target system and its jump budget.
type Destination struct {
	Name     string
	SystemID int64
	MaxJumps int
}

// Criteria is the per-cycle snapshot of everything the engine evaluates
// against. It is immutable for the duration of a cycle.
type Criteria struct {
	// Origins are the departure systems. For each exit the closest one
	// is used, earlier entries winning ties.
	Origins      []Origin
	Destinations []Destination
	MinSize      SizeClass
	Cooldown     time.Duration
	Preference   RoutePreference
}

// OriginIDs returns the departure system ids in configuration order.
func (c Criteria) OriginIDs() []int64 {
	ids := make([]int64, len(c.Origins))
	for i, o := range c.Origins {
		ids[i] = o.SystemID
	}
	return ids
}
