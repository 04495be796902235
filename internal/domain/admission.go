package domain

// Admits decides whether a (connection, destination) pair qualifies.
// Rejects an unreachable route, a wormhole smaller than minSize, and a
// total over the destination's jump budget.
func Admits(conn Connection, dest Destination, route RouteResult, minSize SizeClass) bool {
	if route.Unreachable {
		return false
	}
	if conn.Size < minSize {
		return false
	}
	if route.Total > dest.MaxJumps {
		return false
	}
	return true
}
