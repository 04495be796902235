package domain

import "time"

// AlertEvent is what a notification sink receives for a fired pair.
type AlertEvent struct {
	// ID is a ULID assigned when the pair fires; sortable by time.
	ID          string
	Origin      Origin
	Connection  Connection
	Destination Destination
	Route       RouteResult

	// Remaining is the connection lifetime left at evaluation time.
	Remaining   time.Duration
	EvaluatedAt time.Time
}
