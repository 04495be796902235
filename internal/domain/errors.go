package domain

import "errors"

var (
	// ErrNoRoute means the oracle computed no path. Expected, not a failure.
	ErrNoRoute = errors.New("no route")

	// ErrTransientUpstream wraps feed or oracle timeouts and network errors.
	ErrTransientUpstream = errors.New("transient upstream error")

	// ErrMalformedRecord marks a feed record that cannot become a Connection.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDelivery wraps notification sink failures.
	ErrDelivery = errors.New("delivery failed")
)
