package domain

import (
	"fmt"
	"strings"
)

// RoutePreference selects which path class the routing oracle favors.
type RoutePreference int

const (
	PreferShortest RoutePreference = iota
	PreferSecure
	PreferInsecure
)

// ParseRoutePreference accepts the config spellings "shortest", "secure"
// and "insecure". An empty string means shortest.
func ParseRoutePreference(s string) (RoutePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shortest":
		return PreferShortest, nil
	case "secure":
		return PreferSecure, nil
	case "insecure":
		return PreferInsecure, nil
	default:
		return PreferShortest, fmt.Errorf("unknown route preference %q", s)
	}
}

func (p RoutePreference) String() string {
	switch p {
	case PreferSecure:
		return "secure"
	case PreferInsecure:
		return "insecure"
	default:
		return "shortest"
	}
}

// Leg is one resolved oracle lookup.
type Leg struct {
	Jumps     int
	Reachable bool
}

// RouteResult is the two-leg distance origin -> exit -> destination.
type RouteResult struct {
	JumpsOriginToExit      int
	JumpsExitToDestination int
	Total                  int
	Unreachable            bool
}

// CombineLegs builds a RouteResult. Either leg being unreachable makes
// the whole route unreachable.
func CombineLegs(toExit, toDest Leg) RouteResult {
	if !toExit.Reachable || !toDest.Reachable {
		return RouteResult{Unreachable: true}
	}
	return RouteResult{
		JumpsOriginToExit:      toExit.Jumps,
		JumpsExitToDestination: toDest.Jumps,
		Total:                  toExit.Jumps + toDest.Jumps,
	}
}
