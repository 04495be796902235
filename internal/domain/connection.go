package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Connection is one transient wormhole link between the hub system
// (Thera or Turnur) and an exit system, as seen in a single feed snapshot.
//
// Connections carry no identity beyond the feed's ID: they are rebuilt
// from scratch every poll cycle.
type Connection struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the feed identifier of this physical wormhole instance.
	ID string

	// TheraSignature is the scan signature on the hub side.
	TheraSignature string

	// ExitSignature is the scan signature on the exit side.
	ExitSignature string

	// ─────────────────────────────
	// Exit system
	// ─────────────────────────────

	HubSystemID    int64
	ExitSystemID   int64
	ExitSystemName string
	ExitRegion     string

	// SecurityClass is the feed's class of the exit system: hs, ls, ns, ...
	SecurityClass string

	// ─────────────────────────────
	// Wormhole
	// ─────────────────────────────

	WormholeType string
	Size         SizeClass

	// RemainingHours is the lifetime the feed reported at observation time.
	RemainingHours float64

	// ExpiresAt is when the connection is expected to collapse.
	// Zero means the feed gave no lifetime.
	ExpiresAt time.Time
}

// Expired reports whether the connection's expected collapse is before now.
// A connection with unknown lifetime never expires.
func (c Connection) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// RemainingAt returns the lifetime left at now, never negative.
func (c Connection) RemainingAt(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return time.Duration(c.RemainingHours * float64(time.Hour))
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// InWormholeSpace reports whether the exit lies in J-space (system names
// such as "J123456"), where the routing oracle has no route.
func (c Connection) InWormholeSpace() bool {
	name := c.ExitSystemName
	if len(name) < 2 || name[0] != 'J' {
		return false
	}
	return strings.IndexFunc(name[1:], func(r rune) bool { return !unicode.IsDigit(r) }) == -1
}

// SecurityEmoji marks the exit's security band.
func (c Connection) SecurityEmoji() string {
	switch strings.ToLower(c.SecurityClass) {
	case "hs":
		return "🔵"
	case "ls":
		return "🟡"
	case "ns":
		return "🔴"
	default:
		return "⚪"
	}
}

// LifetimeStatus renders the remaining lifetime the way pilots read it:
// end-of-life under 4h, a warning under 8h.
func (c Connection) LifetimeStatus(now time.Time) string {
	if c.ExpiresAt.IsZero() && c.RemainingHours == 0 {
		return "❔ lifetime unknown"
	}
	hours := int(c.RemainingAt(now).Hours())
	switch {
	case hours <= 4:
		return "⚠️ EOL (~" + strconv.Itoa(hours) + "h remaining)"
	case hours <= 8:
		return "🕐 ~" + strconv.Itoa(hours) + "h remaining"
	default:
		return "✅ ~" + strconv.Itoa(hours) + "h remaining"
	}
}
