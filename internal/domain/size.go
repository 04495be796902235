package domain

import "strings"

// SizeClass is the largest ship class a wormhole lets through.
// The zero value is SizeSmall, the most restrictive class.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
	SizeXLarge
	SizeCapital
)

var sizeNames = [...]string{
	SizeSmall:   "small",
	SizeMedium:  "medium",
	SizeLarge:   "large",
	SizeXLarge:  "xlarge",
	SizeCapital: "capital",
}

// String returns the lowercase feed spelling ("small", "xlarge", ...).
func (s SizeClass) String() string {
	if s < SizeSmall || s > SizeCapital {
		return "unknown"
	}
	return sizeNames[s]
}

// Label returns the capitalized form used in notifications.
func (s SizeClass) Label() string {
	name := s.String()
	if name == "xlarge" {
		return "XLarge"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseSizeClass maps a feed or config spelling to a SizeClass.
// It accepts "xlarge", "x-large" and "very large" for SizeXLarge.
func ParseSizeClass(s string) (SizeClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "frigate":
		return SizeSmall, true
	case "medium", "cruiser":
		return SizeMedium, true
	case "large", "battleship":
		return SizeLarge, true
	case "xlarge", "x-large", "very large", "freighter":
		return SizeXLarge, true
	case "capital":
		return SizeCapital, true
	default:
		return SizeSmall, false
	}
}

// wormholeTypeSizes is the fixed lookup of the hub connection types
// observed on the public feed. Used only when the record does not carry
// a max ship size itself.
var wormholeTypeSizes = map[string]SizeClass{
	"Q063": SizeSmall,
	"F353": SizeSmall,
	"M164": SizeMedium,
	"T458": SizeMedium,
	"F135": SizeLarge,
	"L031": SizeXLarge,
}

// SizeForWormholeType returns the size class of a known wormhole type code.
func SizeForWormholeType(whType string) (SizeClass, bool) {
	s, ok := wormholeTypeSizes[strings.ToUpper(strings.TrimSpace(whType))]
	return s, ok
}

// Emoji is a compact visual marker for the size class.
func (s SizeClass) Emoji() string {
	switch s {
	case SizeSmall:
		return "🔹"
	case SizeMedium:
		return "🔷"
	case SizeLarge:
		return "🟦"
	case SizeXLarge:
		return "🟪"
	case SizeCapital:
		return "🟥"
	default:
		return "❓"
	}
}
