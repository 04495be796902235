package redis

const (
	// KeyAlertStream is the capped stream of delivered alerts.
	KeyAlertStream = "therawatch:alerts"
	// KeyDestinationHits is the hash of delivered alert counts per destination.
	KeyDestinationHits = "therawatch:hits:destination"
	// DefaultStreamMaxLen bounds the alert stream (approximate trimming).
	DefaultStreamMaxLen = 1000
)

// AlertStreamKey returns the stream key, namespaced when prefix is set.
func AlertStreamKey(prefix string) string {
	return withPrefix(prefix, KeyAlertStream)
}

// DestinationHitsKey returns the per-destination counter key.
func DestinationHitsKey(prefix string) string {
	return withPrefix(prefix, KeyDestinationHits)
}

func withPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
