package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 10s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Watchlist
	WatchlistFile   string // path to the watchlist YAML (origin, destinations, thresholds)
	WatchlistReload bool   // hot-reload the watchlist on file changes

	// Polling
	PollInterval time.Duration // time between cycles (default: 5m)
	HubSystemID  int64         // hub system to watch (default: Thera)
	UserAgent    string        // sent to Eve-Scout and ESI

	// Upstreams
	FeedURL          string        // Eve-Scout signatures endpoint
	FeedTimeout      time.Duration // whole feed request timeout
	ESIBaseURL       string        // ESI root, route lookups go to <root>/route/...
	OracleTimeout    time.Duration // per route lookup
	OracleAttempts   int           // attempts per route lookup on transient errors
	RouteParallelism int           // concurrent route lookups per cycle

	// Notifications
	DryRun                 bool   // log alerts instead of posting them
	DiscordWebhookURL      string // required unless DryRun
	DiscordUsername        string
	DiscordMentionRoleID   string
	DiscordMentionEveryone bool
	DiscordTimeout         time.Duration

	// Redis (optional alert history, empty addr = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration
	RedisPrefix         string        // optional key namespace
	RedisStreamMaxLen   int           // approximate cap of the alert stream
	RedisRetention      time.Duration // alert history age limit
	RedisTrimInterval   time.Duration // how often old history is trimmed

	// Access restrictions for the control endpoints
	AllowedHosts      []string // optional, restrict access to specific Host headers
	AllowedCIDRS      []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy        bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CheckBurst        int      // POST /check token bucket size per IP
	CheckRefillPerMin int      // POST /check tokens refilled per IP per minute
}

// Load reads the process settings from the environment.
// Misconfiguration panics with a FATAL message.
func Load() *Config {
	return load(mustBool("THERA_DRY_RUN", false))
}

// LoadDryRun is Load with notifications forced to the log, so no
// webhook URL is required. Used by one-shot CLI commands.
func LoadDryRun() *Config {
	return load(true)
}

func load(dryRun bool) *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("THERA_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("THERA_SHUTDOWN_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("THERA_LOG_LEVEL", "info"),
		PrettyLog: mustBool("THERA_PRETTY_LOG", false),

		// Watchlist
		WatchlistFile:   getenv("THERA_WATCHLIST_FILE", "/app/watchlist.yaml"),
		WatchlistReload: mustBool("THERA_WATCHLIST_RELOAD", true),

		// Polling
		PollInterval: mustDuration("THERA_POLL_INTERVAL", 5*time.Minute),
		HubSystemID:  getenvInt64("THERA_HUB_SYSTEM_ID", 31000005),
		UserAgent:    getenv("THERA_USER_AGENT", "therawatch"),

		// Upstreams
		FeedURL:          getenv("THERA_FEED_URL", "https://api.eve-scout.com/v2/public/signatures"),
		FeedTimeout:      mustDuration("THERA_FEED_TIMEOUT", 30*time.Second),
		ESIBaseURL:       getenv("THERA_ESI_BASE_URL", "https://esi.evetech.net/latest"),
		OracleTimeout:    mustDuration("THERA_ORACLE_TIMEOUT", 10*time.Second),
		OracleAttempts:   getenvInt("THERA_ORACLE_ATTEMPTS", 3),
		RouteParallelism: getenvInt("THERA_ROUTE_PARALLELISM", 5),

		// Notifications
		DryRun:                 dryRun,
		DiscordUsername:        getenv("THERA_DISCORD_USERNAME", "Thera Watch"),
		DiscordMentionRoleID:   getenv("THERA_DISCORD_MENTION_ROLE_ID", ""),
		DiscordMentionEveryone: mustBool("THERA_DISCORD_MENTION_EVERYONE", true),
		DiscordTimeout:         mustDuration("THERA_DISCORD_TIMEOUT", 10*time.Second),

		// Redis settings
		RedisAddr:           getenv("THERA_REDIS_ADDR", ""),
		RedisUser:           getenv("THERA_REDIS_USERNAME", ""),
		RedisPassword:       getenv("THERA_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("THERA_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 5),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 2*time.Second),
		RedisPrefix:         getenv("THERA_REDIS_PREFIX", ""),
		RedisStreamMaxLen:   getenvInt("THERA_REDIS_STREAM_MAXLEN", 1000),
		RedisRetention:      mustDuration("THERA_REDIS_RETENTION", 7*24*time.Hour),
		RedisTrimInterval:   mustDuration("THERA_REDIS_TRIM_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts:      splitAndTrim(getenv("THERA_ALLOWED_HOSTS", "")),
		AllowedCIDRS:      splitAndTrim(getenv("THERA_ALLOWED_CIDRS", "")),
		TrustProxy:        mustBool("THERA_TRUST_PROXY", false),
		CheckBurst:        getenvInt("THERA_CHECK_BURST", 3),
		CheckRefillPerMin: getenvInt("THERA_CHECK_REFILL_PER_MIN", 1),
	}

	if !cfg.DryRun {
		cfg.DiscordWebhookURL = requireEnv("THERA_DISCORD_WEBHOOK_URL")
	}

	if cfg.PollInterval < time.Minute {
		panic(fmt.Sprintf("❌ FATAL: THERA_POLL_INTERVAL must be at least 1m, got %s", cfg.PollInterval))
	}
	if cfg.OracleAttempts < 1 {
		panic(fmt.Sprintf("❌ FATAL: THERA_ORACLE_ATTEMPTS must be >= 1, got %d", cfg.OracleAttempts))
	}
	if cfg.RouteParallelism < 1 {
		panic(fmt.Sprintf("❌ FATAL: THERA_ROUTE_PARALLELISM must be >= 1, got %d", cfg.RouteParallelism))
	}

	// Log config only in debug mode with redacted secrets
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.DiscordWebhookURL != "" {
			cfgCopy.DiscordWebhookURL = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether alert history should go to Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
		}
		return i
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
