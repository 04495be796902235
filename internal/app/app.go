package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/therawatch/internal/config"
	"github.com/MrSnakeDoc/therawatch/internal/cooldown"
	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/esi"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	"github.com/MrSnakeDoc/therawatch/internal/metrics"
	"github.com/MrSnakeDoc/therawatch/internal/notify"
	"github.com/MrSnakeDoc/therawatch/internal/redis"
	"github.com/MrSnakeDoc/therawatch/internal/routing"
	"github.com/MrSnakeDoc/therawatch/internal/scheduler"
	"github.com/MrSnakeDoc/therawatch/internal/sources/evescout"
	redisstore "github.com/MrSnakeDoc/therawatch/internal/store/redis"
	"github.com/MrSnakeDoc/therawatch/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	watchlist   *config.Watchlist
	poller      *scheduler.Poller
	janitor     *scheduler.HistoryJanitor
}

// New wires the service from cfg. Only an unreadable or invalid
// watchlist is an error; an unreachable Redis disables alert history.
func New(cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	crit, err := config.LoadWatchlist(cfg.WatchlistFile)
	if err != nil {
		return nil, err
	}
	watchlist := config.NewWatchlist(crit)
	loggerClient.Info("watchlist loaded",
		logger.String("file", cfg.WatchlistFile),
		logger.Int("departures", len(crit.Origins)),
		logger.Int("destinations", len(crit.Destinations)),
	)

	var (
		redisClient *goredis.Client
		store       *redisstore.Store
		janitor     *scheduler.HistoryJanitor
		history     deps.AlertHistory
		mirrors     []notify.Sink
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, running without alert history", logger.Error(err))
			redisClient = nil
		} else {
			store = redisstore.NewStore(redisClient, cfg.RedisPrefix, int64(cfg.RedisStreamMaxLen))
			history = store
			mirrors = append(mirrors, notify.NewRedisSink(store))
			janitor = scheduler.NewHistoryJanitor(store, loggerClient, cfg.RedisTrimInterval, cfg.RedisRetention)
			loggerClient.Info("Redis initialized successfully")
		}
	}

	met := metrics.New()
	eng := newEngine(cfg, loggerClient, met, watchlist.Snapshot, mirrors...)

	checkTrigger := make(chan struct{}, 1)
	poller := scheduler.NewPoller(eng, loggerClient, cfg.PollInterval, checkTrigger)

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		CheckBurst:        cfg.CheckBurst,
		CheckRefillPerMin: cfg.CheckRefillPerMin,
		Monitor:           eng,
		PollInterval:      cfg.PollInterval,
		HubSystemID:       cfg.HubSystemID,
		DryRun:            cfg.DryRun,
		Metrics:           met,
		History:           history,
		CheckTrigger:      checkTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg.ListenPort, loggerClient, d),
		redisClient: redisClient,
		watchlist:   watchlist,
		poller:      poller,
		janitor:     janitor,
	}, nil
}

// newEngine assembles feed, oracle, resolver, cooldown and sinks.
// Discord is the primary sink unless cfg.DryRun, then the log is.
func newEngine(cfg *config.Config, log logger.Logger, met *metrics.Metrics, criteria engine.CriteriaFunc, mirrors ...notify.Sink) *engine.Engine {
	source := evescout.NewSource(
		evescout.NewClient(cfg.FeedURL, cfg.FeedTimeout, cfg.UserAgent),
		evescout.NewNormalizer(cfg.HubSystemID),
	)

	oracle := esi.NewClient(cfg.ESIBaseURL, &http.Client{}, cfg.UserAgent)
	resolver := routing.NewResolver(oracle, log, routing.Options{
		Attempts:    cfg.OracleAttempts,
		CallTimeout: cfg.OracleTimeout,
		Parallelism: cfg.RouteParallelism,
	})
	resolver.OnFailure(met.OracleFailure)

	var primary notify.Sink
	if cfg.DryRun {
		log.Warn("dry run: alerts are logged, not posted to Discord")
		primary = notify.NewLogSink(log)
	} else {
		primary = notify.NewDiscordSink(notify.DiscordOptions{
			WebhookURL:      cfg.DiscordWebhookURL,
			Username:        cfg.DiscordUsername,
			MentionRoleID:   cfg.DiscordMentionRoleID,
			MentionEveryone: cfg.DiscordMentionEveryone,
			Timeout:         cfg.DiscordTimeout,
		})
		// Keep a log line per alert alongside the webhook.
		mirrors = append(mirrors, notify.NewLogSink(log))
	}

	return engine.New(engine.Options{
		Source:   source,
		Resolver: resolver,
		Tracker:  cooldown.NewTracker(),
		Sink:     notify.NewFanout(log, primary, mirrors...),
		Criteria: criteria,
		Metrics:  met,
		Logger:   log,
	})
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting therawatch v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("therawatch %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.WatchlistReload {
		go func() {
			err := config.WatchWatchlist(ctx, a.cfg.WatchlistFile, a.logger, a.watchlist.Set)
			if err != nil {
				a.logger.Warn("watchlist hot reload disabled", logger.Error(err))
			}
		}()
	}

	a.poller.Start(ctx)
	a.logger.Info("poller started", logger.Duration("interval", a.cfg.PollInterval))

	if a.janitor != nil {
		a.janitor.Start(ctx)
		a.logger.Info("alert history janitor started",
			logger.Duration("interval", a.cfg.RedisTrimInterval),
			logger.Duration("retention", a.cfg.RedisRetention))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("HTTP server failed, shutting down", logger.Error(runErr))
	}

	// Lets an in-flight cycle finish its deliveries and marks.
	a.poller.Stop()

	if a.janitor != nil {
		a.janitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	_ = a.logger.Sync()
	if runErr == nil {
		a.logger.Info("✅ therawatch stopped cleanly")
	}
	return runErr
}

// CheckOnce runs a single cycle against the live feed with a fresh
// cooldown state and returns its report. Nothing is kept afterwards.
func CheckOnce(ctx context.Context, cfg *config.Config, log logger.Logger) (engine.Report, error) {
	crit, err := config.LoadWatchlist(cfg.WatchlistFile)
	if err != nil {
		return engine.Report{}, err
	}

	eng := newEngine(cfg, log, metrics.New(), func() domain.Criteria { return crit })
	rep := eng.RunCycle(ctx, time.Now())
	if rep.FeedError != "" {
		return rep, fmt.Errorf("feed unavailable: %s", rep.FeedError)
	}
	return rep, nil
}
