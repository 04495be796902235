package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/therawatch/internal/app"
	"github.com/MrSnakeDoc/therawatch/internal/config"
	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	redisstore "github.com/MrSnakeDoc/therawatch/internal/store/redis"
	"github.com/MrSnakeDoc/therawatch/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the feed, send alerts and serve the control endpoints",
		Long: `Run the watcher: an initial check at startup, then one every
THERA_POLL_INTERVAL. Settings come from THERA_* environment variables and
the watchlist file named by THERA_WATCHLIST_FILE.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.New(config.Load())
	if err != nil {
		return err
	}
	return a.Run()
}

func newCheckCmd() *cobra.Command {
	var (
		watchlist string
		asJSON    bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one evaluation cycle and print what would be alerted",
		Long: `Fetch the feed once, resolve routes and print every connection that
passes the watchlist. Nothing is posted to Discord and no state is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadDryRun()
			if watchlist != "" {
				cfg.WatchlistFile = watchlist
			}
			log := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			rep, err := app.CheckOnce(ctx, cfg, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeCheckJSON(out, rep)
			}

			_, _ = fmt.Fprintf(out, "%d connections, %d pairs evaluated, %d match\n",
				rep.Connections, rep.Seen, rep.Fired)
			for _, evt := range rep.Events {
				c := evt.Connection
				_, _ = fmt.Fprintf(out, "  %s %s (%s, %s) -> %s: %d + %d = %d jumps, sig %s / %s, %s\n",
					c.Size.Emoji(), c.ExitSystemName, c.ExitRegion, c.Size,
					evt.Destination.Name,
					evt.Route.JumpsOriginToExit, evt.Route.JumpsExitToDestination, evt.Route.Total,
					c.ExitSignature, c.TheraSignature,
					c.LifetimeStatus(evt.EvaluatedAt),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&watchlist, "watchlist", "w", "", "watchlist file (default: $THERA_WATCHLIST_FILE)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cycle report and matching alerts as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	return cmd
}

// checkOutput is the --json form of a check: the cycle counters plus
// every alert that would have been sent.
type checkOutput struct {
	engine.Report
	Alerts []redisstore.AlertRecord `json:"alerts"`
}

func writeCheckJSON(w io.Writer, rep engine.Report) error {
	alerts := make([]redisstore.AlertRecord, 0, len(rep.Events))
	for _, evt := range rep.Events {
		alerts = append(alerts, redisstore.RecordFromEvent(evt))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(checkOutput{Report: rep, Alerts: alerts})
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <watchlist.yaml>",
		Short: "Validate a watchlist file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := config.LoadWatchlist(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✅ %s is valid\n", args[0])
			for _, o := range crit.Origins {
				_, _ = fmt.Fprintf(out, "departure: %s (%d)\n", o.Name, o.SystemID)
			}
			_, _ = fmt.Fprintf(out, "min size: %s, cooldown: %s, preference: %s\n",
				crit.MinSize, crit.Cooldown, crit.Preference)
			for _, d := range crit.Destinations {
				_, _ = fmt.Fprintf(out, "  -> %s (%d) within %d jumps\n", d.Name, d.SystemID, d.MaxJumps)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("therawatch version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.Commit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}
