package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yairfalse/vigil/catalog"
	"github.com/yairfalse/vigil/config"
	"github.com/yairfalse/vigil/providers"
	"github.com/yairfalse/vigil/snapshot"
	"github.com/yairfalse/vigil/telemetry"
)

var (
	daemonInterval    time.Duration
	daemonMetricsAddr string
	daemonOnce        bool
	daemonDebug       bool
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Fetch and audit continuously",
	Long: `Run vigil as a daemon: fetch a fresh snapshot and audit it on an
interval, exposing Prometheus metrics for scraping.

Every cycle appends the snapshot to the store and the report to the
audit history, so drift between runs stays diffable.`,
	Example: `  vigil daemon                         # Audit every hour
  vigil daemon --interval 15m          # Audit every 15 minutes
  vigil daemon --metrics :9090         # Metrics server address
  vigil daemon --once                  # One cycle, then exit`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVarP(&daemonInterval, "interval", "i", time.Hour, "Audit interval")
	daemonCmd.Flags().StringVarP(&daemonMetricsAddr, "metrics", "m", ":9090", "Metrics server address")
	daemonCmd.Flags().BoolVar(&daemonOnce, "once", false, "Run one cycle and exit")
	daemonCmd.Flags().BoolVar(&daemonDebug, "debug", false, "Enable debug logging")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if daemonDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Setup context with signal handling
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token, err := resolveToken()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "vigil",
		ServiceVersion: version,
		Insecure:       true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	// Start metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
		log.Info().Str("addr", daemonMetricsAddr).Msg("starting metrics server")

		server := &http.Server{
			Addr:              daemonMetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	provider, err := providers.Get(cfg.Provider, providers.Config{
		Token:     token,
		BaseURL:   cfg.BaseURL,
		Workspace: cfg.Workspace,
	})
	if err != nil {
		return err
	}

	store, err := snapshot.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	log.Info().
		Str("provider", provider.Name()).
		Dur("interval", daemonInterval).
		Bool("once", daemonOnce).
		Msg("vigil starting")

	// Run initial cycle
	cycle(ctx, cfg, provider, store)

	if daemonOnce {
		log.Info().Msg("one-shot mode, exiting")
		return nil
	}

	ticker := time.NewTicker(daemonInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cycle(ctx, cfg, provider, store)
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		}
	}
}

// cycle fetches a fresh snapshot and audits it. Failures are logged and
// the daemon waits for the next tick; a bad cycle never kills the loop.
func cycle(ctx context.Context, cfg *config.Config, provider providers.WorkspaceProvider, store *snapshot.Store) {
	start := time.Now()

	snap, err := provider.FetchSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		return
	}
	telemetry.SnapshotsFetched.Add(ctx, 1)

	rev, err := store.Append(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to store snapshot")
		return
	}
	telemetry.SnapshotRevision.Record(ctx, rev)

	rep := runChecks(ctx, catalogOrBuiltin(cfg), snap, cfg.Thresholds)

	telemetry.RulesEvaluated.Add(ctx, int64(rep.Summary.Total))
	telemetry.ViolationsFound.Add(ctx, int64(rep.Summary.Violations))
	telemetry.EvalErrors.Add(ctx, int64(rep.Summary.Errors))
	telemetry.AuditDuration.Record(ctx, time.Since(start).Seconds())

	if err := appendHistory(cfg, rev, rep); err != nil {
		log.Error().Err(err).Msg("failed to append audit history")
	}

	log.Info().
		Int64("revision", rev).
		Int("total_checks", rep.Summary.Total).
		Int("violations", rep.Summary.Violations).
		Int("evaluation_errors", rep.Summary.Errors).
		Str("status", rep.Summary.Status).
		Msg("audit cycle complete")
}

func catalogOrBuiltin(cfg *config.Config) *catalog.Catalog {
	cat, err := loadCatalog(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog, using builtin checks")
		return catalog.Builtin()
	}
	return cat
}
