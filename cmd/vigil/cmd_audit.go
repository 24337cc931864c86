package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yairfalse/vigil/catalog"
	"github.com/yairfalse/vigil/config"
	"github.com/yairfalse/vigil/history"
	"github.com/yairfalse/vigil/policy"
	"github.com/yairfalse/vigil/report"
	"github.com/yairfalse/vigil/snapshot"
	"github.com/yairfalse/vigil/types"
)

var (
	auditSnapshotFile string
	auditRevision     int64
	auditFormat       string
	auditOutFile      string
	auditWorkers      int
	auditNoHistory    bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the policy catalog against a snapshot",
	Long: `Evaluate every rule in the policy catalog against a workspace
snapshot and produce the audit report.

By default the latest stored snapshot is audited with the builtin
checks (admin ceiling, inactive projects, external users). Point
--catalog at a YAML file to run your own rules instead.`,
	Example: `  vigil audit                            # Audit the latest snapshot
  vigil audit --revision 3               # Audit a stored revision
  vigil audit --snapshot data.json       # Audit a snapshot file
  vigil audit --format json              # Machine-readable output
  vigil audit --out report.json          # Save the report to a file`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&auditSnapshotFile, "snapshot", "s", "", "Audit a snapshot JSON file instead of the store")
	auditCmd.Flags().Int64VarP(&auditRevision, "revision", "r", 0, "Audit a specific stored revision (latest when 0)")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "", "Output format: table, json (overrides config)")
	auditCmd.Flags().StringVarP(&auditOutFile, "out", "o", "", "Save the report as JSON to a file")
	auditCmd.Flags().IntVar(&auditWorkers, "workers", 1, "Parallel rule evaluations (report order is unaffected)")
	auditCmd.Flags().BoolVar(&auditNoHistory, "no-history", false, "Skip appending the report to the audit history")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format := cfg.Output
	if auditFormat != "" {
		format = auditFormat
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid output format: %s (must be table or json)", format)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	snap, rev, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	rep := runChecks(cmd.Context(), cat, snap, cfg.Thresholds)

	switch format {
	case "json":
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			return err
		}
	default:
		if err := report.WriteTable(os.Stdout, rep); err != nil {
			return err
		}
	}

	if auditOutFile != "" {
		if err := report.WriteFile(auditOutFile, rep); err != nil {
			return err
		}
	}

	if !auditNoHistory {
		if err := appendHistory(cfg, rev, rep); err != nil {
			return err
		}
	}

	return nil
}

// runChecks is the core audit pipeline: build input, run the catalog,
// assemble the report.
func runChecks(ctx context.Context, cat *catalog.Catalog, snap *types.Snapshot, th policy.Thresholds) report.Report {
	input := policy.BuildInput(snap, th)
	runner := policy.NewRunner(policy.NewEngine()).WithWorkers(auditWorkers)
	return report.Assemble(runner.Run(ctx, cat, input))
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog != "" {
		return catalog.LoadFile(cfg.Catalog)
	}
	return catalog.Builtin(), nil
}

func loadSnapshot(cfg *config.Config) (*types.Snapshot, int64, error) {
	if auditSnapshotFile != "" {
		snap, err := snapshot.LoadFile(auditSnapshotFile)
		return snap, 0, err
	}

	store, err := snapshot.Open(cfg.DataDir)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = store.Close() }()

	if auditRevision > 0 {
		snap, err := store.Get(auditRevision)
		return snap, auditRevision, err
	}

	snap, rev, err := store.Latest()
	if err != nil {
		return nil, 0, fmt.Errorf("%w (run 'vigil fetch' first, or pass --snapshot)", err)
	}
	return snap, rev, nil
}

func appendHistory(cfg *config.Config, rev int64, rep report.Report) error {
	journal, err := history.Open(filepath.Join(cfg.DataDir, "history"))
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	return journal.Append(rev, rep)
}
