package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yairfalse/vigil/history"
	"github.com/yairfalse/vigil/report"
	"github.com/yairfalse/vigil/snapshot"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past audit runs",
	Long: `List recorded audit runs with the snapshot revision each one
audited, plus the stored snapshot revisions and journal size.`,
	Example: `  vigil history                        # Show all recorded runs
  vigil history --limit 10             # Show the last 10 runs`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N runs (all when 0)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	journal, err := history.Open(filepath.Join(cfg.DataDir, "history"))
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	entries, err := journal.Entries()
	if err != nil {
		return err
	}

	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}

	if len(entries) == 0 {
		fmt.Println("No audit runs recorded yet (run 'vigil audit' first)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tREVISION\tVIOLATIONS\tSTATUS")
	for _, e := range entries {
		var rep report.Report
		if err := json.Unmarshal(e.Report, &rep); err != nil {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d/%d\t%s\n",
			e.Sequence,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Revision,
			rep.Summary.Violations,
			rep.Summary.Total,
			rep.Summary.Status,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats, err := journal.GetStats()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %d journal files (%d bytes)\n",
		stats.LastSequence, stats.TotalFiles, stats.TotalSizeBytes)

	if revs, err := storedRevisions(cfg.DataDir); err == nil && len(revs) > 0 {
		fmt.Printf("Snapshot revisions in store: %d (latest %d)\n", len(revs), revs[len(revs)-1])
	}

	return nil
}

func storedRevisions(dataDir string) ([]int64, error) {
	store, err := snapshot.Open(dataDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	return store.Revisions()
}
