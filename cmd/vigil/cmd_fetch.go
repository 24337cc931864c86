package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yairfalse/vigil/providers"
	_ "github.com/yairfalse/vigil/providers/asana" // Register Asana provider
	"github.com/yairfalse/vigil/snapshot"
)

var (
	fetchWorkspace string
	fetchOutput    string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a workspace snapshot",
	Long: `Fetch the current workspace state (workspace record, users,
projects) into a consolidated snapshot.

The snapshot is appended to the local store under a new revision, so
audits can run against it repeatedly - and against older revisions -
without touching the API again.`,
	Example: `  vigil fetch                          # Fetch into the snapshot store
  vigil fetch --workspace Acme         # Fetch a specific workspace
  vigil fetch -o consolidated.json     # Also write a JSON file`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchWorkspace, "workspace", "w", "", "Workspace name or gid (first available when empty)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Also save the snapshot to a JSON file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token, err := resolveToken()
	if err != nil {
		return err
	}

	workspace := cfg.Workspace
	if fetchWorkspace != "" {
		workspace = fetchWorkspace
	}

	provider, err := providers.Get(cfg.Provider, providers.Config{
		Token:     token,
		BaseURL:   cfg.BaseURL,
		Workspace: workspace,
	})
	if err != nil {
		return err
	}

	snap, err := provider.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	store, err := snapshot.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rev, err := store.Append(snap)
	if err != nil {
		return err
	}

	if fetchOutput != "" {
		if err := snapshot.WriteFile(fetchOutput, snap); err != nil {
			return err
		}
	}

	fmt.Printf("Workspace: %s\n", snap.Workspace.Name)
	fmt.Printf("Users: %d (%d admins)\n", len(snap.Users), snap.AdminCount())
	fmt.Printf("Projects: %d\n", len(snap.Projects))
	fmt.Printf("Stored as revision %d\n", rev)

	return nil
}
