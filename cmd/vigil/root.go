package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yairfalse/vigil/config"
)

var (
	version = "0.1.0"
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "vigil",
		Short: "Workspace Security Auditor",
		Long: `Vigil - Workspace Security Auditor

Vigil audits your workspace configuration against declarative security
policies and reports violations. It fetches a point-in-time snapshot of
the workspace (users, projects), evaluates every rule in the policy
catalog against it, and produces a structured audit report.

One broken rule never aborts an audit: every check gets its own result,
and checks that could not run are reported apart from real violations.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Vigil {{.Version}} - Workspace Security Auditor
`)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default vigil.yaml)")
}

// loadConfig reads the configured file, falling back to defaults when
// no file exists and none was asked for explicitly.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfig(cfgFile)
	}

	if _, err := os.Stat("vigil.yaml"); err == nil {
		return config.LoadConfig("vigil.yaml")
	}

	return config.Default(), nil
}

// resolveToken finds the API token: environment first (a .env file is
// honored), then the token file the original tooling used.
func resolveToken() (string, error) {
	_ = godotenv.Load()

	for _, key := range []string{"VIGIL_ASANA_TOKEN", "ASANA_PAT"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, nil
		}
	}

	if data, err := os.ReadFile("token.txt"); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	}

	return "", fmt.Errorf("no API token: set VIGIL_ASANA_TOKEN or ASANA_PAT, or create token.txt")
}
