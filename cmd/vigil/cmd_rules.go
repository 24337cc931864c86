package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesShowExpr bool

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules in the policy catalog",
	Long: `List every rule vigil would evaluate: the builtin checks, or the
catalog file named in the config.`,
	Example: `  vigil rules                          # List builtin checks
  vigil rules --expr                   # Include rule expressions
  vigil rules -c vigil.yaml            # List a configured catalog`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().BoolVar(&rulesShowExpr, "expr", false, "Print each rule's expression")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESCRIPTION")
	for _, rule := range cat.Rules() {
		fmt.Fprintf(w, "%s\t%s\n", rule.ID, rule.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rulesShowExpr {
		for _, rule := range cat.Rules() {
			fmt.Printf("\n--- %s ---\n%s\n", rule.ID, rule.Expr)
		}
	}

	fmt.Printf("\n%d rules\n", cat.Len())
	return nil
}
