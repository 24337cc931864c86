package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/yairfalse/vigil/policy"
)

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteJSON writes the report as JSON to w.
func WriteJSON(w io.Writer, r Report) error {
	data, err := r.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile saves the report as JSON to path.
func WriteFile(path string, r Report) error {
	data, err := r.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// WriteTable renders the report as a human-readable table.
func WriteTable(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "CHECK\tSTATUS\tDETAIL")
	for _, res := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.ID, statusLabel(res.Outcome), detail(res))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nChecks passed: %d/%d\n", r.Summary.Passed, r.Summary.Total)
	fmt.Fprintf(w, "Violations found: %d\n", r.Summary.Violations)
	if r.Summary.Errors > 0 {
		fmt.Fprintf(w, "Checks that could not run: %d\n", r.Summary.Errors)
	}
	fmt.Fprintf(w, "Overall status: %s\n", r.Summary.Status)

	return nil
}

func statusLabel(outcome policy.Outcome) string {
	switch outcome {
	case policy.OutcomeViolation:
		return "VIOLATION"
	case policy.OutcomeError:
		return "ERROR"
	default:
		return "PASS"
	}
}

// detail flattens the scalar fields of a rule's payload into a short
// key=value string, skipping the violation flag itself.
func detail(res policy.RuleResult) string {
	if res.Outcome == policy.OutcomeError {
		return res.Error
	}

	m, ok := res.Value.(map[string]any)
	if !ok {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "violation" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := m[k].(type) {
		case string, bool, json.Number, float64, int, int64:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
