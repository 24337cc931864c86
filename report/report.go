package report

import (
	"github.com/yairfalse/vigil/policy"
)

// Overall status values.
const (
	StatusViolationsFound = "violations_found"
	StatusAllChecksPassed = "all_checks_passed"
)

// Summary holds the aggregate counts for one audit run.
//
// Passed is total minus violations, so violations + passed == total
// always holds. Evaluation errors get their own count: a check that
// could not run is neither a pass nor a breach, and operators need to
// tell "policy broken" from "check broken".
type Summary struct {
	Total      int    `json:"total_checks"`
	Violations int    `json:"violations"`
	Passed     int    `json:"passed"`
	Errors     int    `json:"evaluation_errors"`
	Status     string `json:"overall_status"`
}

// Report is the final audit artifact: every rule's result in catalog
// order plus the summary. Assembled once per run, never mutated.
type Report struct {
	Checks  []policy.RuleResult `json:"checks"`
	Summary Summary             `json:"summary"`
}

// Assemble aggregates a complete result sequence into a report. The
// full sequence must be known up front; there is no partial emission.
func Assemble(results []policy.RuleResult) Report {
	rep := Report{
		Checks:  append([]policy.RuleResult(nil), results...),
		Summary: Summary{Total: len(results)},
	}

	for _, res := range results {
		switch res.Outcome {
		case policy.OutcomeViolation:
			rep.Summary.Violations++
		case policy.OutcomeError:
			rep.Summary.Errors++
		}
	}
	rep.Summary.Passed = rep.Summary.Total - rep.Summary.Violations

	// An evaluation error never flips the overall status: it is
	// surfaced, not treated as a pass or a breach.
	if rep.Summary.Violations > 0 {
		rep.Summary.Status = StatusViolationsFound
	} else {
		rep.Summary.Status = StatusAllChecksPassed
	}

	return rep
}
