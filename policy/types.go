package policy

import (
	"time"

	"github.com/yairfalse/vigil/types"
)

// Outcome tags a single rule result.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeViolation Outcome = "violation"
	OutcomeError     Outcome = "evaluation_error"
)

// RuleResult is the outcome of evaluating one catalog rule. Exactly one
// exists per catalog rule per run.
type RuleResult struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Outcome     Outcome `json:"outcome"`
	// Value holds the raw evaluated result when the expression ran.
	// Policies attach arbitrary diagnostic payloads, so the shape is
	// theirs, not ours.
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Thresholds are the configurable limits the builtin rules read from
// the evaluation input.
type Thresholds struct {
	MaxAdmins int `json:"max_admins" yaml:"max_admins"`
	StaleDays int `json:"stale_days" yaml:"stale_days"`
}

const (
	DefaultMaxAdmins = 4
	DefaultStaleDays = 365
)

// Input is the document rule expressions evaluate against. Staleness is
// computed relative to extracted_at, never wall clock, so the same
// (catalog, snapshot) pair always yields the same report.
type Input struct {
	Workspace   types.Workspace `json:"workspace"`
	Users       []types.User    `json:"users"`
	Projects    []types.Project `json:"projects"`
	ExtractedAt string          `json:"extracted_at"`
	Thresholds  Thresholds      `json:"thresholds"`
}

// BuildInput assembles the evaluation input from a snapshot, filling in
// default thresholds where unset.
func BuildInput(snap *types.Snapshot, th Thresholds) Input {
	if th.MaxAdmins <= 0 {
		th.MaxAdmins = DefaultMaxAdmins
	}
	if th.StaleDays <= 0 {
		th.StaleDays = DefaultStaleDays
	}

	return Input{
		Workspace:   snap.Workspace,
		Users:       snap.Users,
		Projects:    snap.Projects,
		ExtractedAt: snap.ExtractedAt.UTC().Format(time.RFC3339Nano),
		Thresholds:  th,
	}
}
