package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/vigil/catalog"
	"github.com/yairfalse/vigil/policy"
	"github.com/yairfalse/vigil/types"
)

func TestAssemble_Counts(t *testing.T) {
	results := []policy.RuleResult{
		{ID: "a", Outcome: policy.OutcomeOK},
		{ID: "b", Outcome: policy.OutcomeViolation},
		{ID: "c", Outcome: policy.OutcomeError, Error: "boom"},
		{ID: "d", Outcome: policy.OutcomeViolation},
	}

	rep := Assemble(results)

	assert.Equal(t, 4, rep.Summary.Total)
	assert.Equal(t, 2, rep.Summary.Violations)
	assert.Equal(t, 2, rep.Summary.Passed)
	assert.Equal(t, 1, rep.Summary.Errors)
	assert.Equal(t, StatusViolationsFound, rep.Summary.Status)

	// The documented invariants.
	assert.Equal(t, rep.Summary.Total, len(rep.Checks))
	assert.Equal(t, rep.Summary.Total, rep.Summary.Violations+rep.Summary.Passed)
}

func TestAssemble_AllPassed(t *testing.T) {
	rep := Assemble([]policy.RuleResult{
		{ID: "a", Outcome: policy.OutcomeOK},
		{ID: "b", Outcome: policy.OutcomeOK},
	})

	assert.Equal(t, StatusAllChecksPassed, rep.Summary.Status)
	assert.Equal(t, 2, rep.Summary.Passed)
	assert.Zero(t, rep.Summary.Violations)
}

func TestAssemble_ErrorIsNotAPass(t *testing.T) {
	// A catalog where every single rule errored still yields a full
	// report, and the errors stay visible in their own count.
	rep := Assemble([]policy.RuleResult{
		{ID: "a", Outcome: policy.OutcomeError, Error: "x"},
		{ID: "b", Outcome: policy.OutcomeError, Error: "y"},
	})

	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 2, rep.Summary.Errors)
	assert.Equal(t, StatusAllChecksPassed, rep.Summary.Status)
	assert.Len(t, rep.Checks, 2)
}

func TestAssemble_Empty(t *testing.T) {
	rep := Assemble(nil)

	assert.Zero(t, rep.Summary.Total)
	assert.Equal(t, StatusAllChecksPassed, rep.Summary.Status)
}

func TestAssemble_PreservesOrder(t *testing.T) {
	rep := Assemble([]policy.RuleResult{
		{ID: "z", Outcome: policy.OutcomeOK},
		{ID: "a", Outcome: policy.OutcomeOK},
		{ID: "m", Outcome: policy.OutcomeOK},
	})

	assert.Equal(t, "z", rep.Checks[0].ID)
	assert.Equal(t, "a", rep.Checks[1].ID)
	assert.Equal(t, "m", rep.Checks[2].ID)
}

func TestReport_Idempotent(t *testing.T) {
	// Same catalog, same snapshot: byte-identical reports. Staleness is
	// anchored on extracted_at, so nothing in the pipeline reads the
	// wall clock.
	snap := &types.Snapshot{
		Workspace: types.Workspace{GID: "ws-1", Name: "acme"},
		Users: []types.User{
			{GID: "1", Name: "Alice", IsAdmin: true},
			{GID: "2", Name: "Bob"},
		},
		Projects: []types.Project{
			{GID: "p-1", Name: "dusty", ModifiedAt: "2024-01-01T00:00:00Z"},
		},
		ExtractedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	input := policy.BuildInput(snap, policy.Thresholds{})
	cat := catalog.Builtin()

	run := func() []byte {
		runner := policy.NewRunner(policy.NewEngine())
		rep := Assemble(runner.Run(context.Background(), cat, input))
		data, err := rep.JSON()
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, run(), run())
}

func TestWriteTable(t *testing.T) {
	rep := Assemble([]policy.RuleResult{
		{
			ID:          "admin_count",
			Description: "No more than 4 Admins Configured",
			Outcome:     policy.OutcomeViolation,
			Value:       map[string]any{"violation": true, "admin_count": 5, "max_allowed": 4},
		},
		{
			ID:      "broken",
			Outcome: policy.OutcomeError,
			Error:   "rule broken: compile: oops",
		},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "admin_count")
	assert.Contains(t, out, "VIOLATION")
	assert.Contains(t, out, "admin_count=5")
	assert.Contains(t, out, "max_allowed=4")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "compile: oops")
	assert.Contains(t, out, "Violations found: 1")
	assert.Contains(t, out, StatusViolationsFound)
}

func TestWriteJSON(t *testing.T) {
	rep := Assemble([]policy.RuleResult{{ID: "a", Outcome: policy.OutcomeOK}})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	assert.Contains(t, buf.String(), `"overall_status": "all_checks_passed"`)
	assert.Contains(t, buf.String(), `"total_checks": 1`)
}
