package policy

import (
	"context"
	"sync"

	"github.com/yairfalse/vigil/catalog"
	"github.com/yairfalse/vigil/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner drives the engine once per catalog rule and collects exactly
// one RuleResult per rule. One failing rule never aborts the batch or
// hides another rule's result; that isolation is the runner's central
// correctness property.
type Runner struct {
	engine  *Engine
	logger  *telemetry.Logger
	tracer  trace.Tracer
	workers int
}

// NewRunner creates a runner over the given engine.
func NewRunner(engine *Engine) *Runner {
	return &Runner{
		engine:  engine,
		logger:  telemetry.NewLogger("rule-runner"),
		tracer:  otel.Tracer("rule-runner"),
		workers: 1,
	}
}

// WithWorkers sets the evaluation fan-out. Rules never depend on each
// other's outcomes and the input is read-only, so parallel evaluation
// is safe; results still land in catalog order.
func (r *Runner) WithWorkers(n int) *Runner {
	if n > 0 {
		r.workers = n
	}
	return r
}

// Run evaluates every catalog rule against the input and returns the
// results in catalog order.
func (r *Runner) Run(ctx context.Context, cat *catalog.Catalog, input Input) []RuleResult {
	ctx, span := r.tracer.Start(ctx, "rule_runner.run",
		trace.WithAttributes(attribute.Int("catalog.size", cat.Len())))
	defer span.End()

	rules := cat.Rules()
	results := make([]RuleResult, len(rules))

	if r.workers <= 1 {
		for i, rule := range rules {
			results[i] = r.runOne(ctx, rule, input)
		}
		return results
	}

	// Each goroutine writes only its own index, so completion order
	// cannot reorder the report.
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, rule := range rules {
		wg.Add(1)
		go func(i int, rule catalog.Rule) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runOne(ctx, rule, input)
		}(i, rule)
	}
	wg.Wait()

	return results
}

// runOne evaluates a single rule. Failures are terminal for the rule,
// not retried: evaluation is deterministic, so a retry cannot change
// the outcome.
func (r *Runner) runOne(ctx context.Context, rule catalog.Rule, input Input) RuleResult {
	result := RuleResult{ID: rule.ID, Description: rule.Description}

	value, err := r.engine.Evaluate(ctx, rule.ID, rule.Expr, input)
	if err != nil {
		r.logger.LogRuleError(ctx, rule.ID, err)
		result.Outcome = OutcomeError
		result.Error = err.Error()
		return result
	}

	result.Value = value
	result.Outcome = outcomeOf(value)

	r.logger.WithContext(ctx).Debug().
		Str("rule_id", rule.ID).
		Str("outcome", string(result.Outcome)).
		Msg("rule evaluated")

	return result
}

// outcomeOf derives the outcome from the rule's own output shape: a
// result carrying violation == true means the policy was breached.
func outcomeOf(value any) Outcome {
	if m, ok := value.(map[string]any); ok {
		if v, ok := m["violation"].(bool); ok && v {
			return OutcomeViolation
		}
	}
	return OutcomeOK
}
