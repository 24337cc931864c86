package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/yairfalse/vigil/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// resultQuery is the document every rule module must define.
const resultQuery = "data.vigil.result"

// EvalError describes a single rule's failed evaluation: compile
// failure, runtime failure, or an expression that never binds result.
// The runner recovers it locally and surfaces it as that rule's
// outcome; it never propagates past the run.
type EvalError struct {
	RuleID string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Engine evaluates rule expressions with OPA.
//
// Evaluation is pure: no I/O, no mutation of the input document, and
// deterministic for a given (expression, input) pair. Safe for
// concurrent use; prepared queries are cached per rule id so repeated
// runs in daemon mode skip recompilation.
type Engine struct {
	logger *telemetry.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	queries map[string]rego.PreparedEvalQuery
}

// NewEngine creates a new expression engine.
func NewEngine() *Engine {
	return &Engine{
		logger:  telemetry.NewLogger("policy-engine"),
		tracer:  otel.Tracer("policy-engine"),
		queries: make(map[string]rego.PreparedEvalQuery),
	}
}

// Evaluate runs one rule expression against the input document and
// returns the value the expression bound to result.
func (e *Engine) Evaluate(ctx context.Context, ruleID, expr string, input Input) (any, error) {
	ctx, span := e.tracer.Start(ctx, "policy_engine.evaluate",
		trace.WithAttributes(attribute.String("rule.id", ruleID)))
	defer span.End()

	query, err := e.prepare(ctx, ruleID, expr)
	if err != nil {
		return nil, &EvalError{RuleID: ruleID, Err: fmt.Errorf("compile: %w", err)}
	}

	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, &EvalError{RuleID: ruleID, Err: fmt.Errorf("eval: %w", err)}
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, &EvalError{RuleID: ruleID, Err: fmt.Errorf("expression does not define %s", resultQuery)}
	}

	return results[0].Expressions[0].Value, nil
}

// prepare compiles the expression once per rule id and caches the
// prepared query.
func (e *Engine) prepare(ctx context.Context, ruleID, expr string) (rego.PreparedEvalQuery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if query, ok := e.queries[ruleID]; ok {
		return query, nil
	}

	prepared, err := rego.New(
		rego.Query(resultQuery),
		rego.Module(ruleID+".rego", expr),
	).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, err
	}

	e.logger.WithContext(ctx).Debug().
		Str("rule_id", ruleID).
		Msg("rule expression compiled")

	e.queries[ruleID] = prepared
	return prepared, nil
}
