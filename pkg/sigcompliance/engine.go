// Package sigcompliance evaluates post-hoc compliance rules against a
// finished BatchOutcome: expressions over the batch's success, failure and
// skip counts, like "did any transaction fail?" or "were more than two
// factor sources skipped in this batch?", are compiled once and cached, the way a PRG policy
// engine compiles requirement expressions once per unique rule string.
package sigcompliance

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/ironvault/sigcollector/pkg/petition"
)

// Rule is a named CEL boolean expression evaluated against a batch
// outcome's summary. A Rule that evaluates true is a compliance flag, not
// necessarily a failure — e.g. "batch_had_skips" is informational.
type Rule struct {
	Name       string
	Expression string
}

// Flag is one rule's outcome against one batch.
type Flag struct {
	Rule    string
	Matched bool
}

// Engine compiles and caches compliance rule expressions.
type Engine struct {
	env   *cel.Env
	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewEngine builds an Engine with the input variable shape
// (success_count, fail_count, skipped_count) every rule expression sees.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("success_count", cel.IntType),
		cel.Variable("fail_count", cel.IntType),
		cel.Variable("skipped_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("sigcompliance: creating CEL env: %w", err)
	}
	return &Engine{env: env, cache: make(map[string]cel.Program)}, nil
}

func (e *Engine) compile(expression string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("sigcompliance: compiling %q: %w", expression, issues.Err())
	}
	if err := validateDeterministic(ast); err != nil {
		return nil, fmt.Errorf("sigcompliance: rejecting %q: %w", expression, err)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("sigcompliance: building program for %q: %w", expression, err)
	}
	e.cache[expression] = prg
	return prg, nil
}

// validateDeterministic walks ast's expression tree and rejects constructs
// that would make a compliance flag depend on anything besides the batch
// summary counts it was evaluated against — the same AST pre-validation
// core/pkg/kernel/celdp/validator.go runs before caching a compiled CEL
// program, narrowed to the constructs a rule over success_count/fail_count/
// skipped_count could plausibly misuse: wall-clock reads and floating point
// comparisons, both of which would make a rule's flag non-reproducible from
// the same BatchOutcome.
func validateDeterministic(ast *cel.Ast) error {
	expr := ast.Expr() //nolint:staticcheck // deprecated but the only AST accessor cel-go exposes
	var issues []string
	walkExpr(expr, &issues)
	if len(issues) > 0 {
		return fmt.Errorf("non-deterministic rule: %v", issues)
	}
	return nil
}

func walkExpr(e *exprpb.Expr, issues *[]string) {
	if e == nil {
		return
	}
	switch k := e.ExprKind.(type) {
	case *exprpb.Expr_ConstExpr:
		if _, ok := k.ConstExpr.ConstantKind.(*exprpb.Constant_DoubleValue); ok {
			*issues = append(*issues, "floating point literals are forbidden")
		}
	case *exprpb.Expr_CallExpr:
		call := k.CallExpr
		if call.Function == "now" {
			*issues = append(*issues, "now() is forbidden")
		}
		if call.Target != nil {
			walkExpr(call.Target, issues)
		}
		for _, arg := range call.Args {
			walkExpr(arg, issues)
		}
	case *exprpb.Expr_SelectExpr:
		walkExpr(k.SelectExpr.Operand, issues)
	case *exprpb.Expr_ListExpr:
		for _, el := range k.ListExpr.Elements {
			walkExpr(el, issues)
		}
	case *exprpb.Expr_StructExpr:
		for _, entry := range k.StructExpr.Entries {
			if entry.GetMapKey() != nil {
				walkExpr(entry.GetMapKey(), issues)
			}
			walkExpr(entry.Value, issues)
		}
	case *exprpb.Expr_ComprehensionExpr:
		comp := k.ComprehensionExpr
		walkExpr(comp.IterRange, issues)
		walkExpr(comp.AccuInit, issues)
		walkExpr(comp.LoopCondition, issues)
		walkExpr(comp.LoopStep, issues)
		walkExpr(comp.Result, issues)
	}
}

// Evaluate runs every rule against outcome and returns one Flag per rule.
func (e *Engine) Evaluate(rules []Rule, outcome petition.BatchOutcome) ([]Flag, error) {
	input := map[string]interface{}{
		"success_count": int64(len(outcome.Successful)),
		"fail_count":    int64(len(outcome.Failed)),
		"skipped_count": int64(len(outcome.SkippedFactorSources)),
	}

	flags := make([]Flag, 0, len(rules))
	for _, rule := range rules {
		prg, err := e.compile(rule.Expression)
		if err != nil {
			return nil, err
		}
		out, _, err := prg.Eval(input)
		if err != nil {
			return nil, fmt.Errorf("sigcompliance: evaluating rule %s: %w", rule.Name, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("sigcompliance: rule %s did not evaluate to a boolean", rule.Name)
		}
		flags = append(flags, Flag{Rule: rule.Name, Matched: matched})
	}
	return flags, nil
}
