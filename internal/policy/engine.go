// Package policy evaluates the deterministic rule set against transaction
// attributes, independently of any ML signal. Rules are CEL expressions
// compiled once per configuration snapshot; evaluation is a pure function of
// the transaction and the versioned rule set.
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"golang.org/x/sync/errgroup"

	"fraudshield/internal/domain"
	"fraudshield/internal/platform/config"
	"fraudshield/pkg/faults"
)

// Engine holds the compiled rule set for one configuration snapshot. It is
// immutable after construction; a config reload builds a new Engine and the
// orchestrator swaps it atomically.
type Engine struct {
	version string
	rules   []compiledRule
}

type compiledRule struct {
	cfg config.Rule
	prg cel.Program
}

// NewEngine compiles the rule set. A rule that fails to compile rejects the
// whole set so an invalid reload can never become active.
func NewEngine(p config.Policy) (*Engine, error) {
	env, err := cel.NewEnv(cel.Variable("txn", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	rules := make([]compiledRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile: %w", r.ID, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule %s: expression must be boolean, got %s", r.ID, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: program: %w", r.ID, err)
		}
		rules = append(rules, compiledRule{cfg: r, prg: prg})
	}

	return &Engine{version: p.RuleSetVersion, rules: rules}, nil
}

// Version returns the rule set version this engine was compiled from.
func (e *Engine) Version() string { return e.version }

// Evaluate runs every rule against the transaction. Rules share no mutable
// state and run in parallel; the verdict order in the result is by rule
// priority so output is deterministic regardless of scheduling. A rule whose
/// inputs are malformed fails closed: it yields SOFT_BLOCK with reason
// POLICY_INPUT_INVALID, never a silent PASS.
func (e *Engine) Evaluate(ctx context.Context, txn domain.Transaction, velocity24h int) []domain.PolicyVerdict {
	attrs := attributeMap(txn, velocity24h)
	input := map[string]any{"txn": attrs}

	results := make([]*domain.PolicyVerdict, len(e.rules))
	g, _ := errgroup.WithContext(ctx)
	for i, rule := range e.rules {
		g.Go(func() error {
			results[i] = rule.evaluate(input)
			return nil
		})
	}
	_ = g.Wait()

	verdicts := make([]domain.PolicyVerdict, 0, len(results))
	for _, v := range results {
		if v != nil {
			verdicts = append(verdicts, *v)
		}
	}
	sort.SliceStable(verdicts, func(i, j int) bool {
		if verdicts[i].Outcome.Severity() != verdicts[j].Outcome.Severity() {
			return verdicts[i].Outcome.Severity() > verdicts[j].Outcome.Severity()
		}
		return verdicts[i].Priority < verdicts[j].Priority
	})
	return verdicts
}

// evaluate returns nil when the rule did not match.
func (r compiledRule) evaluate(input map[string]any) *domain.PolicyVerdict {
	out, _, err := r.prg.Eval(input)
	if err != nil {
		return &domain.PolicyVerdict{
			RuleID:    r.cfg.ID,
			Priority:  r.cfg.Priority,
			Outcome:   domain.OutcomeSoftBlock,
			Reason:    string(faults.CodePolicyInputInvalid),
			Citation:  r.cfg.Citation,
			Threshold: r.cfg.Threshold,
		}
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return &domain.PolicyVerdict{
			RuleID:    r.cfg.ID,
			Priority:  r.cfg.Priority,
			Outcome:   domain.OutcomeSoftBlock,
			Reason:    string(faults.CodePolicyInputInvalid),
			Citation:  r.cfg.Citation,
			Threshold: r.cfg.Threshold,
		}
	}
	if !matched {
		return nil
	}

	return &domain.PolicyVerdict{
		RuleID:    r.cfg.ID,
		Priority:  r.cfg.Priority,
		Outcome:   domain.Outcome(r.cfg.Outcome),
		Reason:    r.cfg.Reason,
		Citation:  r.cfg.Citation,
		Threshold: r.cfg.Threshold,
	}
}

// Worst returns the minimum-permissiveness verdict, ties broken by rule
// priority. The second return is false when no rule matched.
func Worst(verdicts []domain.PolicyVerdict) (domain.PolicyVerdict, bool) {
	if len(verdicts) == 0 {
		return domain.PolicyVerdict{}, false
	}
	worst := verdicts[0]
	for _, v := range verdicts[1:] {
		if v.Outcome.Severity() > worst.Outcome.Severity() ||
			(v.Outcome.Severity() == worst.Outcome.Severity() && v.Priority < worst.Priority) {
			worst = v
		}
	}
	return worst, true
}

// attributeMap exposes the transaction to rule expressions. Only coarse
// behavioral attributes are visible; raw payer/payee references never enter
// rule evaluation.
func attributeMap(txn domain.Transaction, velocity24h int) map[string]any {
	return map[string]any{
		"amount":              txn.Amount,
		"channel":             string(txn.Channel),
		"hour":                txn.Hour(),
		"is_night":            txn.IsNight(),
		"beneficiary_age_min": txn.BeneficiaryAgeMin,
		"device_changed":      txn.DeviceChanged,
		"location_velocity":   txn.LocationVelocity,
		"failed_auth_24h":     txn.FailedAuth24h,
		"txn_velocity_24h":    velocity24h,
	}
}
