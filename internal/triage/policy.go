package triage

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// PolicyFacts are the case attributes policy conditions are evaluated against.
type PolicyFacts struct {
	Severity          string
	Category          string
	Amount            float64
	VictimFlagPresent bool
	GoldenHour        bool
}

// FactsFromCase extracts policy facts from a triaged case.
func FactsFromCase(c *domain.Case) PolicyFacts {
	facts := PolicyFacts{Amount: c.Intake.AmountINR}
	if c.Triage != nil {
		facts.Severity = c.Triage.Severity
		facts.Category = c.Triage.CategoryID
		facts.VictimFlagPresent = c.Triage.VictimFlagPresent
		facts.GoldenHour = c.Triage.GoldenHour
	}
	return facts
}

// PolicyEngine evaluates policy rules compiled to CEL programs.
type PolicyEngine struct {
	env      *cel.Env
	policies []compiledPolicy
	messages map[string]string
}

type compiledPolicy struct {
	rule       domain.PolicyRule
	expression string
	program    cel.Program
}

// NewPolicyEngine compiles every policy condition. A condition that does
// not compile to a boolean expression is a configuration error.
func NewPolicyEngine(rules domain.PolicyRules) (*PolicyEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("severity", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("victim_flag_present", cel.BoolType),
		cel.Variable("golden_hour", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &PolicyEngine{
		env:      env,
		policies: make([]compiledPolicy, 0, len(rules.Policies)),
		messages: rules.ActionMessages,
	}

	for _, rule := range rules.Policies {
		expr := ConditionExpression(rule.Condition)
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile policy %s: %w", rule.ID, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("policy %s: condition must return bool, got %s", rule.ID, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for policy %s: %w", rule.ID, err)
		}
		e.policies = append(e.policies, compiledPolicy{rule: rule, expression: expr, program: program})
	}

	return e, nil
}

// ConditionExpression renders a policy condition as a CEL expression.
// Absent predicates contribute nothing; an empty condition is "true".
func ConditionExpression(c domain.PolicyCondition) string {
	var clauses []string
	if c.Severity != "" {
		clauses = append(clauses, "severity == "+strconv.Quote(c.Severity))
	}
	if c.Category != "" {
		clauses = append(clauses, "category == "+strconv.Quote(c.Category))
	}
	if c.AmountGTE != nil {
		clauses = append(clauses, "amount >= "+celDouble(*c.AmountGTE))
	}
	if c.VictimFlagPresent != nil {
		clauses = append(clauses, "victim_flag_present == "+strconv.FormatBool(*c.VictimFlagPresent))
	}
	if c.GoldenHour != nil {
		clauses = append(clauses, "golden_hour == "+strconv.FormatBool(*c.GoldenHour))
	}
	if strings.TrimSpace(c.Expression) != "" {
		clauses = append(clauses, "("+c.Expression+")")
	}
	if len(clauses) == 0 {
		return "true"
	}
	return strings.Join(clauses, " && ")
}

// celDouble formats a float so CEL parses it as a double literal.
func celDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Evaluate returns an action for every matching policy, ordered by
// ascending priority. Policies with equal priority keep table order.
func (e *PolicyEngine) Evaluate(facts PolicyFacts) []domain.PolicyAction {
	activation := map[string]any{
		"severity":            facts.Severity,
		"category":            facts.Category,
		"amount":              facts.Amount,
		"victim_flag_present": facts.VictimFlagPresent,
		"golden_hour":         facts.GoldenHour,
	}

	actions := []domain.PolicyAction{}
	for _, p := range e.policies {
		out, _, err := p.program.Eval(activation)
		if err != nil {
			slog.Warn("policy evaluation failed", "policy_id", p.rule.ID, "error", err)
			continue
		}
		if matched, ok := out.(types.Bool); !ok || !bool(matched) {
			continue
		}

		message, ok := e.messages[p.rule.Action]
		if !ok {
			message = p.rule.Description
		}
		actions = append(actions, domain.PolicyAction{
			PolicyID:   p.rule.ID,
			PolicyName: p.rule.Name,
			Action:     p.rule.Action,
			Message:    message,
			Priority:   p.rule.Priority,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority < actions[j].Priority
	})
	return actions
}

// Count returns the number of compiled policies.
func (e *PolicyEngine) Count() int {
	return len(e.policies)
}

// Expressions returns the compiled CEL expression per policy id.
func (e *PolicyEngine) Expressions() map[string]string {
	out := make(map[string]string, len(e.policies))
	for _, p := range e.policies {
		out[p.rule.ID] = p.expression
	}
	return out
}
