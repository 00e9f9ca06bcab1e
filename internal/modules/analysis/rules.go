package analysis

import (
	"fmt"

	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Rule emits Message when its CEL Expression evaluates to true
type Rule struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

// DefaultRules are the built-in recommendation rules
var DefaultRules = []Rule{
	{
		ID:         "low_esg_score",
		Expression: "total_score < 70.0",
		Message:    "Consider improving ESG metrics through targeted initiatives",
	},
	{
		ID:         "high_risk",
		Expression: "mean_severity > 0.6",
		Message:    "High risk level detected. Review risk mitigation strategies",
	},
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// RulesEngine evaluates compiled recommendation rules against a project's score.
// Rules are compiled once and evaluated in declaration order.
type RulesEngine struct {
	env   *cel.Env
	rules []compiledRule
}

// NewRulesEngine compiles rules. Every expression must return bool.
func NewRulesEngine(rules []Rule) (*RulesEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("total_score", cel.DoubleType),
		cel.Variable("environmental", cel.DoubleType),
		cel.Variable("social", cel.DoubleType),
		cel.Variable("governance", cel.DoubleType),
		cel.Variable("mean_severity", cel.DoubleType),
		cel.Variable("max_severity", cel.DoubleType),
		cel.Variable("risk_count", cel.IntType),
		cel.Variable("mitigation_coverage", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &RulesEngine{env: env, rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		program, err := e.compile(r)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, compiledRule{rule: r, program: program})
	}
	return e, nil
}

func (e *RulesEngine) compile(r Rule) (cel.Program, error) {
	ast, issues := e.env.Compile(r.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", r.ID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", r.ID, ast.OutputType())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", r.ID, err)
	}
	return program, nil
}

// Recommend returns the messages of every rule matching res
func (e *RulesEngine) Recommend(res scoring.Result) ([]string, error) {
	activation := activationFor(res)

	out := []string{}
	for _, cr := range e.rules {
		val, _, err := cr.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", cr.rule.ID, err)
		}
		if matched(val) {
			out = append(out, cr.rule.Message)
		}
	}
	return out, nil
}

// Len returns the number of compiled rules
func (e *RulesEngine) Len() int {
	return len(e.rules)
}

func activationFor(res scoring.Result) map[string]any {
	return map[string]any{
		"total_score":         res.Total,
		"environmental":       res.Environmental.Value,
		"social":              res.Social.Value,
		"governance":          res.Governance.Value,
		"mean_severity":       res.Risk.MeanSeverity,
		"max_severity":        res.Risk.MaxSeverity,
		"risk_count":          int64(res.Risk.Count),
		"mitigation_coverage": res.Risk.MitigationCoverage,
	}
}

func matched(val ref.Val) bool {
	b, ok := val.(types.Bool)
	return ok && bool(b)
}
