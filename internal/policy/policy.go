// Package policy turns a gateway Response into caller-side advice: whether a
// failed operation is worth retrying and whether it needs manual review.
// The gateway itself never retries.
package policy

import (
	"fmt"
	"sort"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/komoju-gateway/internal/adapter"
)

// PolicyDecision represents the outcome of a policy evaluation.
type PolicyDecision struct {
	AllowRetry     bool   `json:"allow_retry"`
	EscalateManual bool   `json:"escalate_manual"`
	RuleID         string `json:"rule_id,omitempty"` // empty when no rule matched
}

// PolicyRule is a boolean govaluate expression over the variables
// operation, success, error_code, http_status and test.
// Lower Priority values are evaluated first.
type PolicyRule struct {
	ID         string
	Expression string
	Priority   int
	Decision   PolicyDecision
}

type compiledRule struct {
	rule PolicyRule
	expr *govaluate.EvaluableExpression
}

// PaymentPolicyEnforcer evaluates compiled rules against operation results.
// It is immutable after construction and safe for concurrent use.
type PaymentPolicyEnforcer struct {
	rules []compiledRule
}

// DefaultRules advise a retry for timeouts and for processing errors caused
// by the remote side or the network. Everything else is final.
func DefaultRules() []PolicyRule {
	return []PolicyRule{
		{
			ID:         "gateway_timeout_retry",
			Expression: "error_code == 'gateway_timeout'",
			Priority:   10,
			Decision:   PolicyDecision{AllowRetry: true},
		},
		{
			ID:         "remote_processing_error_retry",
			Expression: "error_code == 'processing_error' && (http_status >= 500 || http_status == 0)",
			Priority:   20,
			Decision:   PolicyDecision{AllowRetry: true},
		},
	}
}

// NewPaymentPolicyEnforcer compiles rules and orders them by priority.
// Rules with equal priority keep their given order.
func NewPaymentPolicyEnforcer(rules []PolicyRule) (*PaymentPolicyEnforcer, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Expression == "" {
			return nil, fmt.Errorf("policy rule ID '%s' has an empty expression", rule.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", rule.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, expr: expr})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority < compiled[j].rule.Priority
	})
	return &PaymentPolicyEnforcer{rules: compiled}, nil
}

// Evaluate returns the decision of the first matching rule, or a decision
// that neither retries nor escalates.
func (ppe *PaymentPolicyEnforcer) Evaluate(operation string, resp adapter.Response) (PolicyDecision, error) {
	params := map[string]interface{}{
		"operation":   operation,
		"success":     resp.Success,
		"error_code":  resp.ErrorCode,
		"http_status": float64(resp.HTTPStatus), // govaluate compares numbers as float64
		"test":        resp.Test,
	}

	for _, cr := range ppe.rules {
		result, err := cr.expr.Evaluate(params)
		if err != nil {
			return PolicyDecision{}, fmt.Errorf("failed to evaluate rule ID '%s': %w", cr.rule.ID, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return PolicyDecision{}, fmt.Errorf("rule ID '%s' did not evaluate to a boolean (got %T)", cr.rule.ID, result)
		}
		if matched {
			decision := cr.rule.Decision
			decision.RuleID = cr.rule.ID
			return decision, nil
		}
	}
	return PolicyDecision{}, nil
}
