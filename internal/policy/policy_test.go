package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/komoju-gateway/internal/adapter"
)

func TestNewPaymentPolicyEnforcer_EmptyAndNilRules(t *testing.T) {
	ppe, err := NewPaymentPolicyEnforcer(nil)
	require.NoError(t, err)
	assert.Empty(t, ppe.rules)

	ppe, err = NewPaymentPolicyEnforcer([]PolicyRule{})
	require.NoError(t, err)
	assert.Empty(t, ppe.rules)
}

func TestNewPaymentPolicyEnforcer_CompilationError(t *testing.T) {
	rules := []PolicyRule{
		{ID: "rule1", Expression: "http_status > 500"},
		{ID: "rule2", Expression: "error_code ==", Decision: PolicyDecision{AllowRetry: true}},
	}
	_, err := NewPaymentPolicyEnforcer(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile rule ID 'rule2'")
	assert.Contains(t, err.Error(), "Unexpected end of expression")

	_, err = NewPaymentPolicyEnforcer([]PolicyRule{{ID: "bad_func", Expression: "nonExistentFunction(http_status) == true"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined function nonExistentFunction")
}

func TestNewPaymentPolicyEnforcer_EmptyExpressionInRule(t *testing.T) {
	_, err := NewPaymentPolicyEnforcer([]PolicyRule{{ID: "empty_expr_rule"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy rule ID 'empty_expr_rule' has an empty expression")
}

func TestPaymentPolicyEnforcer_DefaultRules(t *testing.T) {
	ppe, err := NewPaymentPolicyEnforcer(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		name      string
		operation string
		resp      adapter.Response
		wantRetry bool
		wantRule  string
	}{
		{
			name:      "Success",
			operation: "purchase",
			resp:      adapter.Response{Success: true, Authorization: "pay_1", Message: "Success"},
		},
		{
			name:      "GatewayTimeout",
			operation: "purchase",
			resp:      adapter.Response{ErrorCode: adapter.ErrorCodeGatewayTimeout, HTTPStatus: 504},
			wantRetry: true,
			wantRule:  "gateway_timeout_retry",
		},
		{
			name:      "ServerError",
			operation: "refund",
			resp:      adapter.Response{ErrorCode: adapter.ErrorCodeProcessingError, HTTPStatus: 502},
			wantRetry: true,
			wantRule:  "remote_processing_error_retry",
		},
		{
			name:      "NetworkError",
			operation: "capture",
			resp:      adapter.Response{ErrorCode: adapter.ErrorCodeProcessingError},
			wantRetry: true,
			wantRule:  "remote_processing_error_retry",
		},
		{
			name:      "ClientSideProcessingError",
			operation: "purchase",
			resp:      adapter.Response{ErrorCode: adapter.ErrorCodeProcessingError, HTTPStatus: 422},
		},
		{
			name:      "MissingParameterIsFinal",
			operation: "purchase",
			resp:      adapter.Response{ErrorCode: adapter.ErrorCodeMissingParameter, HTTPStatus: 400},
		},
		{
			name:      "CardDeclinedIsFinal",
			operation: "purchase",
			resp:      adapter.Response{ErrorCode: "card_declined", HTTPStatus: 402},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := ppe.Evaluate(tt.operation, tt.resp)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRetry, decision.AllowRetry)
			assert.Equal(t, tt.wantRule, decision.RuleID)
			assert.False(t, decision.EscalateManual)
		})
	}
}

func TestPaymentPolicyEnforcer_PriorityOrder(t *testing.T) {
	rules := []PolicyRule{
		{ID: "any_failure_retry", Expression: "success == false", Priority: 5, Decision: PolicyDecision{AllowRetry: true}},
		{ID: "live_void_escalate", Expression: "operation == 'void' && test == false && success == false", Priority: 1, Decision: PolicyDecision{EscalateManual: true}},
	}
	ppe, err := NewPaymentPolicyEnforcer(rules)
	require.NoError(t, err)
	assert.Equal(t, "live_void_escalate", ppe.rules[0].rule.ID)

	decision, err := ppe.Evaluate("void", adapter.Response{ErrorCode: "not_found"})
	require.NoError(t, err)
	assert.True(t, decision.EscalateManual)
	assert.False(t, decision.AllowRetry)
	assert.Equal(t, "live_void_escalate", decision.RuleID)

	decision, err = ppe.Evaluate("void", adapter.Response{ErrorCode: "not_found", Test: true})
	require.NoError(t, err)
	assert.True(t, decision.AllowRetry)
	assert.Equal(t, "any_failure_retry", decision.RuleID)
}

func TestPaymentPolicyEnforcer_EvaluationErrors(t *testing.T) {
	t.Run("ParameterNotFound", func(t *testing.T) {
		ppe, err := NewPaymentPolicyEnforcer([]PolicyRule{{ID: "missing_param_rule", Expression: "undefinedParam > 10"}})
		require.NoError(t, err)

		_, err = ppe.Evaluate("purchase", adapter.Response{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No parameter 'undefinedParam' found.")
	})

	t.Run("NonBooleanResult", func(t *testing.T) {
		ppe, err := NewPaymentPolicyEnforcer([]PolicyRule{{ID: "numeric", Expression: "http_status + 1"}})
		require.NoError(t, err)

		_, err = ppe.Evaluate("purchase", adapter.Response{HTTPStatus: 500})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not evaluate to a boolean")
	})
}
