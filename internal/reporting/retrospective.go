package reporting

import (
	"time"

	"github.com/yourorg/komoju-gateway/internal/policy"
	"github.com/yourorg/komoju-gateway/internal/processor"
)

// LogEntry is the record of one gateway operation.
type LogEntry struct {
	Timestamp     time.Time
	RequestID     string
	Gateway       string
	Operation     string
	Success       bool
	Amount        int64
	Currency      string
	Authorization string
	ErrorCode     string
	Message       string
	Retryable     bool // caller-side advice from the retry policy
	Test          bool
}

// RetrospectiveReport summarizes a set of operations.
type RetrospectiveReport struct {
	TotalOperations      int              `json:"total_operations"`
	SuccessfulOperations int              `json:"successful_operations"`
	FailedOperations     int              `json:"failed_operations"`
	RetryableFailures    int              `json:"retryable_failures"`
	TotalAmountProcessed int64            `json:"total_amount_processed"` // successful purchases and captures
	AmountByCurrency     map[string]int64 `json:"amount_by_currency"`
	AmountRefunded       map[string]int64 `json:"amount_refunded"` // successful refunds and voids
	ErrorBreakdown       map[string]int   `json:"error_breakdown"`
	OperationUsage       map[string]int   `json:"operation_usage"`
	DateFrom             time.Time        `json:"date_from"`
	DateTo               time.Time        `json:"date_to"`
	ProcessingDuration   time.Duration    `json:"processing_duration"`
}

// RetrospectiveReporter generates retrospective reports from log entries.
type RetrospectiveReporter struct{}

func NewRetrospectiveReporter() *RetrospectiveReporter {
	return &RetrospectiveReporter{}
}

// EntryFromResult builds a LogEntry for a processed request. Voids carry no
// amount in the request, so the refunded total reported by the remote is used.
func EntryFromResult(requestID string, res processor.Result, decision policy.PolicyDecision, defaultCurrency string, ts time.Time) LogEntry {
	currency := res.Request.Options.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	amount := res.Request.Amount
	if res.Request.Operation == processor.OperationVoid {
		if refunded, ok := res.Response.Params["amount_refunded"].(float64); ok {
			amount = int64(refunded)
		}
	}

	entry := LogEntry{
		Timestamp:     ts,
		RequestID:     requestID,
		Gateway:       res.Request.Gateway,
		Operation:     res.Request.Operation,
		Success:       res.Response.Success,
		Amount:        amount,
		Currency:      currency,
		Authorization: res.Response.Authorization,
		ErrorCode:     res.Response.ErrorCode,
		Message:       res.Response.Message,
		Retryable:     decision.AllowRetry,
		Test:          res.Response.Test,
	}
	if res.Err != nil {
		entry.Success = false
		entry.ErrorCode = "invalid_request"
		entry.Message = res.Err.Error()
		entry.Retryable = false
	}
	return entry
}

// GenerateRetrospective analyzes logs and produces a RetrospectiveReport.
func (rr *RetrospectiveReporter) GenerateRetrospective(logs []LogEntry) (*RetrospectiveReport, error) {
	report := &RetrospectiveReport{
		AmountByCurrency: make(map[string]int64),
		AmountRefunded:   make(map[string]int64),
		ErrorBreakdown:   make(map[string]int),
		OperationUsage:   make(map[string]int),
	}
	if len(logs) == 0 {
		return report, nil
	}

	report.DateFrom = logs[0].Timestamp
	report.DateTo = logs[0].Timestamp
	for _, log := range logs {
		report.TotalOperations++

		if log.Timestamp.Before(report.DateFrom) {
			report.DateFrom = log.Timestamp
		}
		if log.Timestamp.After(report.DateTo) {
			report.DateTo = log.Timestamp
		}
		if log.Operation != "" {
			report.OperationUsage[log.Operation]++
		}

		if !log.Success {
			report.FailedOperations++
			if log.ErrorCode != "" {
				report.ErrorBreakdown[log.ErrorCode]++
			}
			if log.Retryable {
				report.RetryableFailures++
			}
			continue
		}

		report.SuccessfulOperations++
		switch log.Operation {
		case processor.OperationPurchase, processor.OperationCapture:
			report.TotalAmountProcessed += log.Amount
			report.AmountByCurrency[log.Currency] += log.Amount
		case processor.OperationRefund, processor.OperationVoid:
			report.AmountRefunded[log.Currency] += log.Amount
		}
	}
	report.ProcessingDuration = report.DateTo.Sub(report.DateFrom)

	return report, nil
}
