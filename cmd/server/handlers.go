package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/monitor"
	"github.com/yourorg/komoju-gateway/internal/policy"
	"github.com/yourorg/komoju-gateway/internal/processor"
	"github.com/yourorg/komoju-gateway/internal/reporting"
)

const serviceName = "komoju-gateway"

// maxBatchItems bounds the operations, and so the goroutines, one batch may start.
const maxBatchItems = 100

// dependencies are the collaborators the HTTP handlers need.
type dependencies struct {
	processor       *processor.Processor
	policy          *policy.PaymentPolicyEnforcer
	reporter        *reporting.RetrospectiveReporter
	requestMonitor  *monitor.ContractMonitor
	tracerProvider  trace.TracerProvider
	log             *zap.Logger
	defaultCurrency string
}

type operationResult struct {
	RequestID string                `json:"request_id"`
	Operation string                `json:"operation"`
	Response  *adapter.Response     `json:"response,omitempty"`
	Decision  *policy.PolicyDecision `json:"decision,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type batchResult struct {
	BatchID       string                         `json:"batch_id"`
	Results       []operationResult              `json:"results"`
	Retrospective *reporting.RetrospectiveReport `json:"retrospective"`
}

func setupRouter(deps dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(deps.tracerProvider)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/operations", deps.processOperationHandler)
	v1.POST("/operations/batch", deps.processBatchHandler)
	return router
}

func (d dependencies) processOperationHandler(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	req, ok := d.decodeOperation(c, raw)
	if !ok {
		return
	}

	requestID := uuid.NewString()
	resp, err := d.processor.Process(c.Request.Context(), req)
	result := d.evaluate(requestID, processor.Result{Request: req, Response: resp, Err: err})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (d dependencies) processBatchHandler(c *gin.Context) {
	var items []json.RawMessage
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: batch is empty"})
		return
	}
	if len(items) > maxBatchItems {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Validation failed: batch has %d items, limit is %d", len(items), maxBatchItems)})
		return
	}

	reqs := make([]processor.OperationRequest, 0, len(items))
	for i, item := range items {
		req, ok := d.decodeOperation(c, item, zap.Int("index", i))
		if !ok {
			return
		}
		reqs = append(reqs, req)
	}

	batchID := uuid.NewString()
	processed := d.processor.ProcessBatch(c.Request.Context(), reqs)

	now := time.Now().UTC()
	results := make([]operationResult, 0, len(processed))
	entries := make([]reporting.LogEntry, 0, len(processed))
	for _, res := range processed {
		requestID := uuid.NewString()
		result := d.evaluate(requestID, res)
		results = append(results, result)

		var decision policy.PolicyDecision
		if result.Decision != nil {
			decision = *result.Decision
		}
		entries = append(entries, reporting.EntryFromResult(requestID, res, decision, d.defaultCurrency, now))
	}

	report, err := d.reporter.GenerateRetrospective(entries)
	if err != nil {
		d.log.Error("Failed to generate retrospective", zap.String("batch_id", batchID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate retrospective"})
		return
	}
	c.JSON(http.StatusOK, batchResult{BatchID: batchID, Results: results, Retrospective: report})
}

// decodeOperation validates raw against the operation request contract and
// writes a 400 response when it does not conform.
func (d dependencies) decodeOperation(c *gin.Context, raw []byte, fields ...zap.Field) (processor.OperationRequest, bool) {
	var req processor.OperationRequest

	valid, violations, err := d.requestMonitor.Validate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return req, false
	}
	if !valid {
		d.log.Info("Rejected operation request", append(fields, zap.Strings("violations", violations))...)
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return req, false
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return req, false
	}
	return req, true
}

// evaluate attaches the retry advice to a processed request.
func (d dependencies) evaluate(requestID string, res processor.Result) operationResult {
	result := operationResult{RequestID: requestID, Operation: res.Request.Operation}
	if res.Err != nil {
		result.Error = res.Err.Error()
		d.log.Info("Operation request rejected", zap.String("request_id", requestID), zap.Error(res.Err))
		return result
	}

	resp := res.Response
	result.Response = &resp
	decision, err := d.policy.Evaluate(res.Request.Operation, resp)
	if err != nil {
		d.log.Error("Policy evaluation failed", zap.String("request_id", requestID), zap.Error(err))
		return result
	}
	result.Decision = &decision
	return result
}
