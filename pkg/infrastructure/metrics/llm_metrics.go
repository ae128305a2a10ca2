// Package metrics provides reasoning-engine and pipeline metrics collection
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LLMMetrics collects metrics for reasoning-engine calls and the artifacts
// derived from them. A nil *LLMMetrics is valid and records nothing.
type LLMMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	retryCount      *prometheus.CounterVec
	parseFallbacks  *prometheus.CounterVec
	fixTransitions  *prometheus.CounterVec
}

// LLMRequestMetrics contains metrics for a single reasoning-engine request
type LLMRequestMetrics struct {
	Provider         string
	Model            string
	Duration         time.Duration
	Success          bool
	PromptTokens     int
	CompletionTokens int
	ErrorType        string
}

// NewLLMMetrics registers the collectors on reg. A nil reg registers on the
// default Prometheus registry.
func NewLLMMetrics(reg prometheus.Registerer) *LLMMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &LLMMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of reasoning engine requests",
		}, []string{"provider", "model", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of reasoning engine requests in seconds",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
		}, []string{"provider", "model", "status"}),

		tokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total number of tokens processed",
		}, []string{"provider", "model", "type"}), // type: prompt, completion

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_errors_total",
			Help: "Total number of reasoning engine errors",
		}, []string{"provider", "model", "error_type"}),

		retryCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_retries_total",
			Help: "Total number of reasoning engine retry attempts",
		}, []string{"provider", "model"}),

		parseFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_parse_fallbacks_total",
			Help: "Responses that needed default substitution, by artifact and scope",
		}, []string{"artifact", "scope"}), // scope: document, field

		fixTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_fix_transitions_total",
			Help: "Fix proposal status transitions",
		}, []string{"from", "to"}),
	}
}

// RecordRequest records metrics for a reasoning-engine request
func (m *LLMMetrics) RecordRequest(req LLMRequestMetrics) {
	if m == nil {
		return
	}

	labels := prometheus.Labels{
		"provider": req.Provider,
		"model":    req.Model,
		"status":   statusLabel(req.Success),
	}
	m.requestsTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(req.Duration.Seconds())

	if !req.Success {
		errorType := req.ErrorType
		if errorType == "" {
			errorType = "unknown"
		}
		m.errorsTotal.WithLabelValues(req.Provider, req.Model, errorType).Inc()
		return
	}

	m.tokensTotal.WithLabelValues(req.Provider, req.Model, "prompt").Add(float64(req.PromptTokens))
	m.tokensTotal.WithLabelValues(req.Provider, req.Model, "completion").Add(float64(req.CompletionTokens))
}

// RecordRetry records a retry attempt
func (m *LLMMetrics) RecordRetry(provider, model string) {
	if m == nil {
		return
	}
	m.retryCount.WithLabelValues(provider, model).Inc()
}

// RecordParseFallback records a decoded artifact that needed defaults.
// Whole-document fallbacks and per-field substitutions are counted apart.
func (m *LLMMetrics) RecordParseFallback(artifact string, wholeDocument bool, fields int) {
	if m == nil {
		return
	}
	if wholeDocument {
		m.parseFallbacks.WithLabelValues(artifact, "document").Inc()
		return
	}
	if fields > 0 {
		m.parseFallbacks.WithLabelValues(artifact, "field").Add(float64(fields))
	}
}

// RecordFixTransition records a fix proposal status change
func (m *LLMMetrics) RecordFixTransition(from, to string) {
	if m == nil {
		return
	}
	m.fixTransitions.WithLabelValues(from, to).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
