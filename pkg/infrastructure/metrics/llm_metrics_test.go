package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLLMMetrics(reg)

	m.RecordRequest(LLMRequestMetrics{
		Provider:         "gemini",
		Model:            "gemini-2.5-pro",
		Duration:         2 * time.Second,
		Success:          true,
		PromptTokens:     1200,
		CompletionTokens: 300,
	})
	m.RecordRequest(LLMRequestMetrics{
		Provider:  "gemini",
		Model:     "gemini-2.5-pro",
		Duration:  time.Second,
		ErrorType: "NETWORK_ERROR",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("gemini", "gemini-2.5-pro", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("gemini", "gemini-2.5-pro", "error")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.tokensTotal.WithLabelValues("gemini", "gemini-2.5-pro", "prompt")))
	assert.Equal(t, 300.0, testutil.ToFloat64(m.tokensTotal.WithLabelValues("gemini", "gemini-2.5-pro", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("gemini", "gemini-2.5-pro", "NETWORK_ERROR")))
}

func TestRecordParseFallback(t *testing.T) {
	m := NewLLMMetrics(prometheus.NewRegistry())

	m.RecordParseFallback("plan", true, 1)
	m.RecordParseFallback("diagnosis", false, 3)
	m.RecordParseFallback("diagnosis", false, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseFallbacks.WithLabelValues("plan", "document")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.parseFallbacks.WithLabelValues("diagnosis", "field")))
}

func TestRecordRetryAndTransitions(t *testing.T) {
	m := NewLLMMetrics(prometheus.NewRegistry())

	m.RecordRetry("anthropic", "claude-sonnet-4-5")
	m.RecordRetry("anthropic", "claude-sonnet-4-5")
	m.RecordFixTransition("pending", "approved")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retryCount.WithLabelValues("anthropic", "claude-sonnet-4-5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fixTransitions.WithLabelValues("pending", "approved")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *LLMMetrics
	assert.NotPanics(t, func() {
		m.RecordRequest(LLMRequestMetrics{Success: true})
		m.RecordRetry("p", "m")
		m.RecordParseFallback("plan", true, 0)
		m.RecordFixTransition("pending", "rejected")
	})
}
