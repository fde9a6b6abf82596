package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contract labels for the metrics below.
const (
	contractSpec      = "spec"
	contractFiles     = "project_files"
	contractThumbnail = "thumbnail"
	contractCopilot   = "copilot"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_ai_requests_total",
			Help: "Total number of requests to the AI gateway.",
		},
		[]string{"model", "contract", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_ai_request_duration_seconds",
			Help:    "Histogram of AI gateway request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "contract"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model", "contract"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model", "contract"},
	)
)

func observeUsage(model, contract string, usage UsageInfo) {
	if usage.TotalTokens == 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"model": model, "contract": contract}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model, "contract": contract}).Observe(float64(usage.CompletionTokens))
}
