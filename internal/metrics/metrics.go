// Package metrics provides Prometheus instrumentation for the moderation
// service. It exposes counters for evaluations and enforcement actions,
// histograms for risk scores and evaluation latency, and a gauge for
// sentiment availability.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EvaluationsTotal counts evaluated messages, labeled by verdict:
	// "filtered" or "passed".
	EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copyguard_evaluations_total",
		Help: "Total number of messages evaluated",
	}, []string{"verdict"}) // verdict = "filtered", "passed"

	// RiskScore records the distribution of aggregated risk scores.
	RiskScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "copyguard_risk_score",
		Help:    "Distribution of aggregated risk scores",
		Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
	})

	// EvaluationLatency records end-to-end evaluation latency in seconds.
	EvaluationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "copyguard_evaluation_latency_seconds",
		Help:    "Message evaluation latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// KeywordDetections counts keyword hits, labeled by keyword.
	KeywordDetections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copyguard_keyword_detections_total",
		Help: "Total keyword detections",
	}, []string{"keyword"})

	// SentimentAvailable reports whether a real sentiment model is serving
	// (1) or the neutral stub is in use (0).
	SentimentAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "copyguard_sentiment_available",
		Help: "Whether a sentiment model is loaded (1) or the neutral stub is in use (0)",
	})

	// ActionsTotal counts enforcement actions published, labeled by action:
	// "delete", "warn", or "notify".
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copyguard_actions_total",
		Help: "Total enforcement actions published",
	}, []string{"action"}) // action = "delete", "warn", "notify"
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		RiskScore,
		EvaluationLatency,
		KeywordDetections,
		SentimentAvailable,
		ActionsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
