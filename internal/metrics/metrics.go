package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yoointerview"

var (
	InterviewsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interviewer",
		Name:      "sessions_started_total",
		Help:      "Interviewer sessions opened through /api/start-interview.",
	})

	Responses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interviewer",
		Name:      "responses_total",
		Help:      "Candidate responses processed, by resulting session status.",
	}, []string{"status"})

	Transcriptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stt",
		Name:      "transcriptions_total",
		Help:      "Audio chunks run through speech-to-text, by outcome.",
	}, []string{"outcome"})

	FeedbackRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feedback",
		Name:      "requests_total",
		Help:      "Feedback generation attempts, by outcome.",
	}, []string{"outcome"})

	LLMLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Latency of model calls.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"purpose"})
)

func init() {
	prometheus.MustRegister(InterviewsStarted, Responses, Transcriptions, FeedbackRequests, LLMLatency)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
