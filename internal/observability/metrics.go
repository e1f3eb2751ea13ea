package observability

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/rikai-backend/internal/platform/envutil"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	generations    *prometheus.CounterVec
	contentCache   *prometheus.CounterVec
	storeMutations *prometheus.CounterVec
	quizAnswers    *prometheus.CounterVec
	chatReplies    *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
// Every method on *Metrics is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		instance = New(reg)
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// New builds a Metrics instance registered on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rikai_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rikai_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_llm_requests_total",
			Help: "LLM requests by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rikai_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds by model/endpoint/status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model", "endpoint", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_llm_tokens_total",
			Help: "LLM tokens by model/direction.",
		}, []string{"model", "direction"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_generations_total",
			Help: "Generation gateway calls by kind (skeleton/detail/converse) and outcome.",
		}, []string{"kind", "outcome"}),
		contentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_task_content_cache_total",
			Help: "Task content materialization outcomes (hit/issued/deduped/committed/stale/failed).",
		}, []string{"outcome"}),
		storeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_curriculum_store_mutations_total",
			Help: "Curriculum store mutations by operation and result.",
		}, []string{"op", "result"}),
		quizAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_quiz_answers_total",
			Help: "Quiz answers evaluated, by correctness.",
		}, []string{"correct"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rikai_chat_replies_total",
			Help: "Mentor chat replies by outcome (appended/failed/discarded).",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.generations, m.contentCache, m.storeMutations, m.quizAnswers, m.chatReplies,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(strings.ToUpper(method), route, code).Inc()
	m.apiLatency.WithLabelValues(strings.ToUpper(method), route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	endpoint = orUnknown(endpoint)
	if status = strings.TrimSpace(status); status == "" {
		status = "0"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) IncGeneration(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(orUnknown(kind), orUnknown(outcome)).Inc()
}

func (m *Metrics) IncContentCache(outcome string) {
	if m == nil {
		return
	}
	m.contentCache.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m *Metrics) IncStoreMutation(op, result string) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(orUnknown(op), orUnknown(result)).Inc()
}

func (m *Metrics) IncQuizAnswered(correct bool) {
	if m == nil {
		return
	}
	m.quizAnswers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) IncChatReply(outcome string) {
	if m == nil {
		return
	}
	m.chatReplies.WithLabelValues(orUnknown(outcome)).Inc()
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
