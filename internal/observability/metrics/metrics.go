package metrics

import (
	"strconv"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 推薦流程與外部服務的計數器與延遲
type Metrics struct {
	recommendations     *prometheus.CounterVec
	matches             *prometheus.CounterVec
	collaboratorCalls   *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpLatency         *prometheus.HistogramVec
}

// New 建立並註冊指標；reg 為 nil 時使用預設 registry
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sipsync",
			Subsystem: "recommend",
			Name:      "results_total",
			Help:      "Recommendation results by status",
		}, []string{"status", "custom"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sipsync",
			Subsystem: "recommend",
			Name:      "matches_total",
			Help:      "Ailment matcher outcomes by method",
		}, []string{"method"}),
		collaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sipsync",
			Subsystem: "collaborator",
			Name:      "calls_total",
			Help:      "External collaborator calls by outcome",
		}, []string{"collaborator", "outcome"}),
		collaboratorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sipsync",
			Subsystem: "collaborator",
			Name:      "latency_seconds",
			Help:      "Latency of external collaborator calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collaborator"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sipsync",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sipsync",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.recommendations, m.matches, m.collaboratorCalls, m.collaboratorLatency,
		m.httpRequests, m.httpLatency)
	return m
}

// ObserveRecommendation 記錄一次推薦結果
func (m *Metrics) ObserveRecommendation(status string, custom bool) {
	if m == nil {
		return
	}
	label := "false"
	if custom {
		label = "true"
	}
	m.recommendations.WithLabelValues(status, label).Inc()
}

// ObserveMatch 記錄比對方式（exact、containment、synonym、fuzzy、disambiguated、none）
func (m *Metrics) ObserveMatch(method string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(method).Inc()
}

// ObserveCollaborator 記錄外部服務呼叫結果與耗時
func (m *Metrics) ObserveCollaborator(collaborator string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if ce, ok := common.AsCollaboratorError(err); ok {
			outcome = string(ce.Kind)
		}
	}
	m.collaboratorCalls.WithLabelValues(collaborator, outcome).Inc()
	m.collaboratorLatency.WithLabelValues(collaborator).Observe(elapsed.Seconds())
}

// ObserveHTTP 記錄 HTTP 請求
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
