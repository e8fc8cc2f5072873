package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	taskMutations *prometheus.CounterVec
	taskList      prometheus.Histogram
	countsCache   *prometheus.CounterVec
	profile       prometheus.Counter
	avatars       *prometheus.CounterVec
	auth          *prometheus.CounterVec
	requests      *prometheus.HistogramVec
}

// NewPrometheus creates a recorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		taskMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_task_mutations_total",
			Help: "Task mutations by operation.",
		}, []string{"op"}),
		taskList: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskdeck_task_list_duration_seconds",
			Help:    "Latency of task list queries.",
			Buckets: prometheus.DefBuckets,
		}),
		countsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_counts_cache_total",
			Help: "Status count cache lookups by result.",
		}, []string{"result"}),
		profile: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_profile_upserts_total",
			Help: "Profile upserts.",
		}),
		avatars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_avatar_uploads_total",
			Help: "Avatar uploads by result.",
		}, []string{"result"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_auth_attempts_total",
			Help: "Identity provider calls by action and result.",
		}, []string{"action", "result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskdeck_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		p.taskMutations,
		p.taskList,
		p.countsCache,
		p.profile,
		p.avatars,
		p.auth,
		p.requests,
	)
	return p
}

// IncTaskMutation increments the mutation counter for op.
func (p *PrometheusRecorder) IncTaskMutation(op string) {
	p.taskMutations.WithLabelValues(op).Inc()
}

// ObserveTaskList records list latency.
func (p *PrometheusRecorder) ObserveTaskList(duration time.Duration) {
	p.taskList.Observe(duration.Seconds())
}

// IncCountsCache records a counts cache hit or miss.
func (p *PrometheusRecorder) IncCountsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.countsCache.WithLabelValues(result).Inc()
}

// IncProfileUpsert increments the profile upsert counter.
func (p *PrometheusRecorder) IncProfileUpsert() {
	p.profile.Inc()
}

// IncAvatarUpload increments the avatar counter for result.
func (p *PrometheusRecorder) IncAvatarUpload(result string) {
	p.avatars.WithLabelValues(result).Inc()
}

// IncAuthAttempt increments the auth counter.
func (p *PrometheusRecorder) IncAuthAttempt(action, result string) {
	p.auth.WithLabelValues(action, result).Inc()
}

// ObserveRequest records HTTP latency. route is the chi route pattern, so
// label cardinality stays bounded.
func (p *PrometheusRecorder) ObserveRequest(route string, status int, duration time.Duration) {
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
