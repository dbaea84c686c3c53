package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Account metrics
	UsersRegistered prometheus.Counter
	Logins          *prometheus.CounterVec
	AvatarUploads   *prometheus.CounterVec

	// Workflow metrics
	WorkflowsSaved   prometheus.Counter
	WorkflowsDeleted prometheus.Counter
	WorkflowBytes    prometheus.Histogram

	// Repository metrics
	DBOperations *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector with its own registry. Process and Go
// runtime collectors are registered alongside.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Total number of accounts created",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		AvatarUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "avatar_uploads_total",
			Help:      "Avatar uploads by result",
		}, []string{"result"}),
		WorkflowsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_saved_total",
			Help:      "Total number of workflow records saved",
		}),
		WorkflowsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_deleted_total",
			Help:      "Total number of workflow records deleted",
		}),
		WorkflowBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_size_bytes",
			Help:      "Size of saved workflow blobs",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		DBOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_operations_total",
			Help:      "Total number of repository operations",
		}, []string{"operation", "status"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of query cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of query cache misses",
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.UsersRegistered,
		c.Logins,
		c.AvatarUploads,
		c.WorkflowsSaved,
		c.WorkflowsDeleted,
		c.WorkflowBytes,
		c.DBOperations,
		c.CacheHits,
		c.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// The Record methods below are safe on a nil collector.

// RecordLogin counts one login attempt.
func (c *Collector) RecordLogin(result string) {
	if c == nil {
		return
	}
	c.Logins.WithLabelValues(result).Inc()
}

// RecordRegistration counts one created account.
func (c *Collector) RecordRegistration() {
	if c == nil {
		return
	}
	c.UsersRegistered.Inc()
}

// RecordAvatarUpload counts one avatar upload by outcome.
func (c *Collector) RecordAvatarUpload(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.AvatarUploads.WithLabelValues(result).Inc()
}

// RecordWorkflowSaved counts one saved workflow and its size.
func (c *Collector) RecordWorkflowSaved(size int) {
	if c == nil {
		return
	}
	c.WorkflowsSaved.Inc()
	c.WorkflowBytes.Observe(float64(size))
}

// RecordWorkflowDeleted counts removed workflow records.
func (c *Collector) RecordWorkflowDeleted(n int) {
	if c == nil {
		return
	}
	c.WorkflowsDeleted.Add(float64(n))
}

// CacheHit counts a query served from cache.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.CacheHits.Inc()
}

// CacheMiss counts a query that went to the handler.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.CacheMisses.Inc()
}

// RecordDBOperation counts one repository call.
func (c *Collector) RecordDBOperation(operation string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.DBOperations.WithLabelValues(operation, status).Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
