// Package metrics holds the Prometheus collectors exported on /metrics.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	grantsTotal      *prometheus.CounterVec
	auditEventsTotal *prometheus.CounterVec
	rpcTotal         *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	recordsAccessed  *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		grantsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sehati_grant_operations_total",
				Help: "Access grant operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		auditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sehati_audit_events_total",
				Help: "Audit rows appended, by action",
			},
			[]string{"action", "success"},
		),
		rpcTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sehati_rpc_requests_total",
				Help: "gRPC requests by method and status code",
			},
			[]string{"method", "code"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sehati_rpc_duration_seconds",
				Help:    "gRPC request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		recordsAccessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sehati_records_total",
				Help: "Medical records written or decrypted for viewing",
			},
			[]string{"operation"},
		),
	}

	c.registry.MustRegister(
		c.grantsTotal,
		c.auditEventsTotal,
		c.rpcTotal,
		c.rpcDuration,
		c.recordsAccessed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordGrant counts one grant operation ("create", "validate", "revoke")
// with its outcome ("ok", "expired", "not_found", ...).
func (c *Collector) RecordGrant(operation, outcome string) {
	if c == nil {
		return
	}
	c.grantsTotal.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordAuditEvent(action string, success bool) {
	if c == nil {
		return
	}
	c.auditEventsTotal.WithLabelValues(action, strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordRPC(method, code string, d time.Duration) {
	if c == nil {
		return
	}
	c.rpcTotal.WithLabelValues(method, code).Inc()
	c.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (c *Collector) RecordRecords(operation string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.recordsAccessed.WithLabelValues(operation).Add(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
