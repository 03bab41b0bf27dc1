package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultWritten   = "written"
	resultInvalid   = "invalid"
	resultDuplicate = "duplicate"
	resultSuccess   = "success"
	resultError     = "error"
)

// Metrics are the importer's Prometheus collectors.
type Metrics struct {
	rows          *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	anomalies     *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripimport_records_total",
				Help: "Records processed by kind and result",
			},
			[]string{"kind", "result"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripimport_rejections_total",
				Help: "Rows rejected during normalization by reason",
			},
			[]string{"reason"},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripimport_anomalies_total",
				Help: "Rows kept with a zeroed derived value",
			},
			[]string{"field"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripimport_batches_total",
				Help: "Batch flushes by kind and result",
			},
			[]string{"kind", "result"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tripimport_batch_duration_seconds",
				Help:    "Batch flush duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tripimport_last_success_timestamp_seconds",
				Help: "Unix time of the last import that reached the complete phase",
			},
		),
	}
	reg.MustRegister(m.rows, m.rejections, m.anomalies, m.batches, m.batchDuration, m.lastSuccess)
	return m
}
