package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"klist/internal/pkg/config"
)

// WorkerMetrics holds the worker's Prometheus metrics: the shared
// worker_config_* gauges plus scheduler job metrics.
//
// Job metrics:
//   - worker_cron_job_runs_total{status}: success, failure or skipped
//   - worker_cron_job_duration_seconds: cycle duration histogram
//   - worker_cron_job_pages_published_total: pages edited or created
//   - worker_cron_job_last_success_timestamp: time of the last successful cycle
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobPagesPublishedTotal  prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics. It must be
// called once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of publishing cycles by status",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of publishing cycles in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300, 600},
		}),

		CronJobPagesPublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_pages_published_total",
			Help: "Total number of pages edited or created across all cycles",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful publishing cycle",
		}),
	}
}

// MustRegister is a no-op; promauto registers on creation.
func (m *WorkerMetrics) MustRegister() {}

// RecordJobRun counts one cycle with the given status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a cycle duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordPagesPublished adds count to the published pages counter.
func (m *WorkerMetrics) RecordPagesPublished(count int) {
	m.CronJobPagesPublishedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last successful cycle with the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
