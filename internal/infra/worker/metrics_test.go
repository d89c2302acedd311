package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// globalTestMetrics is shared by every test in the package; promauto panics
// on a second registration of the same names.
var globalTestMetrics = NewWorkerMetrics()

func TestNewWorkerMetrics(t *testing.T) {
	metrics := globalTestMetrics

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if metrics.CronJobRunsTotal == nil {
		t.Error("CronJobRunsTotal is nil")
	}
	if metrics.CronJobDurationSeconds == nil {
		t.Error("CronJobDurationSeconds is nil")
	}
	if metrics.CronJobPagesPublishedTotal == nil {
		t.Error("CronJobPagesPublishedTotal is nil")
	}
	if metrics.CronJobLastSuccessTimestamp == nil {
		t.Error("CronJobLastSuccessTimestamp is nil")
	}

	metrics.MustRegister()
}

// newIsolatedMetrics builds WorkerMetrics on a private registry so counts
// start from zero.
func newIsolatedMetrics(t *testing.T) *WorkerMetrics {
	t.Helper()
	reg := prometheus.NewRegistry()

	m := &WorkerMetrics{
		ConfigMetrics: globalTestMetrics.ConfigMetrics,
		CronJobRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_worker_cron_job_runs_total",
			Help: "test",
		}, []string{"status"}),
		CronJobDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "test_worker_cron_job_duration_seconds",
			Help: "test",
		}),
		CronJobPagesPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "test_worker_cron_job_pages_published_total",
			Help: "test",
		}),
		CronJobLastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "test_worker_cron_job_last_success_timestamp",
			Help: "test",
		}),
	}
	reg.MustRegister(m.CronJobRunsTotal, m.CronJobDurationSeconds, m.CronJobPagesPublishedTotal, m.CronJobLastSuccessTimestamp)
	return m
}

func TestWorkerMetrics_RecordJobRun(t *testing.T) {
	metrics := newIsolatedMetrics(t)

	metrics.RecordJobRun("success")
	metrics.RecordJobRun("success")
	metrics.RecordJobRun("failure")

	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("expected success count 2, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected failure count 1, got %f", got)
	}
}

func TestWorkerMetrics_RecordJobDuration(t *testing.T) {
	metrics := newIsolatedMetrics(t)

	metrics.RecordJobDuration(0.5)
	metrics.RecordJobDuration(12)

	if got := testutil.CollectAndCount(metrics.CronJobDurationSeconds); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestWorkerMetrics_RecordPagesPublished(t *testing.T) {
	metrics := newIsolatedMetrics(t)

	metrics.RecordPagesPublished(3)
	metrics.RecordPagesPublished(0)
	metrics.RecordPagesPublished(2)

	if got := testutil.ToFloat64(metrics.CronJobPagesPublishedTotal); got != 5 {
		t.Errorf("expected 5 pages, got %f", got)
	}
}

func TestWorkerMetrics_RecordLastSuccess(t *testing.T) {
	metrics := newIsolatedMetrics(t)

	metrics.RecordLastSuccess()

	if got := testutil.ToFloat64(metrics.CronJobLastSuccessTimestamp); got <= 0 {
		t.Errorf("expected positive timestamp, got %f", got)
	}
}
